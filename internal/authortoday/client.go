// Package authortoday is the REST client for the Author.Today platform API.
//
// Control-plane calls (login, library, details, URL resolution) go through
// a min-interval throttle plus exponential backoff on rate-limit answers.
// The audio transfers themselves never touch this client; they are plain
// GETs against the resolved URLs.
package authortoday

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/s00d/author-today-cli/internal/domain"
	"github.com/s00d/author-today-cli/internal/infra/logger"
)

const (
	defaultMinInterval = 2 * time.Second
	defaultUserAgent   = "author-today-cli"

	maxAPIAttempts = 5
)

type Client struct {
	baseURL     string
	http        *http.Client
	limiter     *rate.Limiter
	log         *logger.Logger
	userAgent   string
	backoffBase time.Duration
	backoffCap  time.Duration

	mu      sync.RWMutex
	session *Session
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMinInterval spaces API calls at least d apart.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// WithBackoff tunes the rate-limit backoff. Tests shrink it.
func WithBackoff(base, cap time.Duration) Option {
	return func(c *Client) { c.backoffBase, c.backoffCap = base, cap }
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(rate.Every(defaultMinInterval), 1),
		log:         logger.Nop(),
		userAgent:   defaultUserAgent,
		backoffBase: time.Second,
		backoffCap:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSession attaches the bearer token used on subsequent calls.
func (c *Client) SetSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

// Login exchanges credentials for a session and attaches it to the client.
func (c *Client) Login(ctx context.Context, login, password string) (*Session, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/v1/account/login-by-password", loginRequest{Login: login, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login answer carried no token")
	}

	s := &Session{Token: resp.Token, ExpiresAt: resp.Expires}
	c.SetSession(s)

	if u, err := c.CurrentUser(ctx); err == nil {
		s.UserID = u.ID
		s.UserName = u.UserName
	}
	return s, nil
}

// CurrentUser validates the attached session.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/v1/account/current-user", nil, &u)
	return u, err
}

// Library lists the purchased audiobooks.
func (c *Client) Library(ctx context.Context) ([]domain.Book, error) {
	var items []libraryItem
	if err := c.do(ctx, http.MethodGet, "/v1/account/user-library", nil, &items); err != nil {
		return nil, err
	}

	books := make([]domain.Book, 0, len(items))
	for _, it := range items {
		if !it.isAudiobook() {
			continue
		}
		books = append(books, it.toBook())
	}
	return books, nil
}

// BookDetails fetches the work metadata and its chapter list.
func (c *Client) BookDetails(ctx context.Context, workID int64) (domain.Book, []domain.Chapter, error) {
	var details workDetails
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/work/%d/details", workID), nil, &details); err != nil {
		return domain.Book{}, nil, err
	}

	var items []chapterItem
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/work/%d/content", workID), nil, &items); err != nil {
		return domain.Book{}, nil, err
	}

	book := details.toBook()
	if book.WorkID == 0 {
		book.WorkID = workID
	}
	chapters := toChapters(items)
	if book.ChapterCount == 0 {
		book.ChapterCount = len(chapters)
	}
	return book, chapters, nil
}

// ResolveChapterURL asks for the chapter's direct audio URL. The platform
// answering with a null URL means there is no source; that comes back as
// ("", nil) for the caller to classify.
func (c *Client) ResolveChapterURL(ctx context.Context, workID, chapterID int64) (string, error) {
	var resp chapterURLResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/work/%d/chapter/%d/url", workID, chapterID), nil, &resp); err != nil {
		return "", err
	}
	if resp.URL == nil {
		return "", nil
	}
	return *resp.URL, nil
}

// do runs one control-plane call: throttle, send, classify, retry on
// rate-limit or server-side trouble with doubling delays.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAPIAttempts; attempt++ {
		if attempt > 1 {
			delay := c.backoffBase * (1 << (attempt - 2))
			if delay > c.backoffCap {
				delay = c.backoffCap
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.log.Debug("api %s %s: %v (attempt %d)", method, path, err, attempt)
			continue
		}

		status := resp.StatusCode
		err = decodeResponse(resp, out)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrRateLimited) || status >= 500 {
			lastErr = err
			c.log.Warn("api %s %s: %v, backing off (attempt %d)", method, path, err, attempt)
			continue
		}
		return err
	}
	return fmt.Errorf("api gave up after %d attempts: %w", maxAPIAttempts, lastErr)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.ErrNotAuthenticated
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrResourceUnavailable
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return domain.ErrRateLimited
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
