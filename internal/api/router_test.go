package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/s00d/author-today-cli/internal/api/controllers"
	"github.com/s00d/author-today-cli/internal/app"
	"github.com/s00d/author-today-cli/internal/domain"
	"github.com/s00d/author-today-cli/internal/download"
	"github.com/s00d/author-today-cli/internal/infra/logger"
	"github.com/s00d/author-today-cli/internal/queue"
	"github.com/s00d/author-today-cli/internal/store"
	"github.com/labstack/echo/v5"
)

type fakeCatalog struct {
	mu    sync.Mutex
	calls int
	books []domain.Book
	err   error
}

func (f *fakeCatalog) Library(ctx context.Context) ([]domain.Book, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.books, nil
}

func (f *fakeCatalog) BookDetails(ctx context.Context, workID int64) (domain.Book, []domain.Chapter, error) {
	return domain.Book{WorkID: workID}, nil, nil
}

func (f *fakeCatalog) libraryCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// newTestServer wires a real store and an idle queue manager behind the
// router. The manager loop is not started, so queued items stay queued.
func newTestServer(t *testing.T, catalog app.Catalog) (*echo.Echo, *store.PersistentStore) {
	t.Helper()

	st, err := store.NewPersistentStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	appCtx := app.NewContext(nil, logger.Nop())
	appCtx.Catalog = catalog
	appCtx.Store = st

	e := echo.New()
	RegisterRoutes(e, appCtx, queue.NewManager(appCtx, download.Options{}))
	return e, st
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	e, _ := newTestServer(t, &fakeCatalog{})

	rec := do(e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestLibraryServesCache(t *testing.T) {
	catalog := &fakeCatalog{}
	e, st := newTestServer(t, catalog)

	seed := []domain.Book{
		{WorkID: 10, Title: "Первая", Author: "А"},
		{WorkID: 20, Title: "Вторая", Author: "Б"},
	}
	if err := st.SaveBooks(context.Background(), seed); err != nil {
		t.Fatalf("SaveBooks() failed: %v", err)
	}

	rec := do(e, http.MethodGet, "/api/library", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp controllers.LibraryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Count != 2 || len(resp.Books) != 2 {
		t.Errorf("expected 2 cached books, got %+v", resp)
	}
	if catalog.libraryCalls() != 0 {
		t.Errorf("expected cache hit without platform calls, got %d", catalog.libraryCalls())
	}
}

func TestLibraryRefreshesWhenCacheEmpty(t *testing.T) {
	catalog := &fakeCatalog{books: []domain.Book{{WorkID: 30, Title: "Свежая", Author: "В"}}}
	e, st := newTestServer(t, catalog)

	rec := do(e, http.MethodGet, "/api/library", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp controllers.LibraryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Count != 1 || resp.Books[0].WorkID != 30 {
		t.Errorf("expected refreshed library, got %+v", resp)
	}
	if catalog.libraryCalls() != 1 {
		t.Errorf("expected one platform call, got %d", catalog.libraryCalls())
	}

	// The refresh result must land in the cache
	cached, err := st.GetBooks(context.Background())
	if err != nil {
		t.Fatalf("GetBooks() failed: %v", err)
	}
	if len(cached) != 1 {
		t.Errorf("expected refresh to populate the cache, got %d books", len(cached))
	}
}

func TestLibraryRefreshParamForcesFetch(t *testing.T) {
	catalog := &fakeCatalog{books: []domain.Book{{WorkID: 99, Title: "Новая", Author: "Г"}}}
	e, st := newTestServer(t, catalog)

	if err := st.SaveBooks(context.Background(), []domain.Book{{WorkID: 10, Title: "Старая"}}); err != nil {
		t.Fatalf("SaveBooks() failed: %v", err)
	}

	rec := do(e, http.MethodGet, "/api/library?refresh=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp controllers.LibraryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Count != 1 || resp.Books[0].WorkID != 99 {
		t.Errorf("expected the fresh snapshot, got %+v", resp)
	}
	if catalog.libraryCalls() != 1 {
		t.Errorf("expected a forced platform call, got %d", catalog.libraryCalls())
	}
}

func TestLibraryUnauthenticated(t *testing.T) {
	catalog := &fakeCatalog{err: domain.ErrNotAuthenticated}
	e, _ := newTestServer(t, catalog)

	rec := do(e, http.MethodGet, "/api/library", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLibraryPlatformErrorIsBadGateway(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("boom")}
	e, _ := newTestServer(t, catalog)

	rec := do(e, http.MethodGet, "/api/library", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestEnqueueAndFetchQueueItem(t *testing.T) {
	e, _ := newTestServer(t, &fakeCatalog{})

	rec := do(e, http.MethodPost, "/api/queue", `{"workId": 42}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var item domain.QueueItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("failed to decode item: %v", err)
	}
	if item.ID == "" || item.WorkID != 42 || item.Status != domain.QueueStatusQueued {
		t.Errorf("unexpected enqueued item: %+v", item)
	}

	rec = do(e, http.MethodGet, "/api/queue/"+item.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for known item, got %d", rec.Code)
	}

	rec = do(e, http.MethodGet, "/api/queue", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for list, got %d", rec.Code)
	}
	var list controllers.QueueResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != item.ID {
		t.Errorf("unexpected queue list: %+v", list)
	}

	rec = do(e, http.MethodGet, "/api/queue/does-not-exist", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown item, got %d", rec.Code)
	}
}

func TestEnqueueValidation(t *testing.T) {
	e, _ := newTestServer(t, &fakeCatalog{})

	rec := do(e, http.MethodPost, "/api/queue", `{"workId": 0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for workId 0, got %d", rec.Code)
	}

	rec = do(e, http.MethodPost, "/api/queue", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestDownloadsFilterByWork(t *testing.T) {
	e, st := newTestServer(t, &fakeCatalog{})

	ctx := context.Background()
	run := domain.Summarize([]domain.Outcome{
		{Chapter: domain.Chapter{ID: 1, Title: "Глава 1", Order: 1}, State: domain.ChapterCompleted, Attempts: 1},
		{Chapter: domain.Chapter{ID: 2, Title: "Глава 2", Order: 2}, State: domain.ChapterFailed, Attempts: 3, Err: errors.New("boom")},
	})
	if err := st.RecordRun(ctx, 42, run); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
	other := domain.Summarize([]domain.Outcome{
		{Chapter: domain.Chapter{ID: 9, Title: "Пролог", Order: 1}, State: domain.ChapterCompleted, Attempts: 1},
	})
	if err := st.RecordRun(ctx, 77, other); err != nil {
		t.Fatalf("RecordRun(other) failed: %v", err)
	}

	rec := do(e, http.MethodGet, "/api/downloads?workId=42", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp controllers.DownloadsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("expected 2 records for work 42, got %d", resp.Count)
	}
	for _, r := range resp.Records {
		if r.WorkID != 42 {
			t.Errorf("expected only work 42 records, got %d", r.WorkID)
		}
	}

	rec = do(e, http.MethodGet, "/api/downloads", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Count != 3 {
		t.Errorf("expected 3 records across works, got %d", resp.Count)
	}

	rec = do(e, http.MethodGet, "/api/downloads?workId=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad workId, got %d", rec.Code)
	}
}
