package app

import (
	"context"

	"github.com/s00d/author-today-cli/internal/domain"
	"github.com/s00d/author-today-cli/internal/download"
	"github.com/s00d/author-today-cli/internal/infra/config"
	"github.com/s00d/author-today-cli/internal/infra/logger"
	"github.com/s00d/author-today-cli/internal/store"
)

type Catalog interface {
	// This allows the queue and commands to talk to Author.Today without importing the client package
	Library(ctx context.Context) ([]domain.Book, error)
	BookDetails(ctx context.Context, workID int64) (domain.Book, []domain.Chapter, error)
}

type Runner interface {
	// This allows serve mode to trigger whole-book runs without importing the download internals
	Run(ctx context.Context, book domain.Book, chapters []domain.Chapter, opts download.Options) (domain.Summary, error)
}

// Context holds the core environment and shared resources for the CLI.
// It acts as the "Single Source of Truth" for the application state.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	// High-level interfaces for services to use
	Catalog Catalog
	Runner  Runner

	Store *store.PersistentStore
}

// NewContext initializes the base environment.
func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	return &Context{
		Config: cfg,
		Logger: log,
	}
}
