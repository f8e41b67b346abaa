package controllers

import (
	"errors"
	"net/http"

	"github.com/s00d/author-today-cli/internal/app"
	"github.com/s00d/author-today-cli/internal/domain"
	"github.com/labstack/echo/v5"
)

type LibraryController struct {
	App *app.Context
}

// HandleList serves the cached library. The cache is refreshed from the
// platform when it is empty or when ?refresh=1 is passed.
func (ctrl *LibraryController) HandleList(c *echo.Context) error {
	ctx := c.Request().Context()

	books, err := ctrl.App.Store.GetBooks(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	if len(books) == 0 || c.QueryParam("refresh") == "1" {
		fresh, err := ctrl.App.Catalog.Library(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNotAuthenticated) {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "not logged in, run the login command first"})
			}
			return c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		}

		if err := ctrl.App.Store.SaveBooks(ctx, fresh); err != nil {
			ctrl.App.Logger.Warn("failed to cache library: %v", err)
		}
		books = fresh
	}

	if books == nil {
		books = make([]domain.Book, 0)
	}
	return c.JSON(http.StatusOK, LibraryResponse{Books: books, Count: len(books)})
}
