package controllers

import (
	"net/http"
	"strconv"

	"github.com/s00d/author-today-cli/internal/app"
	"github.com/s00d/author-today-cli/internal/domain"
	"github.com/labstack/echo/v5"
)

type DownloadsController struct {
	App *app.Context
}

// HandleList serves download history, newest first. ?workId=N narrows it to
// one book.
func (ctrl *DownloadsController) HandleList(c *echo.Context) error {
	var workID int64
	if raw := c.QueryParam("workId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "workId must be a positive integer"})
		}
		workID = id
	}

	records, err := ctrl.App.Store.ListDownloads(c.Request().Context(), workID, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	if records == nil {
		records = make([]domain.DownloadRecord, 0)
	}

	return c.JSON(http.StatusOK, DownloadsResponse{Records: records, Count: len(records)})
}
