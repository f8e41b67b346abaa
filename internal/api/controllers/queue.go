package controllers

import (
	"net/http"

	"github.com/s00d/author-today-cli/internal/app"
	"github.com/s00d/author-today-cli/internal/domain"
	"github.com/s00d/author-today-cli/internal/queue"
	"github.com/labstack/echo/v5"
)

type QueueController struct {
	App     *app.Context
	Manager *queue.Manager
}

type enqueueRequest struct {
	WorkID int64 `json:"workId"`
}

// HandleEnqueue adds a book to the download queue and answers 202 with the
// item so the caller can poll its progress.
func (ctrl *QueueController) HandleEnqueue(c *echo.Context) error {
	var req enqueueRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.WorkID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "workId must be a positive integer"})
	}

	item, err := ctrl.Manager.Enqueue(c.Request().Context(), req.WorkID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusAccepted, item)
}

func (ctrl *QueueController) HandleList(c *echo.Context) error {
	items, err := ctrl.Manager.Items(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	if items == nil {
		items = make([]*domain.QueueItem, 0)
	}

	return c.JSON(http.StatusOK, QueueResponse{Items: items, Active: ctrl.Manager.ActiveID()})
}

func (ctrl *QueueController) HandleGet(c *echo.Context) error {
	item, err := ctrl.Manager.Item(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	if item == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "queue item not found"})
	}

	return c.JSON(http.StatusOK, item)
}
