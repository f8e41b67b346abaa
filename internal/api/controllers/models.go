package controllers

import "github.com/s00d/author-today-cli/internal/domain"

type ErrorResponse struct {
	Error string `json:"error"`
}

type LibraryResponse struct {
	Books []domain.Book `json:"books"`
	Count int           `json:"count"`
}

type QueueResponse struct {
	Items  []*domain.QueueItem `json:"items"`
	Active string              `json:"active,omitempty"`
}

type DownloadsResponse struct {
	Records []domain.DownloadRecord `json:"records"`
	Count   int                     `json:"count"`
}
