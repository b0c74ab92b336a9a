// Package storage persists answered questions in a journal.
package storage

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
)

// Journal stores answer events.
type Journal interface {
	Record(ctx context.Context, ev *models.AnswerEvent) error
	Get(ctx context.Context, id string) (*models.AnswerEvent, error)
	// ListRecent returns up to limit events, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.AnswerEvent, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}
