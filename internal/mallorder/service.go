// Package mallorder ingests shopping-mall order exports and replays them
// into partner-specific export layouts.
package mallorder

import (
	"context"
	"time"

	"OrderOps/internal/ingest"
	"OrderOps/internal/store"

	"go.uber.org/zap"
)

// Backend is the slice of the store the mall flows use.
type Backend interface {
	store.TemplateStore
	store.UploadStore
	ListOrderLines(ctx context.Context, uploadID int64) ([]store.OrderLine, error)
	ManufacturerIDsByProductKeys(ctx context.Context, codeKeys []string) (map[string]int64, error)
}

type Service struct {
	store Backend
	dict  *ingest.Dictionary
	log   *zap.Logger
	loc   *time.Location
	now   func() time.Time
}

// NewService builds the service. loc is the zone export file names are
// stamped in.
func NewService(st Backend, dicts ingest.Dictionaries, loc *time.Location, log *zap.Logger) (*Service, error) {
	dict, err := dicts.For(ingest.KindMallOrder)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.L()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: st, dict: dict, log: log, loc: loc, now: time.Now}, nil
}
