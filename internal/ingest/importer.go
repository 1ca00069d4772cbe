package ingest

import (
	"context"
	"fmt"

	"OrderOps/internal/sheet"
	"OrderOps/internal/store"

	"go.uber.org/zap"
)

// Importer runs manufacturer and product imports against a store.
type Importer struct {
	dicts Dictionaries
	store store.Store
	log   *zap.Logger
}

func NewImporter(dicts Dictionaries, st store.Store, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.L()
	}
	return &Importer{dicts: dicts, store: st, log: log}
}

// Import reconciles g as a feed of kind.
func (im *Importer) Import(ctx context.Context, kind Kind, g sheet.Grid) (*ImportResult, error) {
	dict, err := im.dicts.For(kind)
	if err != nil {
		return nil, err
	}
	var target Target
	switch kind {
	case KindManufacturer:
		target = NewManufacturerTarget(im.store)
	case KindProduct:
		target = NewProductTarget(im.store, im.log)
	default:
		return nil, fmt.Errorf("%s is not a reconciled import kind", kind)
	}
	return NewEngine(dict, target, im.log).Run(ctx, g)
}
