package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"OrderOps/internal/metrics"
	"OrderOps/internal/sheet"
	"OrderOps/internal/textnorm"
	"OrderOps/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the outcome of one data row.
type Status string

const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	// StatusUnchanged is a matched row whose patch came out empty. It is
	// counted under Skipped as well.
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
)

const reasonPersistFailed = "failed to persist"

// RowOutcome records what happened to one data row. Row is the 1-based
// source row number.
type RowOutcome struct {
	Row    int    `json:"row"`
	Key    string `json:"key,omitempty"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type RowError struct {
	Row     int    `json:"row"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

// ImportResult always satisfies TotalRows == Created + Updated + Skipped.
type ImportResult struct {
	RunID     string       `json:"runId"`
	Kind      Kind         `json:"kind"`
	TotalRows int          `json:"totalRows"`
	Created   int          `json:"created"`
	Updated   int          `json:"updated"`
	Skipped   int          `json:"skipped"`
	Unchanged int          `json:"unchanged"`
	Errors    []RowError   `json:"errors"`
	Outcomes  []RowOutcome `json:"outcomes,omitempty"`
}

func (r *ImportResult) record(o RowOutcome) {
	r.TotalRows++
	switch o.Status {
	case StatusCreated:
		r.Created++
	case StatusUpdated:
		r.Updated++
	case StatusUnchanged:
		r.Skipped++
		r.Unchanged++
	default:
		r.Skipped++
		r.Errors = append(r.Errors, RowError{Row: o.Row, Key: o.Key, Message: o.Reason})
	}
	r.Outcomes = append(r.Outcomes, o)
}

// Target adapts the engine to one destination entity. A Target carries the
// state of a single run and is not safe for concurrent use.
type Target interface {
	Kind() Kind
	KeyField() Field
	NormalizeKey(raw string) string
	// Load builds the natural-key index and any lookup tables Prepare needs.
	Load(ctx context.Context) (*Index, error)
	// Prepare extracts and validates the row's fields. The returned error
	// message becomes the skip reason.
	Prepare(m HeaderMapping, row []string) (map[Field]string, error)
	// Insert fails with store.ErrDuplicate when the key already exists.
	Insert(ctx context.Context, key string, values map[Field]string) (int64, error)
	// Requery returns nil, nil when key does not exist.
	Requery(ctx context.Context, key string) (*Entry, error)
	Update(ctx context.Context, id int64, patch map[Field]string) error
	// AfterWrite runs best-effort side effects of a created or updated row.
	AfterWrite(ctx context.Context, key string, id int64, written map[Field]string)
}

// Engine reconciles a tabular feed against a Target.
type Engine struct {
	dict   *Dictionary
	target Target
	log    *zap.Logger
}

func NewEngine(dict *Dictionary, target Target, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.L()
	}
	return &Engine{dict: dict, target: target, log: log}
}

// Run reconciles every data row of g. Only structural problems are returned
// as an error; row problems are reported in the result.
func (e *Engine) Run(ctx context.Context, g sheet.Grid) (*ImportResult, error) {
	started := time.Now()
	kind := string(e.target.Kind())
	res, err := e.run(ctx, g)
	if err != nil {
		metrics.ObserveRun(kind, "failed", time.Since(started))
		return nil, err
	}
	metrics.ObserveRun(kind, "ok", time.Since(started))
	e.log.Info("import finished",
		zap.String("run_id", res.RunID),
		zap.String("kind", kind),
		zap.Int("total", res.TotalRows),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("unchanged", res.Unchanged),
		zap.Duration("elapsed", time.Since(started)),
	)
	return res, nil
}

func (e *Engine) run(ctx context.Context, g sheet.Grid) (*ImportResult, error) {
	headerRow, err := FirstNonEmptyRow(g)
	if err != nil {
		return nil, err
	}
	mapping := e.dict.Map(g.Row(headerRow))
	if err := e.dict.Validate(mapping); err != nil {
		return nil, err
	}
	if !mapping.Has(e.target.KeyField()) {
		return nil, fmt.Errorf("%w: expected %s", ErrMissingMandatoryHeader, e.target.KeyField())
	}
	// once rows start persisting, store failures are reported per row so
	// the result still lists what was written
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	index, err := e.target.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s index: %w", e.target.Kind(), err)
	}

	res := &ImportResult{RunID: uuid.NewString(), Kind: e.target.Kind(), Errors: []RowError{}}
	log := e.log.With(zap.String("run_id", res.RunID), zap.String("kind", string(e.target.Kind())))
	log.Debug("import started", zap.Int("header_row", headerRow+1), zap.Int("indexed", index.Len()))

	seen := make(map[string]struct{})
	for r := headerRow + 1; r < len(g); r++ {
		row := g.Row(r)
		if textnorm.IsBlank(row) {
			continue
		}
		o := e.reconcile(ctx, log, index, seen, mapping, row)
		o.Row = r + 1
		res.record(o)
		metrics.ObserveRow(string(e.target.Kind()), string(o.Status))
		if o.Status == StatusSkipped {
			log.Debug("row skipped", zap.Int("row", o.Row), zap.String("key", o.Key), zap.String("reason", o.Reason))
		}
	}
	return res, nil
}

func (e *Engine) reconcile(ctx context.Context, log *zap.Logger, index *Index, seen map[string]struct{}, mapping HeaderMapping, row []string) RowOutcome {
	keyField := e.target.KeyField()
	raw, _ := mapping.Value(row, keyField)
	raw = textnorm.Cell(raw)
	key := e.target.NormalizeKey(raw)
	if key == "" {
		return skipped("", fmt.Sprintf("%s is empty", keyField))
	}
	if _, dup := seen[key]; dup {
		return skipped(raw, "duplicate in file")
	}
	seen[key] = struct{}{}

	values, err := e.target.Prepare(mapping, row)
	if err != nil {
		return skipped(raw, err.Error())
	}

	entry, found := index.Get(key)
	if !found {
		id, err := e.target.Insert(ctx, key, values)
		switch {
		case err == nil:
			index.Put(key, &Entry{ID: id, Values: values})
			e.target.AfterWrite(ctx, key, id, values)
			return RowOutcome{Key: raw, Status: StatusCreated}
		case errors.Is(err, store.ErrDuplicate):
			// a concurrent writer created the key after the index was loaded
			entry, err = e.target.Requery(ctx, key)
			if err != nil || entry == nil {
				log.Warn("requery after duplicate insert failed", zap.String("key", raw), zap.Error(err))
				return skipped(raw, reasonPersistFailed)
			}
			index.Put(key, entry)
		default:
			log.Error("insert failed", zap.String("key", raw), zap.Error(err))
			return skipped(raw, reasonPersistFailed)
		}
	}

	patch := diff(entry.Values, values)
	// the display spelling of the natural key stays as first written
	delete(patch, keyField)
	if len(patch) == 0 {
		return RowOutcome{Key: raw, Status: StatusUnchanged}
	}
	if err := e.target.Update(ctx, entry.ID, patch); err != nil {
		log.Error("update failed", zap.String("key", raw), zap.Int64("id", entry.ID), zap.Error(err))
		return skipped(raw, reasonPersistFailed)
	}
	for f, v := range patch {
		entry.Values[f] = v
	}
	e.target.AfterWrite(ctx, key, entry.ID, patch)
	return RowOutcome{Key: raw, Status: StatusUpdated}
}

func skipped(key, reason string) RowOutcome {
	return RowOutcome{Key: key, Status: StatusSkipped, Reason: reason}
}
