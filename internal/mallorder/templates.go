package mallorder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"OrderOps/internal/export"
	"OrderOps/internal/ingest"
	"OrderOps/internal/store"
)

var ErrInvalidTemplate = errors.New("invalid mall template")

func (s *Service) Templates(ctx context.Context) ([]store.Template, error) {
	return s.store.ListTemplates(ctx)
}

// Template returns the template of mallID whether or not it is enabled.
func (s *Service) Template(ctx context.Context, mallID string) (*store.Template, error) {
	tpl, err := s.store.GetTemplate(ctx, mallID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMall, mallID)
	}
	return tpl, err
}

// SaveTemplate validates t and stores it. The export config is checked
// with the same rules export applies, so a stored config always replays.
func (s *Service) SaveTemplate(ctx context.Context, t *store.Template) error {
	if err := ValidateTemplate(t); err != nil {
		return err
	}
	return s.store.SaveTemplate(ctx, t)
}

func ValidateTemplate(t *store.Template) error {
	t.MallID = strings.TrimSpace(t.MallID)
	t.DisplayName = strings.TrimSpace(t.DisplayName)
	switch {
	case t.MallID == "":
		return fmt.Errorf("%w: mallId is required", ErrInvalidTemplate)
	case t.DisplayName == "":
		return fmt.Errorf("%w: displayName is required", ErrInvalidTemplate)
	case t.HeaderRow < 0 || t.DataStartRow < 0:
		return fmt.Errorf("%w: row numbers must not be negative", ErrInvalidTemplate)
	case t.HeaderRow > 0 && t.DataStartRow > 0 && t.DataStartRow <= t.HeaderRow:
		return fmt.Errorf("%w: %v", ErrInvalidTemplate, ErrInvalidDataStart)
	}
	if _, err := ingest.MappingFromLetters(t.ColumnMappings); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	fixed := make(map[string]string, len(t.FixedValues))
	for ref, v := range t.FixedValues {
		cell, err := export.CellRef(ref)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
		fixed[cell] = v
	}
	t.FixedValues = fixed
	if len(t.ExportConfig) > 0 && string(t.ExportConfig) != "null" {
		if _, err := export.ParseConfig(t.ExportConfig); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
	} else {
		t.ExportConfig = nil
	}
	return nil
}
