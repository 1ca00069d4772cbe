package pgstore

import (
	"context"
	"encoding/json"
	"errors"

	"OrderOps/internal/store"

	"github.com/jackc/pgx/v5"
)

const templateColumns = `mall_id, display_name, header_row, data_start_row, column_mappings, fixed_values, export_config, enabled, updated_at`

func scanTemplate(row pgx.Row) (*store.Template, error) {
	var (
		t         store.Template
		exportCfg []byte
	)
	if err := row.Scan(&t.MallID, &t.DisplayName, &t.HeaderRow, &t.DataStartRow, &t.ColumnMappings, &t.FixedValues, &exportCfg, &t.Enabled, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if exportCfg != nil {
		t.ExportConfig = json.RawMessage(exportCfg)
	}
	return &t, nil
}

func (s *Store) GetTemplate(ctx context.Context, mallID string) (*store.Template, error) {
	t, err := scanTemplate(s.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM mall_templates WHERE mall_id = $1`, mallID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return t, err
}

func (s *Store) ListTemplates(ctx context.Context) ([]store.Template, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+templateColumns+` FROM mall_templates ORDER BY mall_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []store.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) SaveTemplate(ctx context.Context, t *store.Template) error {
	mappings := t.ColumnMappings
	if mappings == nil {
		mappings = map[string]string{}
	}
	fixed := t.FixedValues
	if fixed == nil {
		fixed = map[string]string{}
	}
	var exportCfg any
	if len(t.ExportConfig) > 0 {
		exportCfg = t.ExportConfig
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO mall_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (mall_id) DO UPDATE SET
			display_name = excluded.display_name,
			header_row = excluded.header_row,
			data_start_row = excluded.data_start_row,
			column_mappings = excluded.column_mappings,
			fixed_values = excluded.fixed_values,
			export_config = excluded.export_config,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`,
		t.MallID, t.DisplayName, t.HeaderRow, t.DataStartRow, mappings, fixed, exportCfg, t.Enabled, s.now())
	return err
}
