package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"OrderOps/internal/store"
)

const templateColumns = `mall_id, display_name, header_row, data_start_row, column_mappings, fixed_values, export_config, enabled, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (*store.Template, error) {
	var (
		t              store.Template
		mappings, vals string
		exportCfg      sql.NullString
	)
	if err := row.Scan(&t.MallID, &t.DisplayName, &t.HeaderRow, &t.DataStartRow, &mappings, &vals, &exportCfg, &t.Enabled, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(mappings), &t.ColumnMappings); err != nil {
		return nil, fmt.Errorf("template %s column mappings: %w", t.MallID, err)
	}
	if err := json.Unmarshal([]byte(vals), &t.FixedValues); err != nil {
		return nil, fmt.Errorf("template %s fixed values: %w", t.MallID, err)
	}
	if exportCfg.Valid {
		t.ExportConfig = json.RawMessage(exportCfg.String)
	}
	return &t, nil
}

func (s *Store) GetTemplate(ctx context.Context, mallID string) (*store.Template, error) {
	t, err := scanTemplate(s.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM mall_templates WHERE mall_id = $1`, mallID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return t, err
}

func (s *Store) ListTemplates(ctx context.Context) ([]store.Template, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM mall_templates ORDER BY mall_id`)
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

// SaveTemplate inserts or replaces the template of t.MallID.
func (s *Store) SaveTemplate(ctx context.Context, t *store.Template) error {
	mappings, vals, err := templateJSON(t)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
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
		t.MallID, t.DisplayName, t.HeaderRow, t.DataStartRow, mappings, vals, nullJSON(t.ExportConfig), t.Enabled, s.now())
	return err
}

func templateJSON(t *store.Template) (mappings, vals string, err error) {
	m := t.ColumnMappings
	if m == nil {
		m = map[string]string{}
	}
	v := t.FixedValues
	if v == nil {
		v = map[string]string{}
	}
	mb, err := json.Marshal(m)
	if err != nil {
		return "", "", err
	}
	vb, err := json.Marshal(v)
	if err != nil {
		return "", "", err
	}
	return string(mb), string(vb), nil
}
