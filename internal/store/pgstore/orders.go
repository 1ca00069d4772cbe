package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"OrderOps/internal/store"

	"github.com/jackc/pgx/v5"
)

func (s *Store) BackfillManufacturer(ctx context.Context, productKey string, manufacturerID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE order_lines SET manufacturer_id = $1
		WHERE product_key = $2 AND manufacturer_id IS NULL AND status <> $3`,
		manufacturerID, productKey, store.OrderLineCompleted)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) BackfillAllManufacturers(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE order_lines ol
		SET manufacturer_id = p.manufacturer_id
		FROM products p
		WHERE p.code_key = ol.product_key
		  AND p.manufacturer_id IS NOT NULL
		  AND ol.manufacturer_id IS NULL
		  AND ol.status <> $1`, store.OrderLineCompleted)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) ListOrderLines(ctx context.Context, uploadID int64) ([]store.OrderLine, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, upload_id, source_row, order_number, order_date, product_code, product_key, product_name,
		       option_name, quantity, recipient_name, recipient_phone, address, postal_code, delivery_memo,
		       manufacturer_id, status
		FROM order_lines WHERE upload_id = $1 ORDER BY source_row`, uploadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.OrderLine
	for rows.Next() {
		var l store.OrderLine
		if err := rows.Scan(&l.ID, &l.UploadID, &l.SourceRow, &l.OrderNumber, &l.OrderDate, &l.ProductCode, &l.ProductKey,
			&l.ProductName, &l.OptionName, &l.Quantity, &l.RecipientName, &l.RecipientPhone, &l.Address,
			&l.PostalCode, &l.DeliveryMemo, &l.ManufacturerID, &l.Status); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

var orderLineColumns = []string{
	"upload_id", "source_row", "order_number", "order_date", "product_code", "product_key", "product_name",
	"option_name", "quantity", "recipient_name", "recipient_phone", "address", "postal_code", "delivery_memo",
	"manufacturer_id", "status",
}

// SaveMallUpload inserts the upload row and bulk-copies its order lines in
// one transaction.
func (s *Store) SaveMallUpload(ctx context.Context, u *store.Upload, lines []store.OrderLine) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	uploadedAt := u.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = s.now()
	}
	var snap any
	if len(u.Snapshot) > 0 {
		snap = json.RawMessage(u.Snapshot)
	}
	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO uploads (kind, mall_id, file_name, file_hash, uploaded_by, uploaded_at, total_rows, accepted_rows, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		u.Kind, u.MallID, u.FileName, u.FileHash, u.UploadedBy, uploadedAt, u.TotalRows, u.AcceptedRows, snap,
	).Scan(&id)
	if isDuplicate(err) {
		return 0, store.ErrDuplicate
	}
	if err != nil {
		return 0, err
	}

	copyRows := make([][]any, 0, len(lines))
	for _, l := range lines {
		status := l.Status
		if status == "" {
			status = store.OrderLinePending
		}
		copyRows = append(copyRows, []any{
			id, l.SourceRow, l.OrderNumber, l.OrderDate, l.ProductCode, l.ProductKey, l.ProductName,
			l.OptionName, l.Quantity, l.RecipientName, l.RecipientPhone, l.Address, l.PostalCode, l.DeliveryMemo,
			l.ManufacturerID, status,
		})
	}
	if len(copyRows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"order_lines"}, orderLineColumns, pgx.CopyFromRows(copyRows)); err != nil {
			return 0, fmt.Errorf("copy order lines: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

const uploadColumns = `id, kind, mall_id, file_name, file_hash, uploaded_by, uploaded_at, total_rows, accepted_rows`

func scanUpload(row pgx.Row, withSnapshot bool) (*store.Upload, error) {
	var u store.Upload
	dest := []any{&u.ID, &u.Kind, &u.MallID, &u.FileName, &u.FileHash, &u.UploadedBy, &u.UploadedAt, &u.TotalRows, &u.AcceptedRows}
	if withSnapshot {
		dest = append(dest, &u.Snapshot)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUpload(ctx context.Context, id int64) (*store.Upload, error) {
	u, err := scanUpload(s.pool.QueryRow(ctx, `SELECT `+uploadColumns+`, snapshot FROM uploads WHERE id = $1`, id), true)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return u, err
}

func (s *Store) FindUploadByHash(ctx context.Context, mallID, fileHash string) (*store.Upload, error) {
	u, err := scanUpload(s.pool.QueryRow(ctx,
		`SELECT `+uploadColumns+` FROM uploads WHERE mall_id = $1 AND file_hash = $2`, mallID, fileHash), false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return u, err
}

func (s *Store) ListUploads(ctx context.Context, mallID string, limit, offset int) ([]store.Upload, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM uploads WHERE ($1 = '' OR mall_id = $1)`, mallID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+uploadColumns+` FROM uploads WHERE ($1 = '' OR mall_id = $1)
		ORDER BY id DESC LIMIT $2 OFFSET $3`, mallID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []store.Upload{}
	for rows.Next() {
		u, err := scanUpload(rows, false)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}
