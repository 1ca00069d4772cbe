package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"OrderOps/internal/store"
)

func (s *Store) BackfillManufacturer(ctx context.Context, productKey string, manufacturerID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE order_lines SET manufacturer_id = $1
		WHERE product_key = $2 AND manufacturer_id IS NULL AND status <> $3`,
		manufacturerID, productKey, store.OrderLineCompleted)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) BackfillAllManufacturers(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE order_lines
		SET manufacturer_id = (
			SELECT p.manufacturer_id FROM products p WHERE p.code_key = order_lines.product_key
		)
		WHERE manufacturer_id IS NULL
		  AND status <> $1
		  AND EXISTS (
			SELECT 1 FROM products p
			WHERE p.code_key = order_lines.product_key AND p.manufacturer_id IS NOT NULL
		  )`, store.OrderLineCompleted)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ListOrderLines(ctx context.Context, uploadID int64) ([]store.OrderLine, error) {
	rows, err := s.db.QueryContext(ctx, `
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
		var (
			l   store.OrderLine
			mfr sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.UploadID, &l.SourceRow, &l.OrderNumber, &l.OrderDate, &l.ProductCode, &l.ProductKey,
			&l.ProductName, &l.OptionName, &l.Quantity, &l.RecipientName, &l.RecipientPhone, &l.Address,
			&l.PostalCode, &l.DeliveryMemo, &mfr, &l.Status); err != nil {
			return nil, err
		}
		l.ManufacturerID = ptrInt64(mfr)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) SaveMallUpload(ctx context.Context, u *store.Upload, lines []store.OrderLine) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	uploadedAt := u.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = s.now()
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO uploads (kind, mall_id, file_name, file_hash, uploaded_by, uploaded_at, total_rows, accepted_rows, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		u.Kind, u.MallID, u.FileName, u.FileHash, u.UploadedBy, uploadedAt, u.TotalRows, u.AcceptedRows, nullJSON(u.Snapshot),
	).Scan(&id)
	if isDuplicate(err) {
		return 0, store.ErrDuplicate
	}
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_lines (upload_id, source_row, order_number, order_date, product_code, product_key, product_name,
		                         option_name, quantity, recipient_name, recipient_phone, address, postal_code,
		                         delivery_memo, manufacturer_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, l := range lines {
		status := l.Status
		if status == "" {
			status = store.OrderLinePending
		}
		if _, err = stmt.ExecContext(ctx, id, l.SourceRow, l.OrderNumber, l.OrderDate, l.ProductCode, l.ProductKey,
			l.ProductName, l.OptionName, l.Quantity, l.RecipientName, l.RecipientPhone, l.Address, l.PostalCode,
			l.DeliveryMemo, nullInt64(l.ManufacturerID), status); err != nil {
			return 0, err
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// nullJSON passes JSON documents as text; lib/pq would send []byte as bytea.
func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

const uploadColumns = `id, kind, mall_id, file_name, file_hash, uploaded_by, uploaded_at, total_rows, accepted_rows, snapshot`

func scanUpload(row interface{ Scan(...any) error }) (*store.Upload, error) {
	var (
		u    store.Upload
		snap sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Kind, &u.MallID, &u.FileName, &u.FileHash, &u.UploadedBy, &u.UploadedAt,
		&u.TotalRows, &u.AcceptedRows, &snap); err != nil {
		return nil, err
	}
	if snap.Valid {
		u.Snapshot = []byte(snap.String)
	}
	return &u, nil
}

func (s *Store) GetUpload(ctx context.Context, id int64) (*store.Upload, error) {
	u, err := scanUpload(s.db.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return u, err
}

func (s *Store) FindUploadByHash(ctx context.Context, mallID, fileHash string) (*store.Upload, error) {
	u, err := scanUpload(s.db.QueryRowContext(ctx,
		`SELECT `+uploadColumns+` FROM uploads WHERE mall_id = $1 AND file_hash = $2`, mallID, fileHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return u, err
}

// ListUploads pages uploads newest first. An empty mallID lists every mall.
// Snapshots are not loaded.
func (s *Store) ListUploads(ctx context.Context, mallID string, limit, offset int) ([]store.Upload, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM uploads WHERE ($1 = '' OR mall_id = $1)`, mallID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, mall_id, file_name, file_hash, uploaded_by, uploaded_at, total_rows, accepted_rows, NULL
		FROM uploads WHERE ($1 = '' OR mall_id = $1)
		ORDER BY id DESC LIMIT $2 OFFSET $3`, mallID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []store.Upload{}
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}
