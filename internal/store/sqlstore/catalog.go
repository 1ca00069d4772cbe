package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"OrderOps/internal/store"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const manufacturerColumns = `id, name, name_key, contact_name, phone, email, address, memo, created_at, updated_at`

func scanManufacturer(row interface{ Scan(...any) error }) (*store.Manufacturer, error) {
	var m store.Manufacturer
	if err := row.Scan(&m.ID, &m.Name, &m.NameKey, &m.ContactName, &m.Phone, &m.Email, &m.Address, &m.Memo, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListManufacturers(ctx context.Context) ([]store.Manufacturer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+manufacturerColumns+` FROM manufacturers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Manufacturer
	for rows.Next() {
		m, err := scanManufacturer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *Store) FindManufacturerByKey(ctx context.Context, nameKey string) (*store.Manufacturer, error) {
	m, err := scanManufacturer(s.db.QueryRowContext(ctx, `SELECT `+manufacturerColumns+` FROM manufacturers WHERE name_key = $1`, nameKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return m, err
}

func (s *Store) InsertManufacturer(ctx context.Context, m *store.Manufacturer) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO manufacturers (name, name_key, contact_name, phone, email, address, memo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id`,
		m.Name, m.NameKey, m.ContactName, m.Phone, m.Email, m.Address, m.Memo, s.now(),
	).Scan(&id)
	if isDuplicate(err) {
		return 0, store.ErrDuplicate
	}
	return id, err
}

func (s *Store) UpdateManufacturer(ctx context.Context, id int64, p store.ManufacturerPatch) error {
	var a assignments
	if p.ContactName != nil {
		a.add("contact_name", *p.ContactName)
	}
	if p.Phone != nil {
		a.add("phone", *p.Phone)
	}
	if p.Email != nil {
		a.add("email", *p.Email)
	}
	if p.Address != nil {
		a.add("address", *p.Address)
	}
	if p.Memo != nil {
		a.add("memo", *p.Memo)
	}
	return s.execUpdate(ctx, "manufacturers", id, &a)
}

const productColumns = `id, product_code, code_key, product_name, option_name, manufacturer_id,
	CAST(cost AS TEXT), CAST(price AS TEXT), memo, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*store.Product, error) {
	var (
		p           store.Product
		mfr         sql.NullInt64
		cost, price sql.NullString
	)
	if err := row.Scan(&p.ID, &p.ProductCode, &p.CodeKey, &p.ProductName, &p.OptionName, &mfr, &cost, &price, &p.Memo, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ManufacturerID = ptrInt64(mfr)
	var err error
	if p.Cost, err = parseDecimal(cost); err != nil {
		return nil, fmt.Errorf("product %d cost: %w", p.ID, err)
	}
	if p.Price, err = parseDecimal(price); err != nil {
		return nil, fmt.Errorf("product %d price: %w", p.ID, err)
	}
	return &p, nil
}

func parseDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func (s *Store) ListProducts(ctx context.Context) ([]store.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) FindProductByKey(ctx context.Context, codeKey string) (*store.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE code_key = $1`, codeKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return p, err
}

func (s *Store) InsertProduct(ctx context.Context, p *store.Product) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO products (product_code, code_key, product_name, option_name, manufacturer_id, cost, price, memo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id`,
		p.ProductCode, p.CodeKey, p.ProductName, p.OptionName, nullInt64(p.ManufacturerID),
		decimalArg(p.Cost), decimalArg(p.Price), p.Memo, s.now(),
	).Scan(&id)
	if isDuplicate(err) {
		return 0, store.ErrDuplicate
	}
	return id, err
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, p store.ProductPatch) error {
	var a assignments
	if p.ProductName != nil {
		a.add("product_name", *p.ProductName)
	}
	if p.OptionName != nil {
		a.add("option_name", *p.OptionName)
	}
	if p.ManufacturerID != nil {
		a.add("manufacturer_id", *p.ManufacturerID)
	}
	if p.Cost != nil {
		a.add("cost", p.Cost.String())
	}
	if p.Price != nil {
		a.add("price", p.Price.String())
	}
	if p.Memo != nil {
		a.add("memo", *p.Memo)
	}
	return s.execUpdate(ctx, "products", id, &a)
}

// sqlite caps bound parameters per statement, so IN lists are chunked.
const inListChunk = 500

func (s *Store) ManufacturerIDsByProductKeys(ctx context.Context, codeKeys []string) (map[string]int64, error) {
	out := make(map[string]int64)
	if s.dialect == Postgres {
		if len(codeKeys) == 0 {
			return out, nil
		}
		err := s.collectManufacturerIDs(ctx, out,
			`SELECT code_key, manufacturer_id FROM products WHERE manufacturer_id IS NOT NULL AND code_key = ANY($1)`,
			pq.Array(codeKeys))
		return out, err
	}
	for start := 0; start < len(codeKeys); start += inListChunk {
		chunk := codeKeys[start:min(start+inListChunk, len(codeKeys))]
		marks := make([]string, len(chunk))
		args := make([]any, len(chunk))
		for i, k := range chunk {
			marks[i] = fmt.Sprintf("$%d", i+1)
			args[i] = k
		}
		q := `SELECT code_key, manufacturer_id FROM products WHERE manufacturer_id IS NOT NULL AND code_key IN (` + strings.Join(marks, ", ") + `)`
		if err := s.collectManufacturerIDs(ctx, out, q, args...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) collectManufacturerIDs(ctx context.Context, out map[string]int64, q string, args ...any) error {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			id  int64
		)
		if err := rows.Scan(&key, &id); err != nil {
			return err
		}
		out[key] = id
	}
	return rows.Err()
}
