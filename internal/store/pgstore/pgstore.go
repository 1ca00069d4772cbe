// Package pgstore is the production store.Store on a pgx connection pool.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"OrderOps/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open creates the pool and checks connectivity.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgxpool ping: %w", err)
	}
	return New(pool), nil
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range store.Schema("postgres") {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type assignments struct {
	cols []string
	args []any
}

func (a *assignments) add(col string, v any) {
	a.args = append(a.args, v)
	a.cols = append(a.cols, fmt.Sprintf("%s = $%d", col, len(a.args)))
}

// sql renders the UPDATE of row id; ok is false when nothing changes.
func (a *assignments) sql(table string, id int64, now time.Time) (q string, args []any, ok bool) {
	if len(a.cols) == 0 {
		return "", nil, false
	}
	a.add("updated_at", now)
	args = append(a.args, id)
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(a.cols, ", "), len(args)), args, true
}

func (s *Store) execUpdate(ctx context.Context, table string, id int64, a *assignments) error {
	q, args, ok := a.sql(table, id, s.now())
	if !ok {
		return nil
	}
	tag, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const manufacturerColumns = `id, name, name_key, contact_name, phone, email, address, memo, created_at, updated_at`

func scanManufacturer(row pgx.Row) (*store.Manufacturer, error) {
	var m store.Manufacturer
	if err := row.Scan(&m.ID, &m.Name, &m.NameKey, &m.ContactName, &m.Phone, &m.Email, &m.Address, &m.Memo, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListManufacturers(ctx context.Context) ([]store.Manufacturer, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+manufacturerColumns+` FROM manufacturers ORDER BY id`)
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
	m, err := scanManufacturer(s.pool.QueryRow(ctx, `SELECT `+manufacturerColumns+` FROM manufacturers WHERE name_key = $1`, nameKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return m, err
}

func (s *Store) InsertManufacturer(ctx context.Context, m *store.Manufacturer) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO manufacturers (name, name_key, contact_name, phone, email, address, memo)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		m.Name, m.NameKey, m.ContactName, m.Phone, m.Email, m.Address, m.Memo,
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

// numerics travel as text so no precision is lost on either side
const productColumns = `id, product_code, code_key, product_name, option_name, manufacturer_id,
	cost::text, price::text, memo, created_at, updated_at`

func scanProduct(row pgx.Row) (*store.Product, error) {
	var (
		p           store.Product
		cost, price *string
	)
	if err := row.Scan(&p.ID, &p.ProductCode, &p.CodeKey, &p.ProductName, &p.OptionName, &p.ManufacturerID, &cost, &price, &p.Memo, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.Cost, err = parseDecimal(cost); err != nil {
		return nil, fmt.Errorf("product %d cost: %w", p.ID, err)
	}
	if p.Price, err = parseDecimal(price); err != nil {
		return nil, fmt.Errorf("product %d price: %w", p.ID, err)
	}
	return &p, nil
}

func parseDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func (s *Store) ListProducts(ctx context.Context) ([]store.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
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
	p, err := scanProduct(s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE code_key = $1`, codeKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return p, err
}

func (s *Store) InsertProduct(ctx context.Context, p *store.Product) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (product_code, code_key, product_name, option_name, manufacturer_id, cost, price, memo)
		VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7::text::numeric, $8)
		RETURNING id`,
		p.ProductCode, p.CodeKey, p.ProductName, p.OptionName, p.ManufacturerID,
		decimalText(p.Cost), decimalText(p.Price), p.Memo,
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

func (s *Store) ManufacturerIDsByProductKeys(ctx context.Context, codeKeys []string) (map[string]int64, error) {
	out := make(map[string]int64)
	if len(codeKeys) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT code_key, manufacturer_id FROM products WHERE manufacturer_id IS NOT NULL AND code_key = ANY($1)`,
		pq.Array(codeKeys))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			id  int64
		)
		if err := rows.Scan(&key, &id); err != nil {
			return nil, err
		}
		out[key] = id
	}
	return out, rows.Err()
}
