package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"OrderOps/internal/metrics"
	"OrderOps/internal/store"
	"OrderOps/internal/textnorm"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductBackend is the slice of the store a product import touches.
type ProductBackend interface {
	store.ProductStore
	store.ManufacturerStore
	store.OrderLineStore
}

// ProductTarget reconciles product catalogs keyed by product code. A
// manufacturer name column must resolve to a registered manufacturer.
type ProductTarget struct {
	store         ProductBackend
	log           *zap.Logger
	manufacturers map[string]int64
}

func NewProductTarget(s ProductBackend, log *zap.Logger) *ProductTarget {
	if log == nil {
		log = zap.L()
	}
	return &ProductTarget{store: s, log: log}
}

func (t *ProductTarget) Kind() Kind                     { return KindProduct }
func (t *ProductTarget) KeyField() Field                { return FieldProductCode }
func (t *ProductTarget) NormalizeKey(raw string) string { return textnorm.Code(raw) }

func (t *ProductTarget) Load(ctx context.Context) (*Index, error) {
	mfrs, err := t.store.ListManufacturers(ctx)
	if err != nil {
		return nil, err
	}
	t.manufacturers = make(map[string]int64, len(mfrs))
	for _, m := range mfrs {
		t.manufacturers[textnorm.Name(m.Name)] = m.ID
	}
	products, err := t.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	ix := NewIndex()
	for i := range products {
		p := &products[i]
		ix.Put(textnorm.Code(p.ProductCode), productEntry(p))
	}
	return ix, nil
}

func productEntry(p *store.Product) *Entry {
	v := make(map[Field]string, 7)
	setIfPresent(v, FieldProductCode, p.ProductCode)
	setIfPresent(v, FieldProductName, p.ProductName)
	setIfPresent(v, FieldOptionName, p.OptionName)
	setIfPresent(v, FieldMemo, p.Memo)
	if p.ManufacturerID != nil {
		v[FieldManufacturerID] = strconv.FormatInt(*p.ManufacturerID, 10)
	}
	if p.Cost != nil {
		v[FieldCost] = p.Cost.String()
	}
	if p.Price != nil {
		v[FieldPrice] = p.Price.String()
	}
	return &Entry{ID: p.ID, Values: v}
}

func (t *ProductTarget) Prepare(m HeaderMapping, row []string) (map[Field]string, error) {
	v := make(map[Field]string, 7)
	for _, f := range []Field{FieldProductCode, FieldProductName, FieldOptionName, FieldMemo} {
		cell, _ := m.Value(row, f)
		setIfPresent(v, f, textnorm.Cell(cell))
	}
	for _, f := range []Field{FieldCost, FieldPrice} {
		cell, _ := m.Value(row, f)
		cell = textnorm.Cell(cell)
		if cell == "" {
			continue
		}
		d, err := ParseMoney(cell)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %v", f, cell, err)
		}
		v[f] = d.String()
	}
	if name, _ := m.Value(row, FieldManufacturerName); textnorm.Cell(name) != "" {
		name = textnorm.Cell(name)
		id, ok := t.manufacturers[textnorm.Name(name)]
		if !ok {
			return nil, fmt.Errorf("%s not found", name)
		}
		v[FieldManufacturerID] = strconv.FormatInt(id, 10)
	}
	return v, nil
}

func (t *ProductTarget) Insert(ctx context.Context, key string, v map[Field]string) (int64, error) {
	p := &store.Product{
		ProductCode: v[FieldProductCode],
		CodeKey:     key,
		ProductName: v[FieldProductName],
		OptionName:  v[FieldOptionName],
		Memo:        v[FieldMemo],
	}
	var err error
	if p.ManufacturerID, err = optionalID(v, FieldManufacturerID); err != nil {
		return 0, err
	}
	if p.Cost, err = optionalDecimal(v, FieldCost); err != nil {
		return 0, err
	}
	if p.Price, err = optionalDecimal(v, FieldPrice); err != nil {
		return 0, err
	}
	return t.store.InsertProduct(ctx, p)
}

func (t *ProductTarget) Requery(ctx context.Context, key string) (*Entry, error) {
	p, err := t.store.FindProductByKey(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return productEntry(p), nil
}

func (t *ProductTarget) Update(ctx context.Context, id int64, patch map[Field]string) error {
	var p store.ProductPatch
	var err error
	for f, val := range patch {
		val := val
		switch f {
		case FieldProductName:
			p.ProductName = &val
		case FieldOptionName:
			p.OptionName = &val
		case FieldMemo:
			p.Memo = &val
		case FieldManufacturerID:
			p.ManufacturerID, err = optionalID(patch, f)
		case FieldCost:
			p.Cost, err = optionalDecimal(patch, f)
		case FieldPrice:
			p.Price, err = optionalDecimal(patch, f)
		default:
			err = fmt.Errorf("product field %s is not patchable", f)
		}
		if err != nil {
			return err
		}
	}
	return t.store.UpdateProduct(ctx, id, p)
}

// AfterWrite stamps the product's manufacturer onto open order lines that
// were ingested before the product knew its manufacturer. Failures are
// logged and never fail the row.
func (t *ProductTarget) AfterWrite(ctx context.Context, key string, _ int64, written map[Field]string) {
	mfr, err := optionalID(written, FieldManufacturerID)
	if err != nil || mfr == nil {
		return
	}
	n, err := t.store.BackfillManufacturer(ctx, key, *mfr)
	if err != nil {
		t.log.Warn("order line backfill failed", zap.String("product_key", key), zap.Int64("manufacturer_id", *mfr), zap.Error(err))
		return
	}
	metrics.AddBackfilled(n)
	if n > 0 {
		t.log.Info("order lines backfilled", zap.String("product_key", key), zap.Int64("manufacturer_id", *mfr), zap.Int64("lines", n))
	}
}

func optionalID(v map[Field]string, f Field) (*int64, error) {
	s, ok := v[f]
	if !ok || s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f, err)
	}
	return &id, nil
}

func optionalDecimal(v map[Field]string, f Field) (*decimal.Decimal, error) {
	s, ok := v[f]
	if !ok || s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f, err)
	}
	return &d, nil
}
