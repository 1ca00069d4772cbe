package ingest

import (
	"context"
	"errors"
	"fmt"

	"OrderOps/internal/store"
	"OrderOps/internal/textnorm"
)

// ManufacturerTarget reconciles manufacturer rosters keyed by name.
type ManufacturerTarget struct {
	store store.ManufacturerStore
}

func NewManufacturerTarget(s store.ManufacturerStore) *ManufacturerTarget {
	return &ManufacturerTarget{store: s}
}

func (t *ManufacturerTarget) Kind() Kind                     { return KindManufacturer }
func (t *ManufacturerTarget) KeyField() Field                { return FieldName }
func (t *ManufacturerTarget) NormalizeKey(raw string) string { return textnorm.Name(raw) }

func (t *ManufacturerTarget) Load(ctx context.Context) (*Index, error) {
	rows, err := t.store.ListManufacturers(ctx)
	if err != nil {
		return nil, err
	}
	ix := NewIndex()
	for i := range rows {
		m := &rows[i]
		ix.Put(textnorm.Name(m.Name), manufacturerEntry(m))
	}
	return ix, nil
}

func manufacturerEntry(m *store.Manufacturer) *Entry {
	v := make(map[Field]string, 6)
	setIfPresent(v, FieldName, m.Name)
	setIfPresent(v, FieldContactName, m.ContactName)
	setIfPresent(v, FieldPhone, m.Phone)
	setIfPresent(v, FieldEmail, m.Email)
	setIfPresent(v, FieldAddress, m.Address)
	setIfPresent(v, FieldMemo, m.Memo)
	return &Entry{ID: m.ID, Values: v}
}

func (t *ManufacturerTarget) Prepare(m HeaderMapping, row []string) (map[Field]string, error) {
	v := make(map[Field]string, 6)
	for _, f := range []Field{FieldName, FieldContactName, FieldPhone, FieldEmail, FieldAddress, FieldMemo} {
		cell, _ := m.Value(row, f)
		setIfPresent(v, f, textnorm.Cell(cell))
	}
	if email, ok := v[FieldEmail]; ok {
		if err := validEmail(email); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (t *ManufacturerTarget) Insert(ctx context.Context, key string, v map[Field]string) (int64, error) {
	return t.store.InsertManufacturer(ctx, &store.Manufacturer{
		Name:        v[FieldName],
		NameKey:     key,
		ContactName: v[FieldContactName],
		Phone:       v[FieldPhone],
		Email:       v[FieldEmail],
		Address:     v[FieldAddress],
		Memo:        v[FieldMemo],
	})
}

func (t *ManufacturerTarget) Requery(ctx context.Context, key string) (*Entry, error) {
	m, err := t.store.FindManufacturerByKey(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return manufacturerEntry(m), nil
}

func (t *ManufacturerTarget) Update(ctx context.Context, id int64, patch map[Field]string) error {
	var p store.ManufacturerPatch
	for f, val := range patch {
		val := val
		switch f {
		case FieldContactName:
			p.ContactName = &val
		case FieldPhone:
			p.Phone = &val
		case FieldEmail:
			p.Email = &val
		case FieldAddress:
			p.Address = &val
		case FieldMemo:
			p.Memo = &val
		default:
			return fmt.Errorf("manufacturer field %s is not patchable", f)
		}
	}
	return t.store.UpdateManufacturer(ctx, id, p)
}

func (t *ManufacturerTarget) AfterWrite(context.Context, string, int64, map[Field]string) {}
