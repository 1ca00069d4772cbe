package ingest

import (
	"context"
	"sync"

	"OrderOps/internal/store"
	"OrderOps/internal/textnorm"
)

// memStore is an in-memory ProductBackend.
type memStore struct {
	mu            sync.Mutex
	nextID        int64
	manufacturers map[int64]*store.Manufacturer
	products      map[int64]*store.Product
	lines         []store.OrderLine

	insertErr    error
	updateErr    error
	backfillErr  error
	backfillHits []string
	afterInsert  func()
}

func newMemStore() *memStore {
	return &memStore{
		manufacturers: map[int64]*store.Manufacturer{},
		products:      map[int64]*store.Product{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) ListManufacturers(context.Context) ([]store.Manufacturer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Manufacturer, 0, len(s.manufacturers))
	for _, m := range s.manufacturers {
		out = append(out, *m)
	}
	return out, nil
}

func (s *memStore) FindManufacturerByKey(_ context.Context, key string) (*store.Manufacturer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.manufacturers {
		if textnorm.Name(m.Name) == key {
			cp := *m
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) InsertManufacturer(ctx context.Context, m *store.Manufacturer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.afterInsert != nil {
		defer s.afterInsert()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	for _, existing := range s.manufacturers {
		if existing.NameKey == m.NameKey {
			return 0, store.ErrDuplicate
		}
	}
	cp := *m
	cp.ID = s.id()
	s.manufacturers[cp.ID] = &cp
	return cp.ID, nil
}

func (s *memStore) UpdateManufacturer(_ context.Context, id int64, p store.ManufacturerPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	m, ok := s.manufacturers[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.ContactName != nil {
		m.ContactName = *p.ContactName
	}
	if p.Phone != nil {
		m.Phone = *p.Phone
	}
	if p.Email != nil {
		m.Email = *p.Email
	}
	if p.Address != nil {
		m.Address = *p.Address
	}
	if p.Memo != nil {
		m.Memo = *p.Memo
	}
	return nil
}

func (s *memStore) ListProducts(context.Context) ([]store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *memStore) FindProductByKey(_ context.Context, key string) (*store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.CodeKey == key {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) InsertProduct(_ context.Context, p *store.Product) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	for _, existing := range s.products {
		if existing.CodeKey == p.CodeKey {
			return 0, store.ErrDuplicate
		}
	}
	cp := *p
	cp.ID = s.id()
	s.products[cp.ID] = &cp
	return cp.ID, nil
}

func (s *memStore) UpdateProduct(_ context.Context, id int64, patch store.ProductPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return store.ErrNotFound
	}
	if patch.ProductName != nil {
		p.ProductName = *patch.ProductName
	}
	if patch.OptionName != nil {
		p.OptionName = *patch.OptionName
	}
	if patch.Memo != nil {
		p.Memo = *patch.Memo
	}
	if patch.ManufacturerID != nil {
		p.ManufacturerID = patch.ManufacturerID
	}
	if patch.Cost != nil {
		p.Cost = patch.Cost
	}
	if patch.Price != nil {
		p.Price = patch.Price
	}
	return nil
}

func (s *memStore) BackfillManufacturer(_ context.Context, productKey string, mfr int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backfillHits = append(s.backfillHits, productKey)
	if s.backfillErr != nil {
		return 0, s.backfillErr
	}
	var n int64
	for i := range s.lines {
		l := &s.lines[i]
		if l.ProductKey == productKey && l.ManufacturerID == nil && l.Status != store.OrderLineCompleted {
			id := mfr
			l.ManufacturerID = &id
			n++
		}
	}
	return n, nil
}

func (s *memStore) BackfillAllManufacturers(context.Context) (int64, error) { return 0, nil }

func (s *memStore) ListOrderLines(_ context.Context, uploadID int64) ([]store.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.OrderLine
	for _, l := range s.lines {
		if l.UploadID == uploadID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memStore) ManufacturerIDsByProductKeys(_ context.Context, keys []string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int64{}
	for _, k := range keys {
		for _, p := range s.products {
			if p.CodeKey == k && p.ManufacturerID != nil {
				out[k] = *p.ManufacturerID
			}
		}
	}
	return out, nil
}
