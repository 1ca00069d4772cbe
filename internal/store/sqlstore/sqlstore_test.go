package sqlstore

import (
	"context"
	"encoding/json"
	"testing"

	"OrderOps/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := Open(SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openSQLite(t)
	assert.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.Error(t, err)
}

func TestManufacturerLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	id, err := s.InsertManufacturer(ctx, &store.Manufacturer{Name: "Acme", NameKey: "acme", ContactName: "Kim", Phone: "02-111"})
	require.NoError(t, err)

	_, err = s.InsertManufacturer(ctx, &store.Manufacturer{Name: "ACME", NameKey: "acme"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	phone := "02-222"
	require.NoError(t, s.UpdateManufacturer(ctx, id, store.ManufacturerPatch{Phone: &phone}))
	require.NoError(t, s.UpdateManufacturer(ctx, id, store.ManufacturerPatch{}))
	assert.ErrorIs(t, s.UpdateManufacturer(ctx, 999, store.ManufacturerPatch{Phone: &phone}), store.ErrNotFound)

	m, err := s.FindManufacturerByKey(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Kim", m.ContactName)
	assert.Equal(t, "02-222", m.Phone)
	assert.False(t, m.CreatedAt.IsZero())

	_, err = s.FindManufacturerByKey(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)

	all, err := s.ListManufacturers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProductDecimalsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	mfr, err := s.InsertManufacturer(ctx, &store.Manufacturer{Name: "Acme", NameKey: "acme"})
	require.NoError(t, err)
	cost := decimal.RequireFromString("1234.50")
	id, err := s.InsertProduct(ctx, &store.Product{ProductCode: "AB-1", CodeKey: "ab-1", ProductName: "Widget", ManufacturerID: &mfr, Cost: &cost})
	require.NoError(t, err)

	_, err = s.InsertProduct(ctx, &store.Product{ProductCode: "ab-1", CodeKey: "ab-1"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	price := decimal.NewFromInt(15000)
	require.NoError(t, s.UpdateProduct(ctx, id, store.ProductPatch{Price: &price}))

	p, err := s.FindProductByKey(ctx, "ab-1")
	require.NoError(t, err)
	require.NotNil(t, p.Cost)
	assert.True(t, p.Cost.Equal(cost))
	require.NotNil(t, p.Price)
	assert.True(t, p.Price.Equal(price))
	assert.Equal(t, mfr, *p.ManufacturerID)

	_, err = s.InsertProduct(ctx, &store.Product{ProductCode: "ZZ", CodeKey: "zz"})
	require.NoError(t, err)
	ids, err := s.ManufacturerIDsByProductKeys(ctx, []string{"ab-1", "zz", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"ab-1": mfr}, ids)

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Nil(t, products[1].Cost)
}

func TestMallUploadAndBackfill(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	up := &store.Upload{Kind: store.UploadKindMall, MallID: "coupang", FileName: "orders.xlsx", FileHash: "h1",
		TotalRows: 3, AcceptedRows: 3, Snapshot: []byte(`{"version":1}`)}
	lines := []store.OrderLine{
		{SourceRow: 2, OrderNumber: "O-1", ProductCode: "AB-1", ProductKey: "ab-1", Quantity: 1},
		{SourceRow: 3, OrderNumber: "O-2", ProductCode: "AB-1", ProductKey: "ab-1", Quantity: 2, Status: store.OrderLineCompleted},
		{SourceRow: 4, OrderNumber: "O-3", ProductCode: "CD-2", ProductKey: "cd-2", Quantity: 1},
	}
	uploadID, err := s.SaveMallUpload(ctx, up, lines)
	require.NoError(t, err)

	_, err = s.SaveMallUpload(ctx, &store.Upload{Kind: store.UploadKindMall, MallID: "coupang", FileName: "again.xlsx", FileHash: "h1"}, lines)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := s.GetUpload(ctx, uploadID)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(got.Snapshot))
	assert.Equal(t, "orders.xlsx", got.FileName)

	byHash, err := s.FindUploadByHash(ctx, "coupang", "h1")
	require.NoError(t, err)
	assert.Equal(t, uploadID, byHash.ID)
	_, err = s.FindUploadByHash(ctx, "other", "h1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	mfr, err := s.InsertManufacturer(ctx, &store.Manufacturer{Name: "Acme", NameKey: "acme"})
	require.NoError(t, err)
	n, err := s.BackfillManufacturer(ctx, "ab-1", mfr)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "completed lines keep their state")

	_, err = s.InsertProduct(ctx, &store.Product{ProductCode: "CD-2", CodeKey: "cd-2", ManufacturerID: &mfr})
	require.NoError(t, err)
	n, err = s.BackfillAllManufacturers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	stored, err := s.ListOrderLines(ctx, uploadID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, store.OrderLinePending, stored[0].Status)
	assert.NotNil(t, stored[0].ManufacturerID)
	assert.Nil(t, stored[1].ManufacturerID)
	assert.NotNil(t, stored[2].ManufacturerID)

	page, total, err := s.ListUploads(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, page, 1)
	assert.Nil(t, page[0].Snapshot)

	page, total, err = s.ListUploads(ctx, "gmarket", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, page)
}

func TestTemplateUpsert(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	tpl := &store.Template{
		MallID: "coupang", DisplayName: "쿠팡", HeaderRow: 2, DataStartRow: 3,
		ColumnMappings: map[string]string{"productCode": "B"},
		Enabled:        true,
	}
	require.NoError(t, s.SaveTemplate(ctx, tpl))

	got, err := s.GetTemplate(ctx, "coupang")
	require.NoError(t, err)
	assert.Equal(t, "쿠팡", got.DisplayName)
	assert.Equal(t, map[string]string{"productCode": "B"}, got.ColumnMappings)
	assert.Empty(t, got.FixedValues)
	assert.Nil(t, got.ExportConfig)
	assert.True(t, got.Enabled)

	tpl.Enabled = false
	tpl.ExportConfig = json.RawMessage(`{"version":1,"columns":[]}`)
	require.NoError(t, s.SaveTemplate(ctx, tpl))
	got, err = s.GetTemplate(ctx, "coupang")
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.JSONEq(t, `{"version":1,"columns":[]}`, string(got.ExportConfig))

	all, err := s.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.GetTemplate(ctx, "none")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
