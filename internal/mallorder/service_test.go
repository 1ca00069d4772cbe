package mallorder

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"OrderOps/internal/ingest"
	"OrderOps/internal/snapshot"
	"OrderOps/internal/store"
	"OrderOps/internal/store/sqlstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const ordersCSV = "6월 주문,6월 주문,6월 주문,6월 주문\n" +
	"주문번호,상품코드,상품명,수량\n" +
	"O-1,AB-1,Widget,1\n" +
	"O-2,,,2\n" +
	"O-3,CD-2,Gadget,x\n" +
	",,,\n" +
	"O-4,ab-1,Widget,3\n"

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	store *sqlstore.Store
	mfr   int64
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st, err := sqlstore.Open(sqlstore.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))

	mfr, err := st.InsertManufacturer(ctx, &store.Manufacturer{Name: "Acme", NameKey: "acme"})
	require.NoError(t, err)
	_, err = st.InsertProduct(ctx, &store.Product{ProductCode: "AB-1", CodeKey: "ab-1", ManufacturerID: &mfr})
	require.NoError(t, err)

	dicts, err := ingest.DefaultDictionaries()
	require.NoError(t, err)
	svc, err := NewService(st, dicts, time.UTC, zap.NewNop())
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }

	require.NoError(t, svc.SaveTemplate(ctx, &store.Template{
		MallID:      "coupang",
		DisplayName: "쿠팡",
		Enabled:     true,
		FixedValues: map[string]string{"c1": "{{displayName}} {{rowCount}}건"},
		ExportConfig: json.RawMessage(`{"version":1,"copyPrefixRows":true,"columns":[
			{"header":"주문","source":{"type":"input","columnIndex":1}},
			{"source":{"type":"const","value":"쿠팡"}}
		]}`),
	}))
	return &fixture{svc: svc, store: st, mfr: mfr}
}

func TestIngestDetectsLayoutAndSkipsBadRows(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.Ingest(ctx, Upload{MallID: "coupang", FileName: "orders.csv", UploadedBy: "ops", Data: []byte(ordersCSV)})
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, 2, res.HeaderRow)
	assert.Equal(t, 3, res.DataStartRow)
	assert.Equal(t, 4, res.TotalRows)
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, ingest.RowError{Row: 4, Key: "O-2", Message: "productCode and productName are empty"}, res.Errors[0])
	assert.Equal(t, 5, res.Errors[1].Row)
	assert.Len(t, res.Columns, 4)

	lines, err := f.store.ListOrderLines(ctx, res.UploadID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 3, lines[0].SourceRow)
	assert.Equal(t, 7, lines[1].SourceRow)
	assert.Equal(t, 3, lines[1].Quantity)
	for _, l := range lines {
		require.NotNil(t, l.ManufacturerID, "row %d", l.SourceRow)
		assert.Equal(t, f.mfr, *l.ManufacturerID)
	}

	up, err := f.store.GetUpload(ctx, res.UploadID)
	require.NoError(t, err)
	snap, err := snapshot.Decode(up.Snapshot)
	require.NoError(t, err)
	assert.Equal(t, "orders", snap.SheetName)
	assert.Equal(t, [][]string{{"6월 주문", "6월 주문", "6월 주문", "6월 주문"}}, snap.PrefixRows)
	require.Len(t, snap.DataRows, 2)
	assert.Equal(t, 3, snap.DataRows[0].RowNumber)
	assert.Equal(t, 7, snap.DataRows[1].RowNumber)
}

func TestIngestSameFileTwiceIsDuplicate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	up := Upload{MallID: "coupang", FileName: "orders.csv", Data: []byte(ordersCSV)}

	first, err := f.svc.Ingest(ctx, up)
	require.NoError(t, err)
	up.FileName = "renamed.csv"
	second, err := f.svc.Ingest(ctx, up)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.UploadID, second.UploadID)

	// a layout change does not reopen the same bytes
	tpl, err := f.svc.Template(ctx, "coupang")
	require.NoError(t, err)
	tpl.HeaderRow = 2
	require.NoError(t, f.svc.SaveTemplate(ctx, tpl))
	third, err := f.svc.Ingest(ctx, up)
	require.NoError(t, err)
	assert.True(t, third.Duplicate)
	assert.Equal(t, first.UploadID, third.UploadID)

	page, total, err := f.store.ListUploads(ctx, "coupang", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, page, 1)
}

func TestIngestWithTemplateLayout(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.SaveTemplate(ctx, &store.Template{
		MallID: "gmarket", DisplayName: "G마켓", Enabled: true,
		HeaderRow: 1, DataStartRow: 3,
		ColumnMappings: map[string]string{"orderNumber": "A", "productName": "C", "quantity": "D"},
	}))

	csv := "no,code,item,n\nsub header,,,\nG-1,X,Lamp,2\n"
	res, err := f.svc.Ingest(ctx, Upload{MallID: "gmarket", FileName: "g.csv", Data: []byte(csv)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.HeaderRow)
	assert.Equal(t, 3, res.DataStartRow)
	assert.Equal(t, 1, res.Accepted)

	lines, err := f.store.ListOrderLines(ctx, res.UploadID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Lamp", lines[0].ProductName)
	assert.Equal(t, "", lines[0].ProductCode)
	assert.Nil(t, lines[0].ManufacturerID)
}

func TestIngestStructuralErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, Upload{MallID: "nope", FileName: "a.csv", Data: []byte(ordersCSV)})
	assert.ErrorIs(t, err, ErrUnknownMall)

	_, err = f.svc.Ingest(ctx, Upload{MallID: "coupang", FileName: "a.csv", Data: []byte("주문번호,수량,메모\nO-1,1,x\n")})
	assert.ErrorIs(t, err, ingest.ErrMissingMandatoryHeader)

	_, err = f.svc.Ingest(ctx, Upload{MallID: "coupang", FileName: "a.pdf", Data: []byte("%PDF")})
	assert.Error(t, err)

	require.NoError(t, f.svc.SaveTemplate(ctx, &store.Template{MallID: "off", DisplayName: "Off"}))
	_, err = f.svc.Ingest(ctx, Upload{MallID: "off", FileName: "a.csv", Data: []byte(ordersCSV)})
	assert.ErrorIs(t, err, ErrTemplateDisabled)
}

func TestExportReplaysSnapshot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res, err := f.svc.Ingest(ctx, Upload{MallID: "coupang", FileName: "orders.csv", Data: []byte(ordersCSV)})
	require.NoError(t, err)

	out, err := f.svc.Export(ctx, res.UploadID)
	require.NoError(t, err)
	assert.Equal(t, "쿠팡_20240601_093000.xlsx", out.FileName)
	assert.Equal(t, 4, out.Rows)

	x, err := excelize.OpenReader(bytes.NewReader(out.Content))
	require.NoError(t, err)
	defer x.Close()
	rows, err := x.GetRows("orders")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"6월 주문", "쿠팡", "쿠팡 2건"},
		{"주문"},
		{"O-1", "쿠팡"},
		{"O-4", "쿠팡"},
	}, rows)
}

func TestExportFileNameUsesUploadTime(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res, err := f.svc.Ingest(ctx, Upload{MallID: "coupang", FileName: "orders.csv", Data: []byte(ordersCSV)})
	require.NoError(t, err)

	f.svc.now = func() time.Time { return fixedNow.Add(48 * time.Hour) }
	first, err := f.svc.Export(ctx, res.UploadID)
	require.NoError(t, err)
	second, err := f.svc.Export(ctx, res.UploadID)
	require.NoError(t, err)
	assert.Equal(t, "쿠팡_20240601_093000.xlsx", first.FileName)
	assert.Equal(t, first.FileName, second.FileName)
}

func TestExportFollowsCurrentTemplate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res, err := f.svc.Ingest(ctx, Upload{MallID: "coupang", FileName: "orders.csv", Data: []byte(ordersCSV)})
	require.NoError(t, err)

	tpl, err := f.svc.Template(ctx, "coupang")
	require.NoError(t, err)
	tpl.FixedValues = nil
	tpl.ExportConfig = json.RawMessage(`{"version":1,"columns":[{"source":{"type":"input","columnIndex":3}}]}`)
	require.NoError(t, f.svc.SaveTemplate(ctx, tpl))

	out, err := f.svc.Export(ctx, res.UploadID)
	require.NoError(t, err)
	x, err := excelize.OpenReader(bytes.NewReader(out.Content))
	require.NoError(t, err)
	defer x.Close()
	rows, err := x.GetRows("orders")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"상품명"}, {"Widget"}, {"Widget"}}, rows)
}

func TestExportFailures(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res, err := f.svc.Ingest(ctx, Upload{MallID: "coupang", FileName: "orders.csv", Data: []byte(ordersCSV)})
	require.NoError(t, err)

	_, err = f.svc.Export(ctx, 999)
	assert.ErrorIs(t, err, ErrUploadNotFound)

	noSnap, err := f.store.SaveMallUpload(ctx, &store.Upload{Kind: store.UploadKindMall, MallID: "coupang", FileName: "x", FileHash: "h-none"}, nil)
	require.NoError(t, err)
	_, err = f.svc.Export(ctx, noSnap)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	bad, err := f.store.SaveMallUpload(ctx, &store.Upload{Kind: store.UploadKindMall, MallID: "coupang", FileName: "y", FileHash: "h-bad",
		Snapshot: []byte(`{"version":9}`)}, nil)
	require.NoError(t, err)
	_, err = f.svc.Export(ctx, bad)
	assert.ErrorIs(t, err, snapshot.ErrMalformed)

	tpl, err := f.svc.Template(ctx, "coupang")
	require.NoError(t, err)
	tpl.ExportConfig = nil
	require.NoError(t, f.svc.SaveTemplate(ctx, tpl))
	_, err = f.svc.Export(ctx, res.UploadID)
	assert.ErrorIs(t, err, ErrNoExportConfig)

	tpl.Enabled = false
	require.NoError(t, f.svc.SaveTemplate(ctx, tpl))
	_, err = f.svc.Export(ctx, res.UploadID)
	assert.ErrorIs(t, err, ErrTemplateUnavailable)

	// failed exports leave the upload untouched
	up, err := f.store.GetUpload(ctx, res.UploadID)
	require.NoError(t, err)
	_, err = snapshot.Decode(up.Snapshot)
	assert.NoError(t, err)
}

func TestValidateTemplate(t *testing.T) {
	ok := &store.Template{MallID: " coupang ", DisplayName: "쿠팡", FixedValues: map[string]string{"a1": "x"}}
	require.NoError(t, ValidateTemplate(ok))
	assert.Equal(t, "coupang", ok.MallID)
	assert.Equal(t, map[string]string{"A1": "x"}, ok.FixedValues)

	bad := []*store.Template{
		{DisplayName: "x"},
		{MallID: "m"},
		{MallID: "m", DisplayName: "x", HeaderRow: 3, DataStartRow: 2},
		{MallID: "m", DisplayName: "x", ColumnMappings: map[string]string{"colour": "A"}},
		{MallID: "m", DisplayName: "x", FixedValues: map[string]string{"nowhere": "x"}},
		{MallID: "m", DisplayName: "x", ExportConfig: json.RawMessage(`{"version":1,"columns":[]}`)},
	}
	for i, tpl := range bad {
		assert.ErrorIs(t, ValidateTemplate(tpl), ErrInvalidTemplate, "case %d", i)
	}
}

func TestUploadsAndLines(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res, err := f.svc.Ingest(ctx, Upload{MallID: "coupang", FileName: "orders.csv", UploadedBy: "ops", Data: []byte(ordersCSV)})
	require.NoError(t, err)

	ups, total, err := f.svc.Uploads(ctx, "coupang", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, ups, 1)
	assert.Equal(t, res.UploadID, ups[0].ID)
	assert.Equal(t, "ops", ups[0].UploadedBy)
	assert.Equal(t, 2, ups[0].AcceptedRows)

	_, total, err = f.svc.Uploads(ctx, "gmarket", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	lines, err := f.svc.Lines(ctx, res.UploadID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "O-1", lines[0].OrderNumber)
	assert.Equal(t, "O-4", lines[1].OrderNumber)
	require.NotNil(t, lines[1].ManufacturerID)
	assert.Equal(t, f.mfr, *lines[1].ManufacturerID)

	_, err = f.svc.Lines(ctx, res.UploadID+100)
	assert.ErrorIs(t, err, ErrUploadNotFound)
}
