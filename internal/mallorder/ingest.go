package mallorder

import (
	"context"
	"errors"
	"fmt"

	"OrderOps/internal/checksum"
	"OrderOps/internal/ingest"
	"OrderOps/internal/metrics"
	"OrderOps/internal/sheet"
	"OrderOps/internal/snapshot"
	"OrderOps/internal/store"
	"OrderOps/internal/textnorm"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Upload struct {
	MallID     string
	FileName   string
	UploadedBy string
	Data       []byte
}

// IngestResult reports one mall upload. Row numbers are 1-based. A
// Duplicate result points at the upload that already holds the same file.
type IngestResult struct {
	RunID        string                `json:"runId"`
	UploadID     int64                 `json:"uploadId"`
	Duplicate    bool                  `json:"duplicate"`
	MallID       string                `json:"mallId"`
	HeaderRow    int                   `json:"headerRow,omitempty"`
	DataStartRow int                   `json:"dataStartRow,omitempty"`
	TotalRows    int                   `json:"totalRows"`
	Accepted     int                   `json:"accepted"`
	Skipped      int                   `json:"skipped"`
	Columns      []ingest.HeaderColumn `json:"columns,omitempty"`
	Errors       []ingest.RowError     `json:"errors"`
}

func (s *Service) template(ctx context.Context, mallID string) (*store.Template, error) {
	tpl, err := s.store.GetTemplate(ctx, mallID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMall, mallID)
	}
	if err != nil {
		return nil, err
	}
	if !tpl.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrTemplateDisabled, mallID)
	}
	return tpl, nil
}

// layout resolves header row, first data row and column mapping of g, all
// zero-based. Template settings win over detection.
func (s *Service) layout(g sheet.Grid, tpl *store.Template) (*ingest.HeaderAnalysis, int, ingest.HeaderMapping, error) {
	analysis, err := ingest.AnalyzeHeader(g, tpl.HeaderRow)
	if err != nil {
		return nil, 0, nil, err
	}
	dataStart := analysis.HeaderRow + 1
	if tpl.DataStartRow > 0 {
		dataStart = tpl.DataStartRow - 1
		if dataStart <= analysis.HeaderRow {
			return nil, 0, nil, fmt.Errorf("%w: data row %d, header row %d", ErrInvalidDataStart, tpl.DataStartRow, analysis.HeaderRow+1)
		}
	}
	var mapping ingest.HeaderMapping
	if len(tpl.ColumnMappings) > 0 {
		mapping, err = ingest.MappingFromLetters(tpl.ColumnMappings)
		if err != nil {
			return nil, 0, nil, err
		}
	} else {
		mapping = s.dict.Map(analysis.HeaderCells)
	}
	if err := s.dict.Validate(mapping); err != nil {
		return nil, 0, nil, err
	}
	return analysis, dataStart, mapping, nil
}

// Analyze describes the layout of a mall file without storing anything.
func (s *Service) Analyze(ctx context.Context, mallID, fileName string, data []byte) (*ingest.HeaderAnalysis, error) {
	tpl, err := s.template(ctx, mallID)
	if err != nil {
		return nil, err
	}
	wb, err := sheet.ReadBytes(data, fileName)
	if err != nil {
		return nil, err
	}
	return ingest.AnalyzeHeader(wb.Grid, tpl.HeaderRow)
}

// Ingest parses a mall export, keeps its valid order lines and stores the
// upload with its source snapshot. Structural problems return an error;
// row problems are reported in the result.
func (s *Service) Ingest(ctx context.Context, up Upload) (*IngestResult, error) {
	res, err := s.ingest(ctx, up)
	switch {
	case err != nil:
		metrics.ObserveUpload(up.MallID, "failed")
	case res.Duplicate:
		metrics.ObserveUpload(up.MallID, "duplicate")
	default:
		metrics.ObserveUpload(up.MallID, "accepted")
	}
	return res, err
}

func (s *Service) ingest(ctx context.Context, up Upload) (*IngestResult, error) {
	tpl, err := s.template(ctx, up.MallID)
	if err != nil {
		return nil, err
	}
	hash := checksum.Sum(up.Data)
	if prev, err := s.store.FindUploadByHash(ctx, up.MallID, hash); err == nil {
		return &IngestResult{UploadID: prev.ID, Duplicate: true, MallID: up.MallID, Errors: []ingest.RowError{}}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	wb, err := sheet.ReadBytes(up.Data, up.FileName)
	if err != nil {
		return nil, err
	}
	g := wb.Grid
	analysis, dataStart, mapping, err := s.layout(g, tpl)
	if err != nil {
		return nil, err
	}

	res := &IngestResult{
		RunID:        uuid.NewString(),
		MallID:       up.MallID,
		HeaderRow:    analysis.HeaderRow + 1,
		DataStartRow: dataStart + 1,
		Columns:      analysis.Columns,
		Errors:       []ingest.RowError{},
	}
	log := s.log.With(zap.String("run_id", res.RunID), zap.String("mall", up.MallID))

	accepted := make(map[int]bool)
	var lines []store.OrderLine
	for r := dataStart; r < len(g); r++ {
		if textnorm.IsBlank(g[r]) {
			continue
		}
		res.TotalRows++
		line, err := orderLine(mapping, g[r])
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, ingest.RowError{Row: r + 1, Key: line.OrderNumber, Message: err.Error()})
			continue
		}
		line.SourceRow = r + 1
		accepted[r] = true
		lines = append(lines, line)
	}
	res.Accepted = len(lines)
	s.assignManufacturers(ctx, log, lines)

	snap, err := snapshot.Encode(snapshot.Capture(g, wb.SheetName, analysis.HeaderRow, dataStart, accepted))
	if err != nil {
		return nil, err
	}
	id, err := s.store.SaveMallUpload(ctx, &store.Upload{
		Kind:         store.UploadKindMall,
		MallID:       up.MallID,
		FileName:     up.FileName,
		FileHash:     hash,
		UploadedBy:   up.UploadedBy,
		UploadedAt:   s.now(),
		TotalRows:    res.TotalRows,
		AcceptedRows: res.Accepted,
		Snapshot:     snap,
	}, lines)
	if errors.Is(err, store.ErrDuplicate) {
		// the same file landed concurrently
		prev, ferr := s.store.FindUploadByHash(ctx, up.MallID, hash)
		if ferr != nil {
			return nil, err
		}
		return &IngestResult{UploadID: prev.ID, Duplicate: true, MallID: up.MallID, Errors: []ingest.RowError{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	res.UploadID = id
	log.Info("mall upload stored",
		zap.Int64("upload_id", id),
		zap.String("file", up.FileName),
		zap.Int("total", res.TotalRows),
		zap.Int("accepted", res.Accepted),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// orderLine converts one data row. The returned line carries the order
// number even on error so it can label the row error.
func orderLine(m ingest.HeaderMapping, row []string) (store.OrderLine, error) {
	get := func(f ingest.Field) string {
		v, _ := m.Value(row, f)
		return textnorm.Cell(v)
	}
	l := store.OrderLine{
		OrderNumber:    get(ingest.FieldOrderNumber),
		OrderDate:      get(ingest.FieldOrderDate),
		ProductCode:    get(ingest.FieldProductCode),
		ProductName:    get(ingest.FieldProductName),
		OptionName:     get(ingest.FieldOptionName),
		RecipientName:  get(ingest.FieldRecipientName),
		RecipientPhone: get(ingest.FieldRecipientPhone),
		Address:        get(ingest.FieldAddress),
		PostalCode:     get(ingest.FieldPostalCode),
		DeliveryMemo:   get(ingest.FieldDeliveryMemo),
		Status:         store.OrderLinePending,
	}
	if l.ProductCode == "" && l.ProductName == "" {
		return l, errors.New("productCode and productName are empty")
	}
	qty, err := ingest.ParseQuantity(get(ingest.FieldQuantity))
	if err != nil {
		return l, err
	}
	l.Quantity = qty
	l.ProductKey = textnorm.Code(l.ProductCode)
	return l, nil
}

// assignManufacturers stamps lines whose product already knows its
// manufacturer. Lines left without one are picked up by the backfill sweep.
func (s *Service) assignManufacturers(ctx context.Context, log *zap.Logger, lines []store.OrderLine) {
	seen := make(map[string]bool)
	var keys []string
	for _, l := range lines {
		if l.ProductKey != "" && !seen[l.ProductKey] {
			seen[l.ProductKey] = true
			keys = append(keys, l.ProductKey)
		}
	}
	if len(keys) == 0 {
		return
	}
	ids, err := s.store.ManufacturerIDsByProductKeys(ctx, keys)
	if err != nil {
		log.Warn("manufacturer lookup failed, leaving lines for backfill", zap.Error(err))
		return
	}
	for i := range lines {
		if id, ok := ids[lines[i].ProductKey]; ok {
			id := id
			lines[i].ManufacturerID = &id
		}
	}
}
