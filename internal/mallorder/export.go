package mallorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"OrderOps/internal/export"
	"OrderOps/internal/metrics"
	"OrderOps/internal/snapshot"
	"OrderOps/internal/store"

	"go.uber.org/zap"
)

// ExportFile is a rebuilt partner spreadsheet.
type ExportFile struct {
	FileName string
	Content  []byte
	Rows     int
}

// Export rebuilds the spreadsheet of a stored upload from its snapshot and
// the mall's current export config. Nothing is written back.
func (s *Service) Export(ctx context.Context, uploadID int64) (*ExportFile, error) {
	out, mall, err := s.export(ctx, uploadID)
	if mall == "" {
		mall = "unknown"
	}
	if err != nil {
		metrics.ObserveExport(mall, "failed")
		s.log.Warn("export failed", zap.Int64("upload_id", uploadID), zap.Error(err))
		return nil, err
	}
	metrics.ObserveExport(mall, "ok")
	return out, nil
}

func (s *Service) export(ctx context.Context, uploadID int64) (*ExportFile, string, error) {
	up, err := s.store.GetUpload(ctx, uploadID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", fmt.Errorf("%w: %d", ErrUploadNotFound, uploadID)
	}
	if err != nil {
		return nil, "", err
	}
	mall := up.MallID
	if up.Kind != store.UploadKindMall {
		return nil, mall, ErrNotMallUpload
	}
	if len(up.Snapshot) == 0 {
		return nil, mall, ErrNoSnapshot
	}
	snap, err := snapshot.Decode(up.Snapshot)
	if err != nil {
		return nil, mall, err
	}

	tpl, err := s.store.GetTemplate(ctx, up.MallID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !tpl.Enabled) {
		return nil, mall, fmt.Errorf("%w: %s", ErrTemplateUnavailable, up.MallID)
	}
	if err != nil {
		return nil, mall, err
	}
	if len(tpl.ExportConfig) == 0 {
		return nil, mall, ErrNoExportConfig
	}
	cfg, err := export.ParseConfig(tpl.ExportConfig)
	if err != nil {
		return nil, mall, err
	}

	rows := export.Reconstruct(snap, cfg)
	vars := map[string]string{
		"mallName":    up.MallID,
		"displayName": tpl.DisplayName,
		"uploadDate":  up.UploadedAt.In(s.loc).Format("2006-01-02"),
		"rowCount":    strconv.Itoa(len(snap.DataRows)),
		"fileName":    up.FileName,
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, snap.SheetName, rows, tpl.FixedValues, vars); err != nil {
		return nil, mall, fmt.Errorf("write xlsx: %w", err)
	}
	return &ExportFile{
		FileName: export.FileName(tpl.DisplayName, up.UploadedAt.In(s.loc)),
		Content:  buf.Bytes(),
		Rows:     len(rows),
	}, mall, nil
}
