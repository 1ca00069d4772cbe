package mallorder

import (
	"context"
	"errors"
	"fmt"

	"OrderOps/internal/store"
)

// Uploads pages through stored mall uploads, newest first. An empty mallID
// lists every mall.
func (s *Service) Uploads(ctx context.Context, mallID string, limit, offset int) ([]store.Upload, int, error) {
	return s.store.ListUploads(ctx, mallID, limit, offset)
}

// Lines returns the order lines kept from an upload in source row order.
func (s *Service) Lines(ctx context.Context, uploadID int64) ([]store.OrderLine, error) {
	if _, err := s.store.GetUpload(ctx, uploadID); errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrUploadNotFound, uploadID)
	} else if err != nil {
		return nil, err
	}
	return s.store.ListOrderLines(ctx, uploadID)
}
