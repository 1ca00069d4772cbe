// Package importer exposes the manufacturer and product reconciliation
// imports over HTTP.
package importer

import (
	"context"
	"net/http"

	"OrderOps/api"
	"OrderOps/internal/ingest"
	"OrderOps/internal/logger"
	"OrderOps/internal/sheet"
)

// Archiver keeps a copy of an imported file. Nil disables archiving.
type Archiver interface {
	Store(ctx context.Context, kind, runID, fileName string, data []byte) (string, error)
}

type importResponse struct {
	Success    bool   `json:"success"`
	ArchiveKey string `json:"archiveKey,omitempty"`
	*ingest.ImportResult
}

// Import handles POST /import/{kind} with a multipart "file". Archive
// failures are logged and do not fail the import.
func Import(im *ingest.Importer, ar Archiver, kind ingest.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, ok := api.ReadUploadedFile(w, r)
		if !ok {
			return
		}
		wb, err := sheet.ReadBytes(up.Data, up.Name)
		if err != nil {
			msg, status := api.UserFriendlyError(err, "read "+up.Name)
			api.RespondWithError(w, status, msg)
			return
		}
		res, err := im.Import(r.Context(), kind, wb.Grid)
		if err != nil {
			msg, status := api.UserFriendlyError(err, string(kind)+" import")
			api.RespondWithError(w, status, msg)
			return
		}
		logger.Audit("%s import %s of %s by %q: %d created, %d updated, %d skipped",
			kind, res.RunID, up.Name, up.UserID, res.Created, res.Updated, res.Skipped)
		resp := importResponse{Success: true, ImportResult: res}
		if ar != nil {
			key, err := ar.Store(r.Context(), string(kind), res.RunID, up.Name, up.Data)
			if err != nil {
				api.LogError("archive %s import %s: %v", kind, res.RunID, err)
			}
			resp.ArchiveKey = key
		}
		api.RespondWithJSON(w, http.StatusOK, resp)
	}
}

func ImportManufacturers(im *ingest.Importer, ar Archiver) http.HandlerFunc {
	return Import(im, ar, ingest.KindManufacturer)
}

func ImportProducts(im *ingest.Importer, ar Archiver) http.HandlerFunc {
	return Import(im, ar, ingest.KindProduct)
}
