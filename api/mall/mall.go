// Package mall exposes shopping-mall uploads, exports and templates over HTTP.
package mall

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"OrderOps/api"
	"OrderOps/api/constants"
	"OrderOps/api/utils"
	"OrderOps/internal/logger"
	"OrderOps/internal/mallorder"
	"OrderOps/internal/store"

	"github.com/gorilla/mux"
)

type uploadResponse struct {
	Success bool `json:"success"`
	*mallorder.IngestResult
}

// UploadOrders handles POST /mall/uploads with multipart "file" and "mall_id".
func UploadOrders(svc *mallorder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, ok := api.ReadUploadedFile(w, r)
		if !ok {
			return
		}
		mallID := strings.TrimSpace(r.FormValue("mall_id"))
		if mallID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrMallIDRequired)
			return
		}
		res, err := svc.Ingest(r.Context(), mallorder.Upload{
			MallID:     mallID,
			FileName:   up.Name,
			UploadedBy: up.UserID,
			Data:       up.Data,
		})
		if err != nil {
			msg, status := api.UserFriendlyError(err, "mall upload "+mallID)
			api.RespondWithError(w, status, msg)
			return
		}
		if !res.Duplicate {
			logger.Audit("mall upload %d for %s (%s) by %q: %d of %d rows accepted",
				res.UploadID, mallID, up.Name, up.UserID, res.Accepted, res.TotalRows)
		}
		api.RespondWithJSON(w, http.StatusOK, uploadResponse{Success: true, IngestResult: res})
	}
}

// ListUploads handles GET /mall/uploads?mall_id=&page=&limit=.
func ListUploads(svc *mallorder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := utils.ExtractPagination(r)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		mallID := strings.TrimSpace(r.URL.Query().Get("mall_id"))
		ups, total, err := svc.Uploads(r.Context(), mallID, page.Limit, page.Offset)
		if err != nil {
			msg, status := api.UserFriendlyError(err, "list uploads")
			api.RespondWithError(w, status, msg)
			return
		}
		if ups == nil {
			ups = []store.Upload{}
		}
		page.SetPaginationStats(total)
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"rows":       ups,
			"pagination": page,
		})
	}
}

// UploadLines handles GET /mall/uploads/{id}/lines.
func UploadLines(svc *mallorder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil || id <= 0 {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrUploadIDRequired)
			return
		}
		lines, err := svc.Lines(r.Context(), id)
		if err != nil {
			msg, status := api.UserFriendlyError(err, "upload lines")
			api.RespondWithError(w, status, msg)
			return
		}
		if lines == nil {
			lines = []store.OrderLine{}
		}
		api.RespondWithPayload(w, true, "", lines)
	}
}

// Analyze handles POST /mall/analyze. It reports the detected header row and
// columns of a file without storing it.
func Analyze(svc *mallorder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, ok := api.ReadUploadedFile(w, r)
		if !ok {
			return
		}
		mallID := strings.TrimSpace(r.FormValue("mall_id"))
		if mallID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrMallIDRequired)
			return
		}
		a, err := svc.Analyze(r.Context(), mallID, up.Name, up.Data)
		if err != nil {
			msg, status := api.UserFriendlyError(err, "analyze "+up.Name)
			api.RespondWithError(w, status, msg)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success":     true,
			"headerRow":   a.HeaderRow + 1,
			"headerCells": a.HeaderCells,
			"columns":     a.Columns,
		})
	}
}

// Export handles POST /mall/export with body {"uploadId": n} and streams the
// rebuilt workbook as an attachment.
func Export(svc *mallorder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UploadID int64 `json:"uploadId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if req.UploadID <= 0 {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrUploadIDRequired)
			return
		}
		out, err := svc.Export(r.Context(), req.UploadID)
		if err != nil {
			msg, status := api.UserFriendlyError(err, "export upload "+strconv.FormatInt(req.UploadID, 10))
			api.RespondWithError(w, status, msg)
			return
		}
		w.Header().Set(constants.ContentTypeText, constants.ContentTypeXLSX)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.FileName}))
		w.Header().Set("Content-Length", strconv.Itoa(len(out.Content)))
		w.WriteHeader(http.StatusOK)
		if _, err := bytes.NewReader(out.Content).WriteTo(w); err != nil {
			api.LogError("write export %s: %v", out.FileName, err)
		}
	}
}

// ListTemplates handles GET /mall/templates.
func ListTemplates(svc *mallorder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.Templates(r.Context())
		if err != nil {
			msg, status := api.UserFriendlyError(err, "list templates")
			api.RespondWithError(w, status, msg)
			return
		}
		if out == nil {
			out = []store.Template{}
		}
		api.RespondWithPayload(w, true, "", out)
	}
}

// GetTemplate handles GET /mall/templates/{mallId}.
func GetTemplate(svc *mallorder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tpl, err := svc.Template(r.Context(), mux.Vars(r)["mallId"])
		if err != nil {
			msg, status := api.UserFriendlyError(err, "get template")
			api.RespondWithError(w, status, msg)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "template": tpl})
	}
}

// PutTemplate handles PUT /mall/templates/{mallId}. The path wins over any
// mallId in the body.
func PutTemplate(svc *mallorder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var tpl store.Template
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&tpl); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		tpl.MallID = mux.Vars(r)["mallId"]
		if err := svc.SaveTemplate(r.Context(), &tpl); err != nil {
			msg, status := api.UserFriendlyError(err, "save template "+tpl.MallID)
			api.RespondWithError(w, status, msg)
			return
		}
		saved, err := svc.Template(r.Context(), tpl.MallID)
		if err != nil {
			msg, status := api.UserFriendlyError(err, "reload template "+tpl.MallID)
			api.RespondWithError(w, status, msg)
			return
		}
		logger.Audit("template %s saved (enabled=%t)", saved.MallID, saved.Enabled)
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "template": saved})
	}
}
