package api

import (
	"errors"
	"io"
	"net/http"

	"OrderOps/api/constants"
	"OrderOps/internal/config"
)

// UploadedFile is the first "file" part of a multipart request.
type UploadedFile struct {
	Name   string
	Data   []byte
	UserID string
}

// ReadUploadedFile parses a multipart upload. The file is capped at
// config.MaxUploadBytes with some room left for the other form fields.
// On failure it has already written the error response.
func ReadUploadedFile(w http.ResponseWriter, r *http.Request) (*UploadedFile, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			RespondWithError(w, http.StatusRequestEntityTooLarge, constants.ErrFileTooLarge)
			return nil, false
		}
		RespondWithError(w, http.StatusBadRequest, constants.ErrParseMultipart)
		return nil, false
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		RespondWithError(w, http.StatusBadRequest, constants.ErrNoFileUploaded)
		return nil, false
	}
	fh := files[0]
	if fh.Size > config.MaxUploadBytes {
		RespondWithError(w, http.StatusRequestEntityTooLarge, constants.ErrFileTooLarge)
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, constants.ErrOpenFile+fh.Filename)
		return nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, constants.ErrOpenFile+fh.Filename)
		return nil, false
	}
	return &UploadedFile{Name: fh.Filename, Data: data, UserID: r.FormValue("user_id")}, true
}
