package api

import (
	"errors"
	"net/http"
	"strings"

	"OrderOps/api/constants"
	"OrderOps/internal/export"
	"OrderOps/internal/ingest"
	"OrderOps/internal/mallorder"
	"OrderOps/internal/sheet"
	"OrderOps/internal/snapshot"
	"OrderOps/internal/store"
)

// UserFriendlyError converts service and storage errors into user-facing
// messages and an HTTP status. context is logged with the raw error.
func UserFriendlyError(err error, context string) (string, int) {
	if err == nil {
		return "", http.StatusOK
	}
	LogError("%s: %v", context, err)

	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return constants.ErrFileTooLarge, http.StatusRequestEntityTooLarge

	// file structure
	case errors.Is(err, sheet.ErrUnsupportedFileType):
		return constants.ErrUnsupportedFile, http.StatusBadRequest
	case errors.Is(err, sheet.ErrUnreadableFile):
		return constants.ErrUnreadableFile, http.StatusBadRequest
	case errors.Is(err, ingest.ErrEmptyInput):
		return constants.ErrEmptyFile, http.StatusBadRequest
	case errors.Is(err, ingest.ErrMissingMandatoryHeader):
		return constants.ErrMissingHeaders + detail(err, ingest.ErrMissingMandatoryHeader), http.StatusBadRequest
	case errors.Is(err, ingest.ErrInvalidHeaderRow):
		return constants.ErrHeaderOutOfRange, http.StatusBadRequest

	// mall templates
	case errors.Is(err, mallorder.ErrUnknownMall):
		return constants.ErrUnknownMall, http.StatusNotFound
	case errors.Is(err, mallorder.ErrTemplateDisabled):
		return constants.ErrTemplateDisabled, http.StatusConflict
	case errors.Is(err, mallorder.ErrInvalidTemplate):
		return constants.ErrInvalidTemplate + detail(err, mallorder.ErrInvalidTemplate), http.StatusBadRequest
	case errors.Is(err, mallorder.ErrInvalidDataStart):
		return constants.ErrInvalidDataStart, http.StatusBadRequest

	// export
	case errors.Is(err, mallorder.ErrUploadNotFound), errors.Is(err, store.ErrNotFound):
		return constants.ErrUploadNotFound, http.StatusNotFound
	case errors.Is(err, mallorder.ErrNotMallUpload):
		return constants.ErrNotMallUpload, http.StatusBadRequest
	case errors.Is(err, mallorder.ErrNoSnapshot):
		return constants.ErrNoSnapshot, http.StatusUnprocessableEntity
	case errors.Is(err, mallorder.ErrTemplateUnavailable):
		return constants.ErrTemplateUnavailable, http.StatusUnprocessableEntity
	case errors.Is(err, mallorder.ErrNoExportConfig):
		return constants.ErrNoExportConfig, http.StatusUnprocessableEntity
	case errors.Is(err, snapshot.ErrMalformed):
		return constants.ErrMalformedSnapshot, http.StatusUnprocessableEntity
	case errors.Is(err, export.ErrMalformedConfig):
		return constants.ErrMalformedConfig + detail(err, export.ErrMalformedConfig), http.StatusUnprocessableEntity
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "unique") || strings.Contains(errMsg, "duplicate") {
		return "This record already exists in the system.", http.StatusConflict
	}
	if strings.Contains(errMsg, "context canceled") || strings.Contains(errMsg, "deadline exceeded") {
		return "The request was cancelled before it finished.", http.StatusServiceUnavailable
	}
	return constants.ErrInternal, http.StatusInternalServerError
}

// detail is the text wrapped after sentinel, or the whole message.
func detail(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}
