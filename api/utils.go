package api

import (
	"encoding/json"
	"net/http"

	"OrderOps/api/constants"

	"go.uber.org/zap"
)

// Error response helper
func RespondWithError(w http.ResponseWriter, status int, errMsg string) {
	LogError("%d %s", status, errMsg)
	RespondWithJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   errMsg,
	})
}

// RespondWithPayload sends a consistent JSON response and includes an arbitrary payload
func RespondWithPayload(w http.ResponseWriter, success bool, errMsg string, payload interface{}) {
	resp := map[string]interface{}{"success": success}
	if !success && errMsg != "" {
		resp["error"] = errMsg
	}
	if payload != nil {
		// use a conventional key `rows` for list payloads
		resp["rows"] = payload
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// RespondWithJSON writes v as the response body with status.
func RespondWithJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		LogError("encode response: %v", err)
	}
}

// LogInfo logs an informational message (wrapper for consistent logging)
func LogInfo(msg string, args ...interface{}) {
	if len(args) > 0 {
		zap.S().Infof(msg, args...)
	} else {
		zap.S().Info(msg)
	}
}

// LogError logs an error message (wrapper for consistent logging)
func LogError(msg string, args ...interface{}) {
	if len(args) > 0 {
		zap.S().Errorf(msg, args...)
	} else {
		zap.S().Error(msg)
	}
}
