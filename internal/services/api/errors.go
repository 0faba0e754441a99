package api

import (
	"encoding/json"
	"net/http"
)

const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeInvalidBackupFormat = "INVALID_BACKUP_FORMAT"
	CodeNotFound            = "NOT_FOUND"
	CodeStorageUnavailable  = "STORAGE_UNAVAILABLE"
	CodeNotConfigured       = "NOT_CONFIGURED"
	CodeInternalError       = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes {"error":{"code","message"}}.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
