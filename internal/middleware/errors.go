package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors the handler error shape so clients parse one format.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Message: message, Code: code})
}
