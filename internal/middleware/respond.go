package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody matches the handler package's flat error shape so clients see
// one format for body, query and panic failures.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSONBody(w, status, errorBody{Error: message, Code: code})
}

type accessDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// accessBody is the nested shape used for 401, 403 and 429.
type accessBody struct {
	Error accessDetail `json:"error"`
}

func writeAccessError(w http.ResponseWriter, status int, code, message string) {
	writeJSONBody(w, status, accessBody{Error: accessDetail{Code: code, Message: message}})
}

func writeJSONBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
