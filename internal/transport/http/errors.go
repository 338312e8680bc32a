package http

import (
	"encoding/json"
	"net/http"

	"github.com/hersa37/kuenyawz-api/internal/domain"
)

const (
	codeNotFound           = "not_found"
	codeForbidden          = "forbidden"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidID          = "invalid_id"
	codeBadRequest         = "bad_request"
	codeConflict           = "conflict"
	codeUnauthorized       = "unauthorized"
	codeDependencyFailed   = "dependency_failed"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps an application error kind to a response.
func writeServiceError(w http.ResponseWriter, err error) {
	switch domain.KindOf(err) {
	case domain.KindInvalid:
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
	case domain.KindConflict:
		writeError(w, http.StatusConflict, codeConflict, err.Error())
	case domain.KindNotFound:
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case domain.KindUnauthorized:
		writeError(w, http.StatusForbidden, codeUnauthorized, err.Error())
	case domain.KindDependency:
		writeError(w, http.StatusBadGateway, codeDependencyFailed, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
