package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shaiso/Gatekeeper/internal/repo"
)

// Коды ошибок API.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeValidation   = "VALIDATION_FAILED"
	ErrCodeUnavailable  = "SERVICE_UNAVAILABLE"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// DataResponse — обёртка успешного ответа с одним объектом.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — обёртка ответа со списком и общим количеством.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

// ErrorResponse — обёртка ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo — машиночитаемый код и человекочитаемое сообщение.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON сериализует v и пишет ответ с указанным статусом.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Success пишет 200 с данными в стандартной обёртке.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Created пишет 201 с данными в стандартной обёртке.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, DataResponse{Data: data})
}

// List пишет 200 со списком и общим количеством.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// NoContent пишет 204 без тела.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error пишет ответ с ошибкой в стандартной обёртке.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorResponse{Error: ErrorInfo{Code: code, Message: message}})
}

// BadRequest пишет 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Unauthorized пишет 401 с заголовком WWW-Authenticate: Bearer.
func Unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	Error(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden пишет 403.
func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound пишет 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict пишет 409.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, ErrCodeConflict, message)
}

// UnprocessableEntity пишет 422 при ошибке валидации.
func UnprocessableEntity(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnprocessableEntity, ErrCodeValidation, message)
}

// InternalError пишет 500 с обобщённым сообщением.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}

// HandleRepoError переводит ошибки хранилища в HTTP-ответ.
func HandleRepoError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		NotFound(w, notFoundMsg)
	case errors.Is(err, repo.ErrAlreadyExists):
		Conflict(w, "resource already exists")
	case errors.Is(err, repo.ErrInvalidState):
		UnprocessableEntity(w, err.Error())
	default:
		InternalError(w)
	}
}
