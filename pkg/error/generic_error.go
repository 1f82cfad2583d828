package error

import "net/http"

// GenericError is implemented by every error that knows how it should be rendered over HTTP.
type GenericError interface {
	ErrCode() string
	Error() string
	StatusCode() int
}

type ValidationError string

func (err ValidationError) Error() string {
	return string(err)
}

func (err ValidationError) ErrCode() string {
	return "VALIDATION_ERROR"
}

func (err ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// NotFoundError marks a missing or soft-deleted entity.
type NotFoundError string

func (err NotFoundError) Error() string {
	return string(err)
}

func (err NotFoundError) ErrCode() string {
	return "NOT_FOUND_ERROR"
}

func (err NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// ConflictError signals that the request collides with existing state (e.g. an overlapping booking).
type ConflictError string

func (err ConflictError) Error() string {
	return string(err)
}

func (err ConflictError) ErrCode() string {
	return "CONFLICT_ERROR"
}

func (err ConflictError) StatusCode() int {
	return http.StatusConflict
}

type InternalServerError string

func (err InternalServerError) Error() string {
	return string(err)
}

func (err InternalServerError) ErrCode() string {
	return "INTERNAL_SERVER_ERROR"
}

func (err InternalServerError) StatusCode() int {
	return http.StatusInternalServerError
}
