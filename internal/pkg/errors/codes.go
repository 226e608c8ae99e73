package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrUnauthorized    = 1003
	ErrForbidden       = 1004
	ErrConflict        = 1005
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007
	ErrServiceUnavail  = 1008

	// Video errors (6000-6999)
	ErrVideoNotFound      = 6000
	ErrVideoInvalidInput  = 6001
	ErrVideoUnauthorized  = 6002
	ErrVideoNotPublished  = 6003
	ErrVideoCoverTooLarge = 6004
	ErrVideoStorageFailed = 6005

	// Upload errors (7000-7999)
	ErrUploadSessionNotFound  = 7000
	ErrUploadSessionExists    = 7001
	ErrUploadSessionCompleted = 7002
	ErrUploadInvalidIndex     = 7003
	ErrUploadEmptyChunk       = 7004
	ErrUploadIncomplete       = 7005
	ErrUploadIntegrity        = 7006
	ErrUploadCorruptSession   = 7007
	ErrUploadStorageFailed    = 7008
	ErrUploadParamConflict    = 7009
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrUnauthorized:    {ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	ErrForbidden:       {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrConflict:        {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	// Video errors
	ErrVideoNotFound:      {ErrVideoNotFound, http.StatusNotFound, "Video not found"},
	ErrVideoInvalidInput:  {ErrVideoInvalidInput, http.StatusBadRequest, "Invalid video input"},
	ErrVideoUnauthorized:  {ErrVideoUnauthorized, http.StatusForbidden, "Unauthorized access to video"},
	ErrVideoNotPublished:  {ErrVideoNotPublished, http.StatusNotFound, "Video is not published"},
	ErrVideoCoverTooLarge: {ErrVideoCoverTooLarge, http.StatusBadRequest, "Cover image exceeds size limit"},
	ErrVideoStorageFailed: {ErrVideoStorageFailed, http.StatusInternalServerError, "Video storage operation failed"},

	// Upload errors
	ErrUploadSessionNotFound:  {ErrUploadSessionNotFound, http.StatusNotFound, "Upload session not found"},
	ErrUploadSessionExists:    {ErrUploadSessionExists, http.StatusConflict, "Upload session belongs to another user"},
	ErrUploadSessionCompleted: {ErrUploadSessionCompleted, http.StatusConflict, "Upload session already completed"},
	ErrUploadInvalidIndex:     {ErrUploadInvalidIndex, http.StatusBadRequest, "Chunk index out of declared range"},
	ErrUploadEmptyChunk:       {ErrUploadEmptyChunk, http.StatusBadRequest, "Chunk payload is empty"},
	ErrUploadIncomplete:       {ErrUploadIncomplete, http.StatusBadRequest, "Upload is missing chunks"},
	ErrUploadIntegrity:        {ErrUploadIntegrity, http.StatusUnprocessableEntity, "Assembled file hash does not match declared hash"},
	ErrUploadCorruptSession:   {ErrUploadCorruptSession, http.StatusInternalServerError, "Upload session state is corrupt"},
	ErrUploadStorageFailed:    {ErrUploadStorageFailed, http.StatusInternalServerError, "Upload storage operation failed"},
	ErrUploadParamConflict:    {ErrUploadParamConflict, http.StatusConflict, "Upload parameters conflict with existing session"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsSuccess checks if the code represents success
func IsSuccess(code int) bool {
	return code == Success
}

// IsClientError checks if the code represents a client error (4xx)
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// IsServerError checks if the code represents a server error (5xx)
func IsServerError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 500
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
