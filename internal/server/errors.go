package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/archive"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/custom"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/detector"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/parser"
)

// ErrorCode is the stable machine-readable error kind in API responses.
type ErrorCode string

const (
	CodeUnknownDetector  ErrorCode = "UNKNOWN_DETECTOR"
	CodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	CodeNoValidEntries   ErrorCode = "NO_VALID_ENTRIES"
	CodeExecutionFailed  ErrorCode = "DETECTOR_EXECUTION_FAILED"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeTimeout          ErrorCode = "TIMEOUT"
	CodeInternalError    ErrorCode = "INTERNAL_ERROR"
)

var errAnalysisNotFound = errors.New("analysis not found")

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code    ErrorCode `json:"code"`
		Message string    `json:"message"`
	} `json:"error"`
}

// classify maps an error kind to an HTTP status and code.
func classify(err error) (int, ErrorCode) {
	switch {
	case errors.Is(err, detector.ErrUnknownDetector):
		return http.StatusNotFound, CodeUnknownDetector
	case errors.Is(err, errAnalysisNotFound), errors.Is(err, custom.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, archive.ErrExtraction):
		return http.StatusUnprocessableEntity, CodeExtractionFailed
	case errors.Is(err, parser.ErrNoEntries):
		return http.StatusUnprocessableEntity, CodeNoValidEntries
	case errors.Is(err, custom.ErrExecution):
		return http.StatusBadGateway, CodeExecutionFailed
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}

func writeError(c *gin.Context, status int, code ErrorCode, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	c.AbortWithStatusJSON(status, body)
}

// fail writes err using its classified status and code.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "code", code, "error", err)
	}
	writeError(c, status, code, err.Error())
}

func badRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, CodeBadRequest, message)
}
