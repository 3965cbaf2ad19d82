package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/easyexithomes/leadmatch/internal/errors"
)

// respondError writes an AppError-aware JSON error body
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{
		"error":     "Internal server error",
		"retryable": errors.Retryable(err),
	}

	if appErr, ok := errors.As(err); ok {
		status = statusFor(appErr.Code)
		body["error"] = appErr.Message
		body["code"] = appErr.Code
		if appErr.Details != "" {
			body["details"] = appErr.Details
		}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func statusFor(code string) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeValidationError:
		return http.StatusBadRequest
	case errors.ErrCodeConflict:
		return http.StatusConflict
	case errors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// badRequest reports a malformed request that never reached a service
func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message, "code": errors.ErrCodeInvalidInput, "retryable": false})
}

// queryInt parses an optional integer query parameter
func queryInt(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, badParam(name, err)
	}
	return &v, nil
}

// queryPage parses the limit and offset query parameters. Zero means unset.
func queryPage(c *gin.Context) (limit, offset int, err error) {
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &limit}, {"offset", &offset}} {
		v, err := queryInt(c, p.name)
		if err != nil {
			return 0, 0, err
		}
		if v == nil {
			continue
		}
		if *v < 0 {
			return 0, 0, badParam(p.name, nil)
		}
		*p.dst = *v
	}
	return limit, offset, nil
}

func badParam(name string, cause error) error {
	return errors.InvalidInput("invalid "+name+" parameter", cause)
}
