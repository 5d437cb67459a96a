package middleware

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	ierr "github.com/lodgepoint/lodgepoint/internal/errors"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Display string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler renders errors attached to the gin context. Hints become the
// display message; reportable details become the details map; internals
// never leak to the caller.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		response := ErrorResponse{
			Success: false,
			Error: ErrorDetail{
				Display: displayMessage(err),
				Details: safeDetails(err),
			},
		}
		c.JSON(ierr.HTTPStatusFromErr(err), response)
	}
}

func displayMessage(err error) string {
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}

// safeDetails collects the structured details the error builder encoded as
// json safe-detail payloads.
func safeDetails(err error) map[string]any {
	details := make(map[string]any)
	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			if !strings.HasPrefix(payload, "__json__:") {
				continue
			}
			var decoded map[string]any
			if jsonErr := json.Unmarshal([]byte(strings.TrimPrefix(payload, "__json__:")), &decoded); jsonErr == nil {
				for k, v := range decoded {
					details[k] = v
				}
			}
		}
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
