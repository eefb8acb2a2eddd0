package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
)

// RespondAggregateError writes err as an error envelope. Aggregate codes pick the
// status; transport errors carry their own.
func RespondAggregateError(c *gin.Context, err error) {
	if apiErr, ok := apierr.As(err); ok {
		RespondError(c, apiErr.Status, apiErr.Code, apiErr)
		return
	}
	status, key := statusFor(err)
	var fields []domainagg.Violation
	if domainagg.IsCode(err, domainagg.CodeValidation) {
		fields = domainagg.ViolationsOf(err)
		if len(fields) > 0 && fields[0].Reason != "" && isKey(fields[0].Reason) {
			key = fields[0].Reason
		}
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	respondError(c, status, key, err, fields)
}

func statusFor(err error) (int, string) {
	switch domainagg.CodeOf(err) {
	case domainagg.CodeValidation:
		return http.StatusBadRequest, "validation"
	case domainagg.CodeNotFound:
		return http.StatusNotFound, "notfound"
	case domainagg.CodeConflict:
		return http.StatusConflict, "conflict"
	case domainagg.CodePreconditionFailed, domainagg.CodeInvariantViolation:
		return http.StatusBadRequest, "precondition"
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable, "retryable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// isKey accepts single-token reasons such as idexists or required as error keys.
func isKey(reason string) bool {
	for _, r := range reason {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
