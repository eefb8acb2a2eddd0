package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
)

const (
	HeaderError  = "X-Storefront-Error"
	HeaderAlert  = "X-Storefront-Alert"
	HeaderParams = "X-Storefront-Params"
	HeaderETag   = "ETag"

	appName = "storefront"
)

type APIError struct {
	Message string                `json:"message"`
	Code    string                `json:"code,omitempty"`
	Fields  []domainagg.Violation `json:"fields,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	respondError(c, status, code, err, nil)
}

func respondError(c *gin.Context, status int, code string, err error, fields []domainagg.Violation) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	if code != "" {
		c.Header(HeaderError, "error."+code)
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
			Fields:  fields,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, location string, payload any) {
	if location != "" {
		c.Header("Location", location)
	}
	c.JSON(http.StatusCreated, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Alert tags a write response with storefront.<entity>.<action> and the id it touched.
func Alert(c *gin.Context, entity, action, param string) {
	c.Header(HeaderAlert, appName+"."+entity+"."+action)
	if param != "" {
		c.Header(HeaderParams, param)
	}
}

// ETag exposes an entity version as a strong validator usable in If-Match.
func ETag(c *gin.Context, version int) {
	c.Header(HeaderETag, strconv.Quote(strconv.Itoa(version)))
}
