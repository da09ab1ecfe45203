package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/t77yq/alert-dashboard/internal/apperr"
)

// errorBody is the JSON envelope of every failed request
type errorBody struct {
	Status  string              `json:"status"`
	Code    apperr.Code         `json:"code"`
	Message string              `json:"message"`
	Fields  []apperr.FieldError `json:"fields,omitempty"`
}

// writeError aborts the request with the client-facing form of err. Errors
// that are not *apperr.Error are logged and reported as internal errors.
func (s *Server) writeError(c *gin.Context, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		s.logger.Error("Unhandled request error",
			zap.String("request_id", requestIDFrom(c)),
			zap.Error(err))
		ae = apperr.New(apperr.CodeInternal, "Internal server error", err)
	}

	if ae.Code == apperr.CodeInternal && ae.Err != nil {
		_ = c.Error(ae.Err)
	}

	c.AbortWithStatusJSON(apperr.Status(ae), errorBody{
		Status:  "error",
		Code:    ae.Code,
		Message: ae.Message,
		Fields:  ae.Fields,
	})
}
