package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/saarthak-backend/internal/data/gateway"
	"github.com/yungbote/saarthak-backend/internal/platform/apierr"
)

type APIError struct {
	Message string             `json:"message"`
	Code    string             `json:"code,omitempty"`
	Fields  apierr.FieldErrors `json:"fields,omitempty"`
}

// ErrorEnvelope is the body of every failed API call. A failed mutation
// still carries its notification, and a failed form submission its form.
type ErrorEnvelope struct {
	Error        APIError `json:"error"`
	Notification any      `json:"notification,omitempty"`
	Form         any      `json:"form,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// Classify maps a service error to its HTTP status, code and user-facing
// message. Backend details never leak into the message.
func Classify(err error) (int, APIError) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		msg := ae.Error()
		if len(ae.Fields) > 0 {
			msg = "Please fix the highlighted fields"
		}
		return ae.Status, APIError{Message: msg, Code: ae.Code, Fields: ae.Fields}
	}
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Op == "upload" {
		return http.StatusBadGateway, APIError{Message: "File upload failed", Code: "upload_failed"}
	}
	switch gateway.KindOf(err) {
	case gateway.KindConstraint:
		return http.StatusConflict, APIError{Message: "The change conflicts with existing data", Code: "constraint"}
	case gateway.KindNotFound:
		return http.StatusNotFound, APIError{Message: "Not found", Code: "not_found"}
	case gateway.KindUnauthorized:
		return http.StatusUnauthorized, APIError{Message: "Not authorized", Code: "unauthorized"}
	case gateway.KindNetwork:
		return http.StatusBadGateway, APIError{Message: "The data service is unavailable", Code: "network"}
	default:
		return http.StatusBadGateway, APIError{Message: "Something went wrong", Code: "unknown"}
	}
}

// RespondErr renders err through Classify. extra may supply the
// notification and form of a failed mutation.
func RespondErr(c *gin.Context, err error, extra ...func(*ErrorEnvelope)) {
	status, apiErr := Classify(err)
	env := ErrorEnvelope{Error: apiErr}
	for _, fn := range extra {
		fn(&env)
	}
	c.JSON(status, env)
}

func WithNotification(n any) func(*ErrorEnvelope) {
	return func(e *ErrorEnvelope) { e.Notification = n }
}

func WithForm(f any) func(*ErrorEnvelope) {
	return func(e *ErrorEnvelope) { e.Form = f }
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
