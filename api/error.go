package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/s0up4200/libgate/filter"
	"github.com/s0up4200/libgate/model"
	"github.com/s0up4200/libgate/opac"
	"github.com/s0up4200/libgate/watchlist"
)

var (
	errMissingAuth = errors.New("student id and password required (HTTP basic auth)")
	errBadRequest  = errors.New("bad request")
)

type response struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse maps err onto a status code and aborts the request
func ErrorResponse(c *gin.Context, err error) {
	var (
		authErr     *opac.AuthError
		externalErr *opac.ExternalSystemError
		compileErr  *filter.CompilationError
		validErr    validator.ValidationErrors
	)

	status := http.StatusInternalServerError
	msg := "general error"

	switch {
	case errors.As(err, &authErr):
		msg = string(authErr.Reason)
		switch authErr.Reason {
		case opac.ReasonInvalidCredentials, opac.ReasonReauthFailed:
			status = http.StatusUnauthorized
		default:
			status = http.StatusBadGateway
		}
	case errors.As(err, &externalErr):
		msg = string(externalErr.Kind)
		if externalErr.Kind == opac.KindTimeout {
			status = http.StatusGatewayTimeout
		} else {
			status = http.StatusServiceUnavailable
		}
	case errors.Is(err, errMissingAuth), errors.Is(err, model.ErrMissingCredentials):
		c.Header("WWW-Authenticate", `Basic realm="libgate"`)
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.As(err, &validErr):
		fields := make([]string, 0, len(validErr))
		for _, fe := range validErr {
			fields = append(fields, fe.Field())
		}
		status, msg = http.StatusBadRequest, "missing or invalid fields: "+strings.Join(fields, ", ")
	case errors.As(err, &compileErr),
		errors.Is(err, opac.ErrInvalidInput),
		errors.Is(err, watchlist.ErrInvalidEntry),
		errors.Is(err, errBadRequest):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, watchlist.ErrDuplicate):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, watchlist.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	}

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, response{Error: msg, Message: err.Error()})
}

// bindError keeps validation failures intact and marks anything else
// (malformed JSON, wrong types) as a bad request
func bindError(err error) error {
	var validErr validator.ValidationErrors
	if errors.As(err, &validErr) {
		return err
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}
