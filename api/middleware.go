package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/s0up4200/libgate/model"
)

const (
	requestIDHeader = "X-Request-ID"
	credentialsKey  = "libgate.credentials"
	loggerKey       = "libgate.logger"
)

// requestID tags every request with an id, reusing a caller supplied one
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Header(requestIDHeader, id)
		c.Set(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger logs each request once it completes
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		l := logger.With().Str("request_id", c.GetString(requestIDHeader)).Logger()
		c.Set(loggerKey, l)

		c.Next()

		status := c.Writer.Status()
		event := l.Debug()
		switch {
		case status >= 500:
			event = l.Error()
			if last := c.Errors.Last(); last != nil {
				event = event.Err(last.Err)
			}
		case status >= 400:
			event = l.Info()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	}
}

// basicCredentials reads the student's credentials from HTTP basic auth
func basicCredentials(c *gin.Context) (model.Credentials, error) {
	sid, password, ok := c.Request.BasicAuth()
	if !ok {
		return model.Credentials{}, errMissingAuth
	}
	return model.Credentials{StudentID: model.StudentID(sid), Password: password}, nil
}

// requireLibLogin authenticates the student from HTTP basic auth against
// the OPAC, reusing a stored session when the password matches
func (h *Handler) requireLibLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		creds, err := basicCredentials(c)
		if err != nil {
			ErrorResponse(c, err)
			return
		}
		if err := h.lib.Verify(c.Request.Context(), creds); err != nil {
			ErrorResponse(c, err)
			return
		}
		c.Set(credentialsKey, creds)
		c.Next()
	}
}

func credentials(c *gin.Context) model.Credentials {
	creds, _ := c.MustGet(credentialsKey).(model.Credentials)
	return creds
}

func requestLog(c *gin.Context) zerolog.Logger {
	if l, ok := c.Get(loggerKey); ok {
		return l.(zerolog.Logger)
	}
	return zerolog.Nop()
}
