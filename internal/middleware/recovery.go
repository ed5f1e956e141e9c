package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/docagenda/scheduling-api/pkg/httputil"
)

// Recovery converts a handler panic into an opaque 500 envelope so one bad
// request cannot take the process down.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("request_id", RequestIDFrom(c)).
				Msg("request panicked")

			c.AbortWithStatusJSON(http.StatusInternalServerError, httputil.Response{
				Success: false,
				Error: &httputil.Error{
					Code:    "unknown",
					Message: "internal server error",
				},
			})
		}()
		c.Next()
	}
}
