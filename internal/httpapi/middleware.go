package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"brandbuzz/pkg/logger"
	"brandbuzz/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const maxPeekBytes = 1 << 20

// CORS allows the dashboard origins. An empty list allows any origin without
// credentials.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		ExposeHeaders: []string{"Content-Length", "X-Request-Id"},
		MaxAge:        time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// RateLimit caps requests per client IP per minute in Redis. Redis failures
// let the request through.
func RateLimit(rdb *redis.Client, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || perMinute <= 0 {
			c.Next()
			return
		}
		key := "ratelimit:" + c.ClientIP() + ":" + time.Now().UTC().Format("200601021504")
		ok, err := utils.AllowFixedWindow(c.Request.Context(), rdb, key, perMinute, time.Minute)
		if err != nil {
			logger.FromGin(c).Warn("rate limit check failed", "err", err)
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "too many requests"})
			return
		}
		c.Next()
	}
}

// UserIDFromRequest returns the acting user id from the userId query value
// or, for JSON bodies, the top-level userId field found within the first
// maxPeekBytes. The full body is handed on to the handler unchanged.
func UserIDFromRequest(c *gin.Context) string {
	if id := c.Query("userId"); id != "" {
		return id
	}
	if c.Request.Body == nil || !strings.HasPrefix(c.ContentType(), "application/json") {
		return ""
	}
	orig := c.Request.Body
	var peeked bytes.Buffer
	dec := json.NewDecoder(io.TeeReader(io.LimitReader(orig, maxPeekBytes), &peeked))
	id := topLevelUserID(dec)
	c.Request.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(&peeked, orig), orig}
	return id
}

func topLevelUserID(dec *json.Decoder) string {
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return ""
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		if key, _ := tok.(string); key == "userId" {
			var id string
			if dec.Decode(&id) != nil {
				return ""
			}
			return id
		}
		var skip json.RawMessage
		if dec.Decode(&skip) != nil {
			return ""
		}
	}
	return ""
}
