package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/archon/alfredd/internal/services"
	"github.com/archon/alfredd/internal/supervisor"
)

func sanitizeBase(bp string) string {
	bp = strings.TrimSpace(bp)
	if bp == "" || bp == "/" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	bp = strings.TrimRight(bp, "/")
	return bp
}

// isSafeModelName validates model references such as "qwen2.5:7b" or
// "library/llama3:latest" before they are forwarded to the model runtime.
// Allowed characters: A-Z a-z 0-9 . _ - : / and no "..".
func isSafeModelName(s string) bool {
	if s == "" || len(s) > 256 {
		return false
	}
	if strings.Contains(s, "..") || strings.HasPrefix(s, "/") || strings.HasSuffix(s, "/") {
		return false
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-' || r == ':' || r == '/' {
			continue
		}
		return false
	}
	return !strings.Contains(s, `\`)
}

// statusFor maps core errors onto HTTP codes. Upstream callers pick 502
// themselves.
func statusFor(err error) int {
	switch {
	case errors.Is(err, supervisor.ErrAlreadyRunning), errors.Is(err, supervisor.ErrNotRunning):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnknownService):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, code int, err error) {
	writeJSON(c, code, errorResp{Error: err.Error()})
}

func writeJSON(c *gin.Context, code int, v any) {
	c.Header("Content-Type", "application/json")
	c.Status(code)
	_ = json.NewEncoder(c.Writer).Encode(v)
}
