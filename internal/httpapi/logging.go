package httpapi

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	// zerolog level names are accepted too, so the process log level can be
	// passed through unchanged.
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "", "disabled":
		return LevelOff
	case "error", "warn", "warning", "fatal", "panic":
		return LevelError
	case "info":
		return LevelInfo
	case "debug", "trace":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("BARK_HTTP_LOG_LEVEL"))

// SetDefaultLogLevel overrides the level used when a request carries no override.
func SetDefaultLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// RequestLogger logs one line per request once it completes. Errors (status
// >= 500) are logged at LevelError and above; everything else needs LevelInfo.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lvl := requestLogLevel(r)
		if lvl == LevelOff {
			next.ServeHTTP(w, r)
			return
		}
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sr, r)
		if sr.status < 500 && lvl < LevelInfo {
			return
		}
		dur := time.Since(start)
		rid := middleware.GetReqID(r.Context())
		if zlog == nil {
			log.Printf("http %s %s status=%d dur=%s request_id=%s", r.Method, r.URL.Path, sr.status, dur, rid)
			return
		}
		z := zlog.Info()
		if sr.status >= 500 {
			z = zlog.Error()
		}
		z = z.Str("method", r.Method).Str("path", r.URL.Path).Int("status", sr.status).Dur("dur", dur)
		if rid != "" {
			z = z.Str("request_id", rid)
		}
		if lvl >= LevelDebug {
			z = z.Str("remote", r.RemoteAddr).Str("user_agent", r.UserAgent())
		}
		z.Msg("http request")
	})
}
