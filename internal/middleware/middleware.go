package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"taskflow/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const RequestIdKey contextKey = "request_id"

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get("X-Request-ID")
		if requestId == "" {
			requestId = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestId)

		ctx := context.WithValue(r.Context(), RequestIdKey, requestId)
		r = r.WithContext(ctx)

		next.ServeHTTP(w, r)
	})
}

type loggingWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (lw *loggingWriter) WriteHeader(code int) {
	if !lw.wroteHeader {
		lw.status = code
		lw.wroteHeader = true
		lw.ResponseWriter.WriteHeader(code)
	}

}

func (lw *loggingWriter) Write(b []byte) (int, error) {
	if !lw.wroteHeader {
		lw.WriteHeader(http.StatusOK)
	}

	n, err := lw.ResponseWriter.Write(b)
	lw.size += n
	return n, err
}

// Logging пишет пару записей на запрос. Проверки /health уходят в Debug,
// чтобы опрос балансировщика не забивал лог.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestId := GetRequestID(r.Context())
		quiet := r.URL.Path == "/health"

		inLevel := zap.InfoLevel
		if quiet {
			inLevel = zap.DebugLevel
		}
		logger.Log(
			inLevel,
			"HTTP_IN: Начало запроса",
			zap.String("request_id", requestId),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.String("client_ip", r.RemoteAddr),
		)

		lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lw, r)

		logLevel := inLevel
		switch {
		case lw.status >= 500:
			logLevel = zap.ErrorLevel
		case lw.status >= 400:
			logLevel = zap.WarnLevel
		}
		logger.Log(
			logLevel,
			"HTTP_OUT: Завершение запроса",
			zap.String("request_id", requestId),
			zap.Int("status", lw.status),
			zap.Int("bytes_written", lw.size),
			zap.Duration("ms", time.Since(start)),
		)
	})
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIdKey).(string); ok {
		return id
	}
	return ""
}

// Timeout ставит дедлайн на контекст запроса. Хендлер, который не успел
// ничего записать до дедлайна, получает 504.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{ResponseWriter: w}
			next.ServeHTTP(tw, r.WithContext(ctx))

			if tw.wroteHeader || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return
			}

			requestId := GetRequestID(r.Context())
			logger.Warn(
				"HTTP: Таймаут запроса",
				zap.String("request_id", requestId),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("client_ip", r.RemoteAddr),
				zap.Duration("ms", timeout),
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusGatewayTimeout)
			json.NewEncoder(w).Encode(map[string]any{
				"error":      "request_timeout",
				"message":    "Запрос выполнялся слишком долго",
				"request_id": requestId,
			})
		})
	}
}

type timeoutWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.wroteHeader = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.wroteHeader = true
	return tw.ResponseWriter.Write(b)
}

// fixedWindow считает запросы по ключу в окнах фиксированной длины
type fixedWindow struct {
	limit  int
	window time.Duration

	mtx       sync.Mutex
	counters  map[string]*windowCounter
	lastSweep time.Time
}

type windowCounter struct {
	count   int
	resetAt time.Time
}

func newFixedWindow(limit int, window time.Duration) *fixedWindow {
	return &fixedWindow{
		limit:    limit,
		window:   window,
		counters: make(map[string]*windowCounter),
	}
}

// allow учитывает запрос и возвращает остаток и момент сброса окна
func (fw *fixedWindow) allow(key string, now time.Time) (ok bool, remaining int, resetAt time.Time) {
	fw.mtx.Lock()
	defer fw.mtx.Unlock()

	// старые окна выбрасываем не чаще раза в окно
	if now.Sub(fw.lastSweep) > fw.window {
		for k, c := range fw.counters {
			if !now.Before(c.resetAt) {
				delete(fw.counters, k)
			}
		}
		fw.lastSweep = now
	}

	c, exists := fw.counters[key]
	if !exists || !now.Before(c.resetAt) {
		c = &windowCounter{resetAt: now.Add(fw.window)}
		fw.counters[key] = c
	}

	if c.count >= fw.limit {
		return false, 0, c.resetAt
	}
	c.count++
	return true, fw.limit - c.count, c.resetAt
}

// RateLimit ограничивает число запросов с одного IP в минуту; rpm <= 0 отключает лимит
func RateLimit(rpm int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rpm <= 0 {
			return next
		}
		limiter := newFixedWindow(rpm, time.Minute)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			ok, remaining, resetAt := limiter.allow(clientIP(r), now)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rpm))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				retryAfter := int(resetAt.Sub(now).Seconds())
				logger.Warn("HTTP: Превышен лимит запросов",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("client_ip", clientIP(r)),
				)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"error":       "rate_limit_exceeded",
					"message":     "Слишком много запросов. Попробуйте позже.",
					"retry_after": retryAfter,
					"request_id":  GetRequestID(r.Context()),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
