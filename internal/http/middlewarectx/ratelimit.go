package middlewarectx

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"github.com/taroteka/tarot-miniapp/internal/cache"
	"github.com/taroteka/tarot-miniapp/internal/lib/sl"
	"github.com/taroteka/tarot-miniapp/internal/metrics"
)

// RateLimitOptions задаёт параметры фиксированного окна лимитера.
type RateLimitOptions struct {
	Window time.Duration
	Limit  int64
	// Skip позволяет пропустить лимитер для отдельных запросов.
	Skip func(r *http.Request) bool
	// SkipSuccessfulRequests возвращает слот лимита после ответа со статусом < 400.
	SkipSuccessfulRequests bool
	// SkipFailedRequests возвращает слот лимита после ответа со статусом >= 400.
	SkipFailedRequests bool
	// Now подменяется в тестах; по умолчанию time.Now.
	Now func() time.Time
}

// statusRecorder запоминает статус ответа для возврата слота лимита.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type rateLimitError struct {
	Error      string `json:"error"`
	RetryAfter int64  `json:"retryAfter"`
	Limit      int64  `json:"limit"`
	Remaining  int64  `json:"remaining"`
	ResetTime  int64  `json:"resetTime"`
}

// RateLimitMiddleware ограничивает частоту запросов на клиента фиксированными
// окнами в Redis. Клиент определяется по IP и отпечатку User-Agent. При
// недоступности Redis запросы пропускаются без ограничения.
func RateLimitMiddleware(log *slog.Logger, store *cache.Cache, opts RateLimitOptions) func(http.Handler) http.Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RateLimitMiddleware"

			if opts.Skip != nil && opts.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			now := opts.Now()
			windowStart := now.Truncate(opts.Window)
			resetTime := windowStart.Add(opts.Window)
			key := fmt.Sprintf("ratelimit:%s:%d", clientIdentity(r), windowStart.Unix())

			count, err := store.Increment(r.Context(), key, 1, opts.Window)
			if err != nil {
				// лимитер не должен ронять трафик при недоступном Redis
				log.Error("rate limiter unavailable, passing request through", sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			remaining := opts.Limit - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(opts.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if count > opts.Limit {
				retryAfter := int64(resetTime.Sub(now).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				metrics.RateLimitRejectedTotal.Inc()
				log.Info("rate limit exceeded",
					slog.String("key", key),
					slog.Int64("count", count))
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, rateLimitError{
					Error:      "too many requests",
					RetryAfter: retryAfter,
					Limit:      opts.Limit,
					Remaining:  remaining,
					ResetTime:  resetTime.Unix(),
				})
				return
			}

			if !opts.SkipSuccessfulRequests && !opts.SkipFailedRequests {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			succeeded := rec.status < http.StatusBadRequest
			if (succeeded && opts.SkipSuccessfulRequests) || (!succeeded && opts.SkipFailedRequests) {
				if _, err := store.Decrement(r.Context(), key, 1); err != nil {
					log.Error("failed to return rate limit slot", sl.Err(err))
				}
			}
		})
	}
}

// clientIdentity строит идентификатор клиента из IP и отпечатка User-Agent.
func clientIdentity(r *http.Request) string {
	ip := r.Header.Get("X-Real-IP")
	if ip == "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		} else {
			ip = r.RemoteAddr
		}
	}
	sum := sha256.Sum256([]byte(r.UserAgent()))
	return ip + ":" + hex.EncodeToString(sum[:])[:12]
}
