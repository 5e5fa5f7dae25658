package middlewarectx

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/taroteka/tarot-miniapp/internal/cache"
	"github.com/taroteka/tarot-miniapp/internal/lib/sl"
	"github.com/taroteka/tarot-miniapp/internal/metrics"
)

// CacheOptions задаёт параметры кеширования ответов.
type CacheOptions struct {
	TTL time.Duration
	// VaryHeaders — заголовки запроса, включаемые в ключ кеша.
	VaryHeaders []string
}

// DefaultCacheTTL — время жизни кешированного ответа по умолчанию.
const DefaultCacheTTL = 5 * time.Minute

type cachedResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// responseRecorder перехватывает ответ обработчика для сохранения в кеш.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body = append(r.body, b...)
	return r.ResponseWriter.Write(b)
}

// CacheMiddleware кеширует успешные GET-ответы в Redis. На попадании отдаёт
// сохранённое тело с заголовком X-Cache: HIT, на промахе перехватывает ответ
// обработчика и сохраняет его. Ошибки кеша не блокируют запрос.
func CacheMiddleware(log *slog.Logger, store *cache.Cache, opts CacheOptions) func(http.Handler) http.Handler {
	if opts.TTL <= 0 {
		opts.TTL = DefaultCacheTTL
	}
	maxAge := fmt.Sprintf("max-age=%d", int(opts.TTL.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.CacheMiddleware"

			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := cacheKey(r, opts.VaryHeaders)
			w.Header().Set("X-Cache-Key", key)

			var cached cachedResponse
			found, err := store.Get(r.Context(), key, &cached)
			if err != nil {
				log.Error("response cache unavailable", sl.Err(err))
			}
			if found {
				metrics.ResponseCacheTotal.WithLabelValues("hit").Inc()
				w.Header().Set("X-Cache", "HIT")
				w.Header().Set("Cache-Control", maxAge)
				w.Header().Set("Content-Type", cached.ContentType)
				w.WriteHeader(cached.StatusCode)
				_, _ = w.Write(cached.Body)
				return
			}

			metrics.ResponseCacheTotal.WithLabelValues("miss").Inc()
			w.Header().Set("X-Cache", "MISS")
			w.Header().Set("Cache-Control", maxAge)

			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode < 200 || rec.statusCode >= 300 {
				return
			}
			entry := cachedResponse{
				StatusCode:  rec.statusCode,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body,
			}
			if err := store.Set(r.Context(), key, entry, opts.TTL); err != nil {
				log.Error("failed to store response in cache", sl.Err(err))
			}
		})
	}
}

// ResponseCacheKeyPrefix — общий префикс ключей кеша ответов,
// используется для массовой инвалидации.
const ResponseCacheKeyPrefix = "respcache:"

func cacheKey(r *http.Request, varyHeaders []string) string {
	var sb strings.Builder
	sb.WriteString(r.Method)
	sb.WriteString(":")
	sb.WriteString(r.URL.Path)
	if r.URL.RawQuery != "" {
		sb.WriteString("?")
		sb.WriteString(r.URL.RawQuery)
	}
	for _, h := range varyHeaders {
		sb.WriteString("|")
		sb.WriteString(h)
		sb.WriteString("=")
		sb.WriteString(r.Header.Get(h))
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return ResponseCacheKeyPrefix + r.URL.Path + ":" + hex.EncodeToString(sum[:])[:16]
}
