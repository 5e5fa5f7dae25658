package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taroteka/tarot-miniapp/internal/http/middlewarectx"
)

func TestCacheMiddleware_MissThenHit(t *testing.T) {
	store, _ := newTestCache(t)
	var calls atomic.Int64

	handler := middlewarectx.CacheMiddleware(newNoopLogger(), store, middlewarectx.CacheOptions{
		TTL: time.Minute,
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"OK","data":[{"rating":5}]}`))
	}))

	first := doRequest(handler)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "max-age=60", first.Header().Get("Cache-Control"))
	assert.NotEmpty(t, first.Header().Get("X-Cache-Key"))

	second := doRequest(handler)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))

	assert.Equal(t, int64(1), calls.Load(), "обработчик должен вызываться один раз")
}

func TestCacheMiddleware_ExpiredEntryIsMiss(t *testing.T) {
	store, mr := newTestCache(t)
	var calls atomic.Int64

	handler := middlewarectx.CacheMiddleware(newNoopLogger(), store, middlewarectx.CacheOptions{
		TTL: time.Minute,
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	}))

	assert.Equal(t, "MISS", doRequest(handler).Header().Get("X-Cache"))
	mr.FastForward(2 * time.Minute)
	assert.Equal(t, "MISS", doRequest(handler).Header().Get("X-Cache"))
	assert.Equal(t, int64(2), calls.Load())
}

func TestCacheMiddleware_SkipsNonGet(t *testing.T) {
	store, _ := newTestCache(t)
	var calls atomic.Int64

	handler := middlewarectx.CacheMiddleware(newNoopLogger(), store, middlewarectx.CacheOptions{})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte(`{"status":"OK"}`))
		}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Empty(t, rr.Header().Get("X-Cache"))
	}
	assert.Equal(t, int64(2), calls.Load())
}

func TestCacheMiddleware_DoesNotStoreErrors(t *testing.T) {
	store, _ := newTestCache(t)
	var calls atomic.Int64

	handler := middlewarectx.CacheMiddleware(newNoopLogger(), store, middlewarectx.CacheOptions{})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"status":"Error"}`))
		}))

	assert.Equal(t, "MISS", doRequest(handler).Header().Get("X-Cache"))
	assert.Equal(t, "MISS", doRequest(handler).Header().Get("X-Cache"))
	assert.Equal(t, int64(2), calls.Load())
}

func TestCacheMiddleware_VaryHeadersSplitKeys(t *testing.T) {
	store, _ := newTestCache(t)
	var calls atomic.Int64

	handler := middlewarectx.CacheMiddleware(newNoopLogger(), store, middlewarectx.CacheOptions{
		TTL:         time.Minute,
		VaryHeaders: []string{"Accept-Language"},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"lang":"` + r.Header.Get("Accept-Language") + `"}`))
	}))

	request := func(lang string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews", nil)
		req.Header.Set("Accept-Language", lang)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	first := request("ru")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	// другой язык — другой ключ, а не попадание в чужую запись
	second := request("en")
	assert.Equal(t, "MISS", second.Header().Get("X-Cache"))
	assert.NotEqual(t, first.Header().Get("X-Cache-Key"), second.Header().Get("X-Cache-Key"))

	third := request("ru")
	assert.Equal(t, "HIT", third.Header().Get("X-Cache"))
	assert.Equal(t, `{"lang":"ru"}`, third.Body.String())

	assert.Equal(t, int64(2), calls.Load())
}

func TestCacheMiddleware_FailOpen(t *testing.T) {
	store, mr := newTestCache(t)
	mr.Close()

	handler := middlewarectx.CacheMiddleware(newNoopLogger(), store, middlewarectx.CacheOptions{})(okHandler())

	rr := doRequest(handler)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"status":"OK"}`, rr.Body.String())
}
