package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
)

// ResponseCache caches successful GET responses of read-model routes. Keys
// start with the route's prefix so the read model's invalidation also drops
// the cached responses.
type ResponseCache struct {
	cache      providers.CacheProvider
	ttlSeconds int
}

// NewResponseCache creates a response cache. A nil cache or non-positive ttl
// disables it.
func NewResponseCache(cache providers.CacheProvider, ttlSeconds int) *ResponseCache {
	return &ResponseCache{cache: cache, ttlSeconds: ttlSeconds}
}

// Cached wraps next, storing its responses under keyPrefix
func (m *ResponseCache) Cached(keyPrefix string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m == nil || m.cache == nil || m.ttlSeconds <= 0 || r.Method != http.MethodGet {
			next(w, r)
			return
		}

		ctx := r.Context()
		logger := observability.LoggerFromContext(ctx)
		cacheKey := keyPrefix + "http:" + hashRequest(r)

		if cached, err := m.cache.Get(ctx, cacheKey); err == nil {
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(ctx, cacheKey, recorder.body.Bytes(), m.ttlSeconds); err != nil {
				logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache response")
			}
		}
	}
}

func hashRequest(r *http.Request) string {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
