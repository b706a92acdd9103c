package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/blogd/pkg/authn"
	"github.com/aussiebroadwan/blogd/pkg/slogx"
	"github.com/caarlos0/env/v11"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket profile. Name labels the metrics.
type RateLimitConfig struct {
	Name              string
	RequestsPerWindow int           `env:"REQUESTS"`
	Window            time.Duration `env:"WINDOW"`
	Burst             int           `env:"BURST"`
}

// Profiles. Each can be overridden with RATELIMIT_{NAME}_{REQUESTS,WINDOW,BURST},
// e.g. RATELIMIT_AUTH_REQUESTS=50 RATELIMIT_AUTH_WINDOW=30s.
var (
	// AuthLimit guards register and login against credential stuffing.
	AuthLimit = RateLimitConfig{Name: "auth", RequestsPerWindow: 5, Window: time.Minute, Burst: 5}
	// WriteLimit applies to authenticated mutations.
	WriteLimit = RateLimitConfig{Name: "write", RequestsPerWindow: 30, Window: time.Minute, Burst: 30}
	// ReadLimit applies to public reads.
	ReadLimit = RateLimitConfig{Name: "read", RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	AuthLimit = ParseRateLimitFromEnv(AuthLimit)
	WriteLimit = ParseRateLimitFromEnv(WriteLimit)
	ReadLimit = ParseRateLimitFromEnv(ReadLimit)
}

// ParseRateLimitFromEnv overlays RATELIMIT_{NAME}_* variables on def.
// Non-positive values keep the default for that field; a value that does
// not parse discards every override for the profile.
func ParseRateLimitFromEnv(def RateLimitConfig) RateLimitConfig {
	cfg := def
	prefix := "RATELIMIT_" + strings.ToUpper(def.Name) + "_"
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: prefix}); err != nil {
		return def
	}
	if cfg.RequestsPerWindow <= 0 {
		cfg.RequestsPerWindow = def.RequestsPerWindow
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	return cfg
}

// KeyExtractor groups requests into buckets. An empty key skips limiting.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor uses the first X-Forwarded-For hop, then X-Real-IP, then
// the peer address.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// UserIDKeyExtractor uses the identity stored by Guard.
func UserIDKeyExtractor(r *http.Request) string {
	if ac, ok := authn.FromContext(r.Context()); ok {
		return ac.UserID
	}
	id, _ := UserIDFromContext(r.Context())
	return id
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if key := extract(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// maxPeekBytes bounds how much of a JSON body FieldKeyExtractor reads.
const maxPeekBytes = 64 << 10

// FieldKeyExtractor reads a string field from a JSON body or, for any other
// content type, from the form. A JSON body is restored so the handler can
// decode it again.
func FieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mt != "application/json" {
			if err := r.ParseForm(); err != nil {
				return ""
			}
			return r.FormValue(field)
		}
		if r.Body == nil {
			return ""
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil {
			return ""
		}

		var fields map[string]json.RawMessage
		if json.Unmarshal(body, &fields) != nil {
			return ""
		}
		var v string
		if json.Unmarshal(fields[field], &v) != nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(v))
	}
}

// keyedLimiters holds one limiter per key and drops idle ones every few
// minutes.
type keyedLimiters struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu        sync.Mutex
	lastSweep time.Time
}

func (k *keyedLimiters) get(key string) *rate.Limiter {
	if l, ok := k.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}
	l, _ := k.limiters.LoadOrStore(key, rate.NewLimiter(k.rate, k.burst))
	k.maybeSweep()
	return l.(*rate.Limiter)
}

// maybeSweep forgets limiters whose bucket has refilled; they carry no state.
func (k *keyedLimiters) maybeSweep() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if time.Since(k.lastSweep) < 5*time.Minute {
		return
	}
	k.lastSweep = time.Now()

	k.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(k.burst) {
			k.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitMiddleware rejects requests over the profile with 429 and a
// Retry-After header.
func RateLimitMiddleware(cfg RateLimitConfig, extract KeyExtractor) Middleware {
	k := &keyedLimiters{
		rate:      rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:     cfg.Burst,
		lastSweep: time.Now(),
	}
	profile := cfg.Name
	if profile == "" {
		profile = "custom"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extract(r)
			if key == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: no key, allowing request", "profile", profile)
				next.ServeHTTP(w, r)
				return
			}

			limiter := k.get(key)
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			res := limiter.Reserve()
			retryAfter := max(int(res.Delay().Seconds()), 1)
			res.Cancel()

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", cfg.Window.String())

			mRateLimited.WithLabelValues(profile).Inc()
			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"profile", profile,
				"path", r.URL.Path,
				"retry_after", retryAfter,
			)
			ErrRateLimited.Write(w)
		})
	}
}

// RateLimitByIP limits by client address.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, IPKeyExtractor)
}

// RateLimitByUser limits by authenticated user plus address. It belongs
// inside Guard.
func RateLimitByUser(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", UserIDKeyExtractor, IPKeyExtractor))
}

// RateLimitByIPAndField limits by address plus a body field, typically the
// username on login.
func RateLimitByIPAndField(cfg RateLimitConfig, field string) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", IPKeyExtractor, FieldKeyExtractor(field)))
}
