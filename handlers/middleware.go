package handlers

import (
	"context"
	"errors"
	"net/http"
	"projectcamp/auth"
	"projectcamp/logging"
	"projectcamp/models"
	"projectcamp/store"
	"projectcamp/utils"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// step wraps a handler with one concern. Routes list their steps explicitly.
type step func(http.Handler) http.Handler

// chain applies steps so that the first one runs first.
func chain(h http.Handler, steps ...step) http.Handler {
	for i := len(steps) - 1; i >= 0; i-- {
		h = steps[i](h)
	}
	return h
}

type ctxKey int

const userIDKey ctxKey = iota

// UserIDFrom returns the caller resolved by the guard.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func record(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := record(w)
		next.ServeHTTP(rec, r)
		logging.WithRequest(r.Method, r.URL.Path).Info("request",
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// guard resolves the caller from the access token. Every failure gets the
// same response.
type guard struct {
	tokens *auth.TokenIssuer
	store  store.Store
	known  *cache.Cache
}

func newGuard(tokens *auth.TokenIssuer, st store.Store) *guard {
	return &guard{
		tokens: tokens,
		store:  st,
		known:  cache.New(2*time.Minute, 10*time.Minute),
	}
}

func (g *guard) userExists(ctx context.Context, userID string) (bool, error) {
	if _, ok := g.known.Get(userID); ok {
		return true, nil
	}
	_, err := g.store.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	g.known.SetDefault(userID, struct{}{})
	return true, nil
}

func (g *guard) require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unauthorized := models.Unauthenticated("Unauthorized request")

		userID, err := g.tokens.VerifyAccessToken(utils.BearerToken(r))
		if err != nil {
			writeError(w, r, unauthorized)
			return
		}
		exists, err := g.userExists(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !exists {
			writeError(w, r, unauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// ipRateLimiter keeps one token bucket per client IP; idle buckets expire.
type ipRateLimiter struct {
	mu         sync.Mutex
	limiters   *cache.Cache
	limit      rate.Limit
	burst      int
	trustProxy bool
}

func newIPRateLimiter(perMinute int, trustProxy bool) *ipRateLimiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	return &ipRateLimiter{
		limiters:   cache.New(10*time.Minute, 10*time.Minute),
		limit:      rate.Every(time.Minute / time.Duration(perMinute)),
		burst:      perMinute,
		trustProxy: trustProxy,
	}
}

func (l *ipRateLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.limiters.Get(ip); ok {
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	l.limiters.SetDefault(ip, limiter)
	return limiter
}

func (l *ipRateLimiter) step(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiterFor(utils.GetIP(r, l.trustProxy)).Allow() {
			writeError(w, r, models.TooManyRequests("Too many requests, please try again later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "projectcamp_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "projectcamp_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *metrics) step(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := record(w)
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// cors answers preflight requests and tags responses for allowed origins.
// "*" in origins allows any origin.
func cors(origins []string) step {
	allowAny := slices.Contains(origins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAny || slices.Contains(origins, origin)) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Methods", strings.Join([]string{
					http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
				}, ", "))
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
