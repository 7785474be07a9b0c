package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/teccampos/incubadora/internal/http/respond"
)

// RateLimiter guarda um token bucket por chave (IP nas rotas públicas,
// usuário nas autenticadas). Buckets ociosos são descartados em varreduras
// periódicas.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter cria o limitador com reqPerSec e rajada burst por chave.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(reqPerSec),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// allow consome um token da chave. Quando negado, devolve a espera até o
// próximo token.
func (l *RateLimiter) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	l.sweep(now)

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL/2 {
		return
	}
	l.lastSweep = now
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.idleTTL {
			delete(l.buckets, k)
		}
	}
}

// Limit aplica o limitador usando a chave devolvida por keyFunc. Sem chave,
// a requisição passa.
func (l *RateLimiter) Limit(keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if ok, wait := l.allow(key); !ok {
				retry := int(math.Ceil(wait.Seconds()))
				if retry < 1 {
					retry = 1
				}
				log.Ctx(r.Context()).Warn().Str("chave", key).Int("retry_after", retry).Msg("limite de requisições atingido")
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				respond.Error(w, http.StatusTooManyRequests, "RATE_LIMIT", "Limite de requisições excedido", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IPRateLimit limita por IP do cliente.
func IPRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return limiter.Limit(func(r *http.Request) string {
		return "ip:" + realIPFromRequest(r)
	})
}

// UserRateLimit limita pelo subject do token. Deve rodar depois de Auth.
func UserRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return limiter.Limit(func(r *http.Request) string {
		if subject := GetSubject(r.Context()); subject != "" {
			return "user:" + subject
		}
		return ""
	})
}

func realIPFromRequest(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); ip != "" {
		first, _, _ := strings.Cut(ip, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
