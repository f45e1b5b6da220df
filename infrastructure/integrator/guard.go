package integrator

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/vfg2006/ads-sync-api/infrastructure/ratelimit"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/metrics"
)

// RequestLimiter é satisfeito por *ratelimit.Limiter
type RequestLimiter interface {
	Acquire(ctx context.Context, provider domain.Provider, accountID string) (*ratelimit.Permit, error)
}

type GuardOptions struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	BreakerTimeout  time.Duration
}

func DefaultGuardOptions() GuardOptions {
	return GuardOptions{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		BreakerTimeout:  time.Minute,
	}
}

// Guard envolve cada requisição ao provedor: permissão do limitador,
// circuit breaker e novas tentativas para falhas transitórias
type Guard struct {
	provider domain.Provider
	limiter  RequestLimiter
	breaker  *gobreaker.CircuitBreaker[[]byte]
	opts     GuardOptions
}

func NewGuard(provider domain.Provider, limiter RequestLimiter, opts GuardOptions) *Guard {
	name := string(provider) + "-api"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// só falhas do provedor abrem o circuito
		IsSuccessful: func(err error) bool {
			return err == nil || domain.KindOf(err) != domain.KindTransient
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker mudou de estado")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Guard{provider: provider, limiter: limiter, breaker: cb, opts: opts}
}

// Do executa call com as proteções. Apenas Transient é repetido aqui;
// RateLimited, AuthExpired e Validation sobem para o job decidir.
func (g *Guard) Do(ctx context.Context, accountID string, call func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	var body []byte

	operation := func() error {
		if g.limiter != nil {
			permit, err := g.limiter.Acquire(ctx, g.provider, accountID)
			if err != nil {
				return backoff.Permanent(err)
			}
			defer permit.Release()
		}

		started := time.Now()
		out, err := g.breaker.Execute(func() ([]byte, error) {
			return call(ctx)
		})
		metrics.ObserveUpstream(string(g.provider), started, err)

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				se := domain.NewSyncError(domain.KindTransient, string(g.provider)+".breaker", err)
				se.Provider = g.provider
				se.RetryAfter = g.opts.BreakerTimeout
				return backoff.Permanent(se)
			}
			if domain.KindOf(err) == domain.KindTransient && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}

		body = out
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.opts.InitialInterval
	b.MaxInterval = g.opts.MaxInterval

	notify := func(err error, wait time.Duration) {
		logrus.WithError(err).WithFields(logrus.Fields{
			"provider":   g.provider,
			"account_id": accountID,
		}).Warnf("Falha transitória, nova tentativa em %s", wait.Round(time.Millisecond))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, g.opts.MaxRetries), ctx), notify); err != nil {
		return nil, err
	}
	return body, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}
