package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/metrics"
)

// Checa as duas janelas antes de incrementar; só incrementa se ambas passarem
const requestLuaScript = `
local minuteKey = KEYS[1]
local hourKey = KEYS[2]
local minuteLimit = tonumber(ARGV[1])
local hourLimit = tonumber(ARGV[2])
local minuteTTL = tonumber(ARGV[3])
local hourTTL = tonumber(ARGV[4])

local minCurrent = tonumber(redis.call("GET", minuteKey) or "0")
local hourCurrent = tonumber(redis.call("GET", hourKey) or "0")

if minuteLimit > 0 and minCurrent + 1 > minuteLimit then
    return {0, 1, minCurrent}
end
if hourLimit > 0 and hourCurrent + 1 > hourLimit then
    return {0, 2, hourCurrent}
end

local newMin = redis.call("INCR", minuteKey)
if newMin == 1 then
    redis.call("EXPIRE", minuteKey, minuteTTL)
end
local newHour = redis.call("INCR", hourKey)
if newHour == 1 then
    redis.call("EXPIRE", hourKey, hourTTL)
end

return {1, 0, newMin}
`

// O TTL é renovado a cada aquisição para que um processo morto não prenda o contador
const acquireJobLuaScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local current = tonumber(redis.call("GET", key) or "0")
if limit > 0 and current + 1 > limit then
    return {0, current}
end

local newVal = redis.call("INCR", key)
redis.call("EXPIRE", key, ttl)
return {1, newVal}
`

const releaseJobLuaScript = `
local key = KEYS[1]
local current = tonumber(redis.call("GET", key) or "0")
if current <= 0 then
    return 0
end
return redis.call("DECR", key)
`

const (
	denyMinute = 1
	denyHour   = 2
)

type Limits struct {
	PerMinute      int
	PerHour        int
	ConcurrentJobs int
}

// Permit deve ser liberado com Release, normalmente via defer
type Permit struct {
	once    sync.Once
	release func()
}

func (p *Permit) Release() {
	if p == nil || p.release == nil {
		return
	}
	p.once.Do(p.release)
}

type Limiter struct {
	client         redis.UniversalClient
	limits         map[domain.Provider]Limits
	concurrencyTTL time.Duration
	now            func() time.Time

	requestScript    *redis.Script
	acquireJobScript *redis.Script
	releaseJobScript *redis.Script
}

func New(client redis.UniversalClient, limits map[domain.Provider]Limits, concurrencyTTL time.Duration) *Limiter {
	if concurrencyTTL <= 0 {
		concurrencyTTL = 30 * time.Minute
	}
	return &Limiter{
		client:           client,
		limits:           limits,
		concurrencyTTL:   concurrencyTTL,
		now:              time.Now,
		requestScript:    redis.NewScript(requestLuaScript),
		acquireJobScript: redis.NewScript(acquireJobLuaScript),
		releaseJobScript: redis.NewScript(releaseJobLuaScript),
	}
}

// NewFromConfig monta os limites por provedor a partir da configuração
func NewFromConfig(client redis.UniversalClient, cfg config.RateLimit) *Limiter {
	return New(client, map[domain.Provider]Limits{
		domain.ProviderMeta: {
			PerMinute:      cfg.MetaPerMinute,
			PerHour:        cfg.MetaPerHour,
			ConcurrentJobs: cfg.MetaConcurrentJobs,
		},
		domain.ProviderGoogle: {
			PerMinute:      cfg.GooglePerMinute,
			PerHour:        cfg.GooglePerHour,
			ConcurrentJobs: cfg.GoogleConcurrentJob,
		},
	}, cfg.ConcurrencyTTL)
}

// Acquire reserva uma requisição na janela por minuto e por hora de (provedor, conta).
// Janelas fixas não têm o que devolver; o Permit existe para manter o mesmo contrato do AcquireJob.
func (l *Limiter) Acquire(ctx context.Context, provider domain.Provider, accountID string) (*Permit, error) {
	limits := l.limits[provider]
	now := l.now()

	minuteKey := fmt.Sprintf("ratelimit:%s:%s:min:%d", provider, accountID, now.Unix()/60)
	hourKey := fmt.Sprintf("ratelimit:%s:%s:hour:%d", provider, accountID, now.Unix()/3600)

	result, err := l.requestScript.Run(ctx, l.client,
		[]string{minuteKey, hourKey},
		limits.PerMinute,
		limits.PerHour,
		120,  // TTL da janela de minuto
		7200, // TTL da janela de hora
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	if result[0].(int64) == 1 {
		return &Permit{}, nil
	}

	var (
		retryAfter time.Duration
		reason     string
	)
	switch result[1].(int64) {
	case denyMinute:
		retryAfter = time.Duration(60-now.Unix()%60) * time.Second
		reason = "minute"
	case denyHour:
		retryAfter = time.Duration(3600-now.Unix()%3600) * time.Second
		reason = "hour"
	}

	metrics.RateLimitRejections.WithLabelValues(string(provider), reason).Inc()
	logrus.WithFields(logrus.Fields{
		"provider":    provider,
		"account_id":  accountID,
		"window":      reason,
		"retry_after": retryAfter,
	}).Debug("Limite de requisições atingido")

	se := domain.NewRateLimitedError("ratelimit.Acquire", retryAfter)
	se.Provider = provider
	return nil, se
}

// AcquireJob limita quantos jobs de um provedor rodam ao mesmo tempo
func (l *Limiter) AcquireJob(ctx context.Context, provider domain.Provider) (*Permit, error) {
	limits := l.limits[provider]
	key := fmt.Sprintf("ratelimit:%s:jobs", provider)

	result, err := l.acquireJobScript.Run(ctx, l.client,
		[]string{key},
		limits.ConcurrentJobs,
		int(l.concurrencyTTL.Seconds()),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("concurrency check failed: %w", err)
	}

	if result[0].(int64) != 1 {
		metrics.RateLimitRejections.WithLabelValues(string(provider), "concurrency").Inc()
		se := domain.NewRateLimitedError("ratelimit.AcquireJob", 5*time.Second)
		se.Provider = provider
		return nil, se
	}

	return &Permit{release: func() {
		// contexto próprio: a liberação precisa acontecer mesmo com o ctx do job cancelado
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := l.releaseJobScript.Run(releaseCtx, l.client, []string{key}).Err(); err != nil {
			logrus.WithError(err).WithField("provider", provider).Error("Erro ao liberar permissão de concorrência")
		}
	}}, nil
}
