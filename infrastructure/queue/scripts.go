package queue

import "github.com/redis/go-redis/v9"

// Todas as chaves de uma fila compartilham a hash tag {fila}, então os
// scripts podem montar a chave do job a partir do prefixo

// KEYS: job, wait, delayed
// ARGV: id, name, payload, max_attempts, backoff_ms, now_ms, delay_ms
var enqueueScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
    return 0
end

local delay = tonumber(ARGV[7])
local status = "waiting"
if delay > 0 then
    status = "delayed"
end

redis.call("HSET", KEYS[1],
    "name", ARGV[2],
    "payload", ARGV[3],
    "attempts_made", 0,
    "max_attempts", ARGV[4],
    "backoff_ms", ARGV[5],
    "stalled", 0,
    "status", status,
    "enqueued_at", ARGV[6])

if delay > 0 then
    redis.call("ZADD", KEYS[3], tonumber(ARGV[6]) + delay, ARGV[1])
else
    redis.call("RPUSH", KEYS[2], ARGV[1])
end
return 1
`)

// KEYS: wait, delayed, active
// ARGV: now_ms, lease_ms, token, job_prefix
var claimScript = redis.NewScript(`
local now = tonumber(ARGV[1])

local due = redis.call("ZRANGEBYSCORE", KEYS[2], "-inf", now)
for _, id in ipairs(due) do
    redis.call("ZREM", KEYS[2], id)
    redis.call("RPUSH", KEYS[1], id)
    redis.call("HSET", ARGV[4] .. id, "status", "waiting")
end

for i = 1, 10 do
    local id = redis.call("LPOP", KEYS[1])
    if not id then
        return false
    end

    local jobKey = ARGV[4] .. id
    if redis.call("EXISTS", jobKey) == 1 then
        local attempts = redis.call("HINCRBY", jobKey, "attempts_made", 1)
        redis.call("HSET", jobKey, "status", "active", "token", ARGV[3])
        redis.call("ZADD", KEYS[3], now + tonumber(ARGV[2]), id)
        local fields = redis.call("HMGET", jobKey, "name", "payload", "max_attempts", "backoff_ms", "stalled", "enqueued_at")
        return {id, fields[1], fields[2], attempts, fields[3], fields[4], fields[5], fields[6]}
    end
end
return false
`)

// KEYS: active, job
// ARGV: id, token, deadline_ms
var heartbeatScript = redis.NewScript(`
if redis.call("HGET", KEYS[2], "token") ~= ARGV[2] then
    return 0
end
redis.call("ZADD", KEYS[1], "XX", tonumber(ARGV[3]), ARGV[1])
return 1
`)

// KEYS: active, job
// ARGV: id, token, retention_s
var completeScript = redis.NewScript(`
if redis.call("HGET", KEYS[2], "token") ~= ARGV[2] then
    return 0
end
redis.call("ZREM", KEYS[1], ARGV[1])
redis.call("HSET", KEYS[2], "status", "completed")
redis.call("HDEL", KEYS[2], "token")
redis.call("EXPIRE", KEYS[2], tonumber(ARGV[3]))
return 1
`)

// Devolve 0 (lease perdido), 1 (reagendado) ou 2 (falha definitiva)
// KEYS: active, delayed, job
// ARGV: id, token, now_ms, error, retry, delay_ms, retention_s
var failScript = redis.NewScript(`
if redis.call("HGET", KEYS[3], "token") ~= ARGV[2] then
    return 0
end
redis.call("ZREM", KEYS[1], ARGV[1])
redis.call("HDEL", KEYS[3], "token")
redis.call("HSET", KEYS[3], "last_error", ARGV[4])

local attempts = tonumber(redis.call("HGET", KEYS[3], "attempts_made"))
local maxAttempts = tonumber(redis.call("HGET", KEYS[3], "max_attempts"))
if ARGV[5] == "1" and attempts < maxAttempts then
    redis.call("HSET", KEYS[3], "status", "delayed")
    redis.call("ZADD", KEYS[2], tonumber(ARGV[3]) + tonumber(ARGV[6]), ARGV[1])
    return 1
end

redis.call("HSET", KEYS[3], "status", "failed")
redis.call("EXPIRE", KEYS[3], tonumber(ARGV[7]))
return 2
`)

// Devolve o job à frente da fila sem consumir tentativa
// KEYS: active, wait, job
// ARGV: id, token
var requeueScript = redis.NewScript(`
if redis.call("HGET", KEYS[3], "token") ~= ARGV[2] then
    return 0
end
redis.call("ZREM", KEYS[1], ARGV[1])
redis.call("HDEL", KEYS[3], "token")
redis.call("HINCRBY", KEYS[3], "attempts_made", -1)
redis.call("HSET", KEYS[3], "status", "waiting")
redis.call("LPUSH", KEYS[2], ARGV[1])
return 1
`)

// Leases vencidos voltam para delayed com backoff, até max_stalled vezes
// KEYS: active, delayed
// ARGV: now_ms, max_stalled, job_prefix, retention_s
var stalledScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local maxStalled = tonumber(ARGV[2])
local requeued = 0
local failed = 0

local expired = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", now)
for _, id in ipairs(expired) do
    redis.call("ZREM", KEYS[1], id)
    local jobKey = ARGV[3] .. id
    if redis.call("EXISTS", jobKey) == 1 then
        redis.call("HDEL", jobKey, "token")
        local stalled = redis.call("HINCRBY", jobKey, "stalled", 1)
        local attempts = tonumber(redis.call("HGET", jobKey, "attempts_made"))
        local maxAttempts = tonumber(redis.call("HGET", jobKey, "max_attempts"))

        if stalled > maxStalled or attempts >= maxAttempts then
            redis.call("HSET", jobKey, "status", "failed", "last_error", "job stalled more than allowable limit")
            redis.call("EXPIRE", jobKey, tonumber(ARGV[4]))
            failed = failed + 1
        else
            local backoff = tonumber(redis.call("HGET", jobKey, "backoff_ms")) or 0
            local delay = math.floor(backoff * (2 ^ (attempts - 1)))
            redis.call("HSET", jobKey, "status", "delayed")
            redis.call("ZADD", KEYS[2], now + delay, id)
            requeued = requeued + 1
        end
    end
end
return {requeued, failed}
`)
