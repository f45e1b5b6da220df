package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/vfg2006/ads-sync-api/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrLeaseLost = errors.New("queue: lease do job perdido")

type JobOptions struct {
	// JobID torna o enfileiramento idempotente enquanto o job existir
	JobID    string
	Attempts int
	Backoff  time.Duration
	Delay    time.Duration
}

type BulkJob struct {
	Name    string
	Payload any
	Opts    JobOptions
}

type Job struct {
	ID           string
	Queue        string
	Name         string
	Payload      []byte
	AttemptsMade int
	MaxAttempts  int
	Backoff      time.Duration
	StalledCount int
	EnqueuedAt   time.Time

	token string
}

func (j *Job) Decode(v any) error {
	return json.Unmarshal(j.Payload, v)
}

// NextBackoff é o atraso exponencial da próxima tentativa
func (j *Job) NextBackoff() time.Duration {
	if j.Backoff <= 0 || j.AttemptsMade < 1 {
		return 0
	}
	return j.Backoff * time.Duration(1<<uint(j.AttemptsMade-1))
}

type Counts struct {
	Waiting int64 `json:"waiting"`
	Delayed int64 `json:"delayed"`
	Active  int64 `json:"active"`
}

type Queue struct {
	client             redis.UniversalClient
	defaults           JobOptions
	completedRetention time.Duration
	failedRetention    time.Duration
	maxStalled         int
	now                func() time.Time
}

func New(client redis.UniversalClient, cfg config.Queues) *Queue {
	return &Queue{
		client: client,
		defaults: JobOptions{
			Attempts: cfg.Attempts,
			Backoff:  cfg.Backoff,
		},
		completedRetention: cfg.CompletedRetention,
		failedRetention:    cfg.FailedRetention,
		maxStalled:         cfg.MaxStalledCount,
		now:                time.Now,
	}
}

func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func keyPrefix(queue string) string {
	return fmt.Sprintf("q:{%s}:", queue)
}

func jobPrefix(queue string) string {
	return keyPrefix(queue) + "job:"
}

func waitKey(queue string) string    { return keyPrefix(queue) + "wait" }
func delayedKey(queue string) string { return keyPrefix(queue) + "delayed" }
func activeKey(queue string) string  { return keyPrefix(queue) + "active" }

func (q *Queue) nowMs() int64 {
	return q.now().UnixMilli()
}

func (q *Queue) withDefaults(opts JobOptions) JobOptions {
	if opts.JobID == "" {
		opts.JobID = uuid.NewString()
	}
	if opts.Attempts <= 0 {
		opts.Attempts = q.defaults.Attempts
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = q.defaults.Backoff
	}
	return opts
}

// Enqueue devolve false quando já existe um job com o mesmo JobID
func (q *Queue) Enqueue(ctx context.Context, queue, name string, payload any, opts JobOptions) (string, bool, error) {
	opts = q.withDefaults(opts)

	data, err := json.Marshal(payload)
	if err != nil {
		return "", false, fmt.Errorf("queue: erro ao serializar payload: %w", err)
	}

	created, err := enqueueScript.Run(ctx, q.client,
		[]string{jobPrefix(queue) + opts.JobID, waitKey(queue), delayedKey(queue)},
		opts.JobID,
		name,
		string(data),
		opts.Attempts,
		opts.Backoff.Milliseconds(),
		q.nowMs(),
		opts.Delay.Milliseconds(),
	).Int()
	if err != nil {
		return "", false, fmt.Errorf("queue: enqueue %s/%s: %w", queue, name, err)
	}

	return opts.JobID, created == 1, nil
}

// EnqueueBulk devolve quantos jobs foram criados; duplicados são ignorados
func (q *Queue) EnqueueBulk(ctx context.Context, queue string, jobs []BulkJob) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}

	cmds := make([]*redis.Cmd, 0, len(jobs))
	_, err := q.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, j := range jobs {
			opts := q.withDefaults(j.Opts)
			data, err := json.Marshal(j.Payload)
			if err != nil {
				return fmt.Errorf("queue: erro ao serializar payload: %w", err)
			}
			// EVALSHA não tem fallback dentro de pipeline
			cmds = append(cmds, enqueueScript.Eval(ctx, pipe,
				[]string{jobPrefix(queue) + opts.JobID, waitKey(queue), delayedKey(queue)},
				opts.JobID,
				j.Name,
				string(data),
				opts.Attempts,
				opts.Backoff.Milliseconds(),
				q.nowMs(),
				opts.Delay.Milliseconds(),
			))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("queue: enqueue bulk %s: %w", queue, err)
	}

	created := 0
	for _, cmd := range cmds {
		n, err := cmd.Int()
		if err != nil {
			return created, fmt.Errorf("queue: enqueue bulk %s: %w", queue, err)
		}
		created += n
	}
	return created, nil
}

// Claim devolve o próximo job pronto com lease até now+lease, ou nil se a fila estiver vazia
func (q *Queue) Claim(ctx context.Context, queue string, lease time.Duration) (*Job, error) {
	token := uuid.NewString()

	res, err := claimScript.Run(ctx, q.client,
		[]string{waitKey(queue), delayedKey(queue), activeKey(queue)},
		q.nowMs(),
		lease.Milliseconds(),
		token,
		jobPrefix(queue),
	).Slice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue: claim %s: %w", queue, err)
	}

	job := &Job{
		ID:           toString(res[0]),
		Queue:        queue,
		Name:         toString(res[1]),
		Payload:      []byte(toString(res[2])),
		AttemptsMade: toInt(res[3]),
		MaxAttempts:  toInt(res[4]),
		Backoff:      time.Duration(toInt(res[5])) * time.Millisecond,
		StalledCount: toInt(res[6]),
		EnqueuedAt:   time.UnixMilli(int64(toInt(res[7]))),
		token:        token,
	}
	return job, nil
}

func (q *Queue) Heartbeat(ctx context.Context, job *Job, lease time.Duration) error {
	ok, err := heartbeatScript.Run(ctx, q.client,
		[]string{activeKey(job.Queue), jobPrefix(job.Queue) + job.ID},
		job.ID,
		job.token,
		q.nowMs()+lease.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("queue: heartbeat %s: %w", job.ID, err)
	}
	if ok == 0 {
		return ErrLeaseLost
	}
	return nil
}

func (q *Queue) Complete(ctx context.Context, job *Job) error {
	ok, err := completeScript.Run(ctx, q.client,
		[]string{activeKey(job.Queue), jobPrefix(job.Queue) + job.ID},
		job.ID,
		job.token,
		retentionSeconds(q.completedRetention),
	).Int()
	if err != nil {
		return fmt.Errorf("queue: complete %s: %w", job.ID, err)
	}
	if ok == 0 {
		return ErrLeaseLost
	}
	return nil
}

// Fail reagenda o job quando retry é verdadeiro e ainda há tentativas.
// Devolve true se o job voltou para a fila.
func (q *Queue) Fail(ctx context.Context, job *Job, cause error, retry bool, delay time.Duration) (bool, error) {
	retryFlag := "0"
	if retry {
		retryFlag = "1"
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	res, err := failScript.Run(ctx, q.client,
		[]string{activeKey(job.Queue), delayedKey(job.Queue), jobPrefix(job.Queue) + job.ID},
		job.ID,
		job.token,
		q.nowMs(),
		msg,
		retryFlag,
		delay.Milliseconds(),
		retentionSeconds(q.failedRetention),
	).Int()
	if err != nil {
		return false, fmt.Errorf("queue: fail %s: %w", job.ID, err)
	}

	switch res {
	case 0:
		return false, ErrLeaseLost
	case 1:
		return true, nil
	}
	return false, nil
}

// Requeue devolve o job à fila sem gastar tentativa, usado no desligamento
func (q *Queue) Requeue(ctx context.Context, job *Job) error {
	ok, err := requeueScript.Run(ctx, q.client,
		[]string{activeKey(job.Queue), waitKey(job.Queue), jobPrefix(job.Queue) + job.ID},
		job.ID,
		job.token,
	).Int()
	if err != nil {
		return fmt.Errorf("queue: requeue %s: %w", job.ID, err)
	}
	if ok == 0 {
		return ErrLeaseLost
	}
	return nil
}

// RecoverStalled devolve os jobs com lease vencido; os que passaram do limite falham
func (q *Queue) RecoverStalled(ctx context.Context, queue string) (requeued, failed int, err error) {
	res, err := stalledScript.Run(ctx, q.client,
		[]string{activeKey(queue), delayedKey(queue)},
		q.nowMs(),
		q.maxStalled,
		jobPrefix(queue),
		retentionSeconds(q.failedRetention),
	).Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("queue: stalled check %s: %w", queue, err)
	}
	return toInt(res[0]), toInt(res[1]), nil
}

func (q *Queue) Counts(ctx context.Context, queue string) (Counts, error) {
	pipe := q.client.Pipeline()
	wait := pipe.LLen(ctx, waitKey(queue))
	delayed := pipe.ZCard(ctx, delayedKey(queue))
	active := pipe.ZCard(ctx, activeKey(queue))
	if _, err := pipe.Exec(ctx); err != nil {
		return Counts{}, fmt.Errorf("queue: counts %s: %w", queue, err)
	}
	return Counts{Waiting: wait.Val(), Delayed: delayed.Val(), Active: active.Val()}, nil
}

// JobStatus devolve o status gravado do job ("" se não existe mais)
func (q *Queue) JobStatus(ctx context.Context, queue, id string) (string, error) {
	status, err := q.client.HGet(ctx, jobPrefix(queue)+id, "status").Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return status, err
}

func retentionSeconds(d time.Duration) int64 {
	if d < time.Second {
		return 1
	}
	return int64(d.Seconds())
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func toInt(v any) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(t)
		return n
	}
	return 0
}
