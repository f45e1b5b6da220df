package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/log"
	"github.com/vfg2006/ads-sync-api/pkg/metrics"
	"golang.org/x/time/rate"
)

type Handler func(ctx context.Context, job *Job) error

type WorkerOptions struct {
	Concurrency     int
	MaxJobs         int
	Per             time.Duration
	LeaseDuration   time.Duration
	PollInterval    time.Duration
	StalledInterval time.Duration
}

func WorkerOptionsFromConfig(pool config.Queue, queues config.Queues) WorkerOptions {
	return WorkerOptions{
		Concurrency:     pool.Concurrency,
		MaxJobs:         pool.MaxJobs,
		Per:             pool.Per,
		LeaseDuration:   pool.LeaseDuration,
		PollInterval:    queues.PollInterval,
		StalledInterval: queues.StalledInterval,
	}
}

// Worker consome uma fila com um pool de goroutines e um limitador de vazão
type Worker struct {
	queue    *Queue
	name     string
	opts     WorkerOptions
	limiter  *rate.Limiter
	handlers map[string]Handler

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	jobCtx  context.Context
	stopJob context.CancelFunc
	wg      sync.WaitGroup
}

func NewWorker(q *Queue, name string, opts WorkerOptions) *Worker {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.LeaseDuration <= 0 {
		opts.LeaseDuration = 5 * time.Minute
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.StalledInterval <= 0 {
		opts.StalledInterval = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.MaxJobs > 0 && opts.Per > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Per/time.Duration(opts.MaxJobs)), opts.MaxJobs)
	}

	return &Worker{
		queue:    q,
		name:     name,
		opts:     opts,
		limiter:  limiter,
		handlers: make(map[string]Handler),
	}
}

func (w *Worker) Name() string {
	return w.name
}

// Register associa um nome de job ao handler; deve ser chamado antes de Start
func (w *Worker) Register(jobName string, h Handler) {
	w.handlers[jobName] = h
}

func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		logrus.WithField("queue", w.name).Warn("Worker já está em execução")
		return
	}

	fetchCtx, cancel := context.WithCancel(context.Background())
	w.jobCtx, w.stopJob = context.WithCancel(context.Background())
	w.cancel = cancel
	w.running = true

	for i := 0; i < w.opts.Concurrency; i++ {
		w.wg.Add(1)
		go w.loop(fetchCtx)
	}

	w.wg.Add(1)
	go w.stalledLoop(fetchCtx)

	logrus.WithFields(logrus.Fields{
		"queue":       w.name,
		"concurrency": w.opts.Concurrency,
		"max_jobs":    w.opts.MaxJobs,
		"per":         w.opts.Per,
	}).Info("Worker iniciado")
}

// Stop para de buscar jobs e espera os que estão em andamento até timeout;
// depois disso o contexto dos jobs é cancelado
func (w *Worker) Stop(timeout time.Duration) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.cancel()
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.stopJob()
		logrus.WithField("queue", w.name).Info("Worker finalizado")
		return nil
	case <-time.After(timeout):
		w.stopJob()
		<-done
		return fmt.Errorf("queue %s: timeout de %s aguardando jobs em andamento", w.name, timeout)
	}
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		// a vazão é controlada antes do Claim: o lease só começa a correr
		// quando o job já pode ser processado
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}

		job, err := w.queue.Claim(ctx, w.name, w.opts.LeaseDuration)
		if err != nil {
			if ctx.Err() == nil {
				logrus.WithError(err).WithField("queue", w.name).Error("Erro ao buscar job")
			}
			w.sleep(ctx, w.opts.PollInterval)
			continue
		}
		if job == nil {
			w.sleep(ctx, w.opts.PollInterval)
			continue
		}

		if ctx.Err() != nil {
			// o Stop chegou durante o Claim: devolve o job sem gastar tentativa
			if rqErr := w.queue.Requeue(context.Background(), job); rqErr != nil {
				logrus.WithError(rqErr).WithField("job_id", job.ID).Warn("Erro ao devolver job para a fila")
			}
			return
		}

		w.process(job)
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (w *Worker) process(job *Job) {
	logger := log.ForJob(w.jobCtx, w.name, job.ID).WithFields(log.Fields{
		"job_name": job.Name,
		"attempt":  job.AttemptsMade,
	})
	started := time.Now()

	ctx, cancel := context.WithCancel(log.WithJob(w.jobCtx, w.name, job.ID))
	defer cancel()

	go w.heartbeat(ctx, job, cancel)

	err := w.run(ctx, job)

	metrics.QueueJobDuration.WithLabelValues(w.name, job.Name).Observe(time.Since(started).Seconds())

	// a finalização não depende do contexto do job, que pode ter sido cancelado
	finishCtx, finishCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer finishCancel()

	if err == nil {
		if cErr := w.queue.Complete(finishCtx, job); cErr != nil {
			logger.WithError(cErr).Warn("Erro ao concluir job")
			return
		}
		metrics.QueueJobs.WithLabelValues(w.name, "completed").Inc()
		logger.Infof("Job concluído em %s", time.Since(started).Round(time.Millisecond))
		return
	}

	retryable := domain.IsRetryable(err)
	delay := domain.RetryAfter(err)
	if backoff := job.NextBackoff(); backoff > delay {
		delay = backoff
	}

	retried, fErr := w.queue.Fail(finishCtx, job, err, retryable, delay)
	if fErr != nil {
		logger.WithError(fErr).Warn("Erro ao registrar falha do job")
		return
	}

	switch {
	case retried:
		metrics.QueueJobs.WithLabelValues(w.name, "retried").Inc()
		logger.WithError(err).Warnf("Job falhou, nova tentativa em %s", delay)
	case !retryable:
		metrics.QueueJobs.WithLabelValues(w.name, "discarded").Inc()
		logger.WithError(err).Error("Job falhou sem nova tentativa")
	default:
		metrics.QueueJobs.WithLabelValues(w.name, "failed").Inc()
		logger.WithError(err).Error("Job esgotou as tentativas")
	}
}

func (w *Worker) run(ctx context.Context, job *Job) (err error) {
	h, ok := w.handlers[job.Name]
	if !ok {
		return domain.NewValidationError("queue."+w.name, fmt.Errorf("nenhum handler para o job %q", job.Name))
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic no job %s: %v", job.Name, r)
		}
	}()

	return h(ctx, job)
}

// heartbeat estende o lease a cada terço da duração; perdendo o lease o job é cancelado
func (w *Worker) heartbeat(ctx context.Context, job *Job, cancel context.CancelFunc) {
	interval := w.opts.LeaseDuration / 3
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.queue.Heartbeat(ctx, job, w.opts.LeaseDuration); err != nil {
				if errors.Is(err, ErrLeaseLost) {
					logrus.WithFields(logrus.Fields{"queue": w.name, "job_id": job.ID}).Warn("Lease perdido, cancelando job")
					cancel()
					return
				}
				if ctx.Err() == nil {
					logrus.WithError(err).WithField("job_id", job.ID).Warn("Erro no heartbeat")
				}
			}
		}
	}
}

func (w *Worker) stalledLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.opts.StalledInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			requeued, failed, err := w.queue.RecoverStalled(ctx, w.name)
			if err != nil {
				if ctx.Err() == nil {
					logrus.WithError(err).WithField("queue", w.name).Error("Erro ao verificar jobs travados")
				}
				continue
			}
			if requeued+failed > 0 {
				metrics.QueueJobs.WithLabelValues(w.name, "stalled").Add(float64(requeued + failed))
				logrus.WithFields(logrus.Fields{
					"queue":    w.name,
					"requeued": requeued,
					"failed":   failed,
				}).Warn("Jobs travados recuperados")
			}
		}
	}
}
