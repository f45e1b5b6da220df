package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-sync-api/infrastructure/queue"
	"github.com/vfg2006/ads-sync-api/infrastructure/repository"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/internal/jobs"
	"github.com/vfg2006/ads-sync-api/internal/usecases/insighting"
)

type Family string

const (
	FamilyEntitySync      Family = "entity-sync"
	FamilyFullInsights    Family = "full-insights"
	FamilyDeltaInsights   Family = "delta-insights"
	FamilyRecommendations Family = "recommendations"
)

// Families na ordem em que rodam ao longo do dia
var Families = []Family{FamilyEntitySync, FamilyFullInsights, FamilyDeltaInsights, FamilyRecommendations}

func ParseFamily(s string) (Family, error) {
	for _, f := range Families {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("família de job desconhecida: %q", s)
}

type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

type JobState string

const (
	JobIdle      JobState = "idle"
	JobExecuting JobState = "executing"
)

type JobStatus struct {
	Family       Family     `json:"family"`
	Queue        string     `json:"queue"`
	Pattern      string     `json:"pattern"`
	Enabled      bool       `json:"enabled"`
	State        JobState   `json:"state"`
	NextRun      *time.Time `json:"next_run,omitempty"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
	LastEnqueued int        `json:"last_enqueued"`
	LastError    string     `json:"last_error,omitempty"`
}

type Status struct {
	State State       `json:"state"`
	Jobs  []JobStatus `json:"jobs"`
}

type familyJob struct {
	pattern string
	enabled bool
	queue   string

	executing    bool
	lastRunAt    *time.Time
	lastEnqueued int
	lastErr      string
	cron         *gocron.Job
}

// Scheduler dispara as famílias por cron e enfileira os jobs resolvidos no
// momento do disparo a partir das conexões e contas ativas
type Scheduler struct {
	enqueuer    jobs.Enqueuer
	connections repository.ConnectionRepository
	accounts    repository.AccountRepository

	fullLookbackDays   int
	deltaLookbackHours int
	deltaSlot          time.Duration

	mu     sync.Mutex
	state  State
	cron   *gocron.Scheduler
	cancel context.CancelFunc
	// gen muda a cada Start; o watcher de um ctx antigo não para a execução nova
	gen  uint64
	jobs map[Family]*familyJob
	now  func() time.Time
}

func New(cfg *config.Config, enqueuer jobs.Enqueuer, connections repository.ConnectionRepository, accounts repository.AccountRepository) *Scheduler {
	s := &Scheduler{
		enqueuer:           enqueuer,
		connections:        connections,
		accounts:           accounts,
		fullLookbackDays:   cfg.FullInsightsSync.LookbackDays,
		deltaLookbackHours: cfg.DeltaInsightsSync.LookbackHours,
		deltaSlot:          cfg.DeltaInsightsSync.Slot,
		state:              StateStopped,
		now:                time.Now,
		jobs: map[Family]*familyJob{
			FamilyEntitySync:      {pattern: cfg.EntitySync.CronSchedule, enabled: cfg.EntitySync.Enabled, queue: jobs.QueueEntitySync},
			FamilyFullInsights:    {pattern: cfg.FullInsightsSync.CronSchedule, enabled: cfg.FullInsightsSync.Enabled, queue: jobs.QueueInsightsSync},
			FamilyDeltaInsights:   {pattern: cfg.DeltaInsightsSync.CronSchedule, enabled: cfg.DeltaInsightsSync.Enabled, queue: jobs.QueueInsightsSync},
			FamilyRecommendations: {pattern: cfg.Recommendations.CronSchedule, enabled: cfg.Recommendations.Enabled, queue: jobs.QueueRecommendations},
		},
	}
	if s.fullLookbackDays <= 0 {
		s.fullLookbackDays = 30
	}
	if s.deltaLookbackHours <= 0 {
		s.deltaLookbackHours = 24
	}
	if s.deltaSlot <= 0 {
		s.deltaSlot = 30 * time.Minute
	}

	logrus.WithFields(logrus.Fields{
		"entity_sync_cron":    cfg.EntitySync.CronSchedule,
		"full_insights_cron":  cfg.FullInsightsSync.CronSchedule,
		"delta_insights_cron": cfg.DeltaInsightsSync.CronSchedule,
		"recommendations":     cfg.Recommendations.CronSchedule,
	}).Info("Configuração do agendador carregada")

	return s
}

// Start é idempotente; uma segunda chamada apenas registra um aviso
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		logrus.Warn("Agendador já está em execução")
		return nil
	}

	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()

	runCtx, cancel := context.WithCancel(ctx)
	for _, family := range Families {
		fj := s.jobs[family]
		if !fj.enabled {
			logrus.WithField("family", family).Info("Família de jobs desabilitada por configuração")
			continue
		}

		job, err := cron.Cron(fj.pattern).Tag(string(family)).Do(func() {
			s.fire(runCtx, family)
		})
		if err != nil {
			cancel()
			return fmt.Errorf("erro ao agendar %s (%q): %w", family, fj.pattern, err)
		}
		fj.cron = job
	}

	cron.StartAsync()
	s.cron = cron
	s.cancel = cancel
	s.state = StateRunning
	s.gen++
	gen := s.gen

	go func() {
		<-runCtx.Done()
		s.stop(gen)
	}()

	logrus.Info("Agendador iniciado")
	return nil
}

func (s *Scheduler) Stop() {
	s.stop(0)
}

// stop com gen != 0 só age se aquela ainda for a execução corrente
func (s *Scheduler) stop(gen uint64) {
	s.mu.Lock()
	if s.state == StateStopped || (gen != 0 && gen != s.gen) {
		s.mu.Unlock()
		return
	}
	cron, cancel := s.cron, s.cancel
	for _, fj := range s.jobs {
		fj.cron = nil
	}
	s.cron = nil
	s.state = StateStopped
	s.mu.Unlock()

	// Stop espera os disparos em andamento, que também usam o mutex
	cancel()
	cron.Stop()
	logrus.Info("Agendador parado")
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{State: s.state, Jobs: make([]JobStatus, 0, len(Families))}
	for _, family := range Families {
		fj := s.jobs[family]
		js := JobStatus{
			Family:       family,
			Queue:        fj.queue,
			Pattern:      fj.pattern,
			Enabled:      fj.enabled,
			State:        JobIdle,
			LastRunAt:    fj.lastRunAt,
			LastEnqueued: fj.lastEnqueued,
			LastError:    fj.lastErr,
		}
		if fj.executing {
			js.State = JobExecuting
		}
		if fj.cron != nil && s.state == StateRunning {
			if next := fj.cron.NextRun(); !next.IsZero() {
				js.NextRun = &next
			}
		}
		status.Jobs = append(status.Jobs, js)
	}
	return status
}

// Trigger dispara uma família fora do cron. Os JobIDs recebem sufixo manual
// para não serem descartados pelo job agendado do mesmo período.
func (s *Scheduler) Trigger(ctx context.Context, family Family) (int, error) {
	if _, ok := s.jobs[family]; !ok {
		return 0, domain.NewValidationError("scheduler.trigger", fmt.Errorf("família desconhecida: %s", family))
	}
	logrus.WithField("family", family).Info("Disparo manual")
	return s.run(ctx, family, true)
}

func (s *Scheduler) fire(ctx context.Context, family Family) {
	if _, err := s.run(ctx, family, false); err != nil {
		logrus.WithError(err).WithField("family", family).Error("Erro ao enfileirar jobs agendados")
	}
}

func (s *Scheduler) run(ctx context.Context, family Family, manual bool) (int, error) {
	fj := s.jobs[family]

	s.mu.Lock()
	fj.executing = true
	s.mu.Unlock()

	at := s.now().UTC()
	created, err := s.enqueue(ctx, family, fj.queue, at, manual)

	s.mu.Lock()
	fj.executing = false
	fj.lastRunAt = &at
	fj.lastEnqueued = created
	fj.lastErr = ""
	if err != nil {
		fj.lastErr = err.Error()
	}
	s.mu.Unlock()

	return created, err
}

func (s *Scheduler) enqueue(ctx context.Context, family Family, queueName string, at time.Time, manual bool) (int, error) {
	descriptors, err := s.Descriptors(ctx, family, at)
	if err != nil {
		return 0, err
	}
	if len(descriptors) == 0 {
		logrus.WithField("family", family).Info("Nenhum job para enfileirar")
		return 0, nil
	}
	if manual {
		for i := range descriptors {
			descriptors[i].Opts.JobID = jobs.ManualJobID(descriptors[i].Opts.JobID, at)
		}
	}

	created, err := s.enqueuer.EnqueueBulk(ctx, queueName, descriptors)
	if err != nil {
		return created, err
	}

	logrus.WithFields(logrus.Fields{
		"family":     family,
		"queue":      queueName,
		"candidates": len(descriptors),
		"created":    created,
	}).Info("Jobs enfileirados")
	return created, nil
}

// Descriptors resolve a lista de jobs da família consultando o banco
func (s *Scheduler) Descriptors(ctx context.Context, family Family, at time.Time) ([]queue.BulkJob, error) {
	if family == FamilyEntitySync {
		conns, err := s.connections.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]queue.BulkJob, 0, len(conns))
		for _, c := range conns {
			out = append(out, queue.BulkJob{
				Name:    jobs.JobSyncConnection,
				Payload: jobs.SyncConnectionPayload{ConnectionID: c.ID},
				Opts:    queue.JobOptions{JobID: jobs.EntitySyncJobID(c.ID, at)},
			})
		}
		return out, nil
	}

	accounts, err := s.accounts.ListSyncable(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]queue.BulkJob, 0, len(accounts))
	for _, a := range accounts {
		var job queue.BulkJob
		switch family {
		case FamilyFullInsights:
			job = queue.BulkJob{
				Name:    jobs.JobSyncInsights,
				Payload: jobs.NewSyncInsightsPayload(a.ID, insighting.FullRange(at, s.fullLookbackDays), domain.WindowDaily),
				Opts:    queue.JobOptions{JobID: jobs.FullInsightsJobID(a.ID, at)},
			}
		case FamilyDeltaInsights:
			dr, err := insighting.DeltaRange(at, s.deltaLookbackHours)
			if err != nil {
				return nil, err
			}
			job = queue.BulkJob{
				Name:    jobs.JobSyncInsights,
				Payload: jobs.NewSyncInsightsPayload(a.ID, dr, domain.WindowDaily),
				Opts:    queue.JobOptions{JobID: jobs.DeltaInsightsJobID(a.ID, at, s.deltaSlot)},
			}
		case FamilyRecommendations:
			job = queue.BulkJob{
				Name:    jobs.JobGenerateRecommendations,
				Payload: jobs.GenerateRecommendationsPayload{AccountID: a.ID},
				Opts:    queue.JobOptions{JobID: jobs.RecommendationsJobID(a.ID, at)},
			}
		default:
			return nil, fmt.Errorf("família desconhecida: %s", family)
		}
		out = append(out, job)
	}
	return out, nil
}
