package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vfg2006/ads-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator/google"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator/google/googleclient"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator/meta"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/ads-sync-api/infrastructure/migration"
	"github.com/vfg2006/ads-sync-api/infrastructure/queue"
	"github.com/vfg2006/ads-sync-api/infrastructure/ratelimit"
	"github.com/vfg2006/ads-sync-api/infrastructure/repository"
	"github.com/vfg2006/ads-sync-api/internal/api"
	"github.com/vfg2006/ads-sync-api/internal/api/handler"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/jobs"
	"github.com/vfg2006/ads-sync-api/internal/scheduler"
	"github.com/vfg2006/ads-sync-api/internal/usecases/authenticating"
	"github.com/vfg2006/ads-sync-api/internal/usecases/changetracking"
	"github.com/vfg2006/ads-sync-api/internal/usecases/currency"
	"github.com/vfg2006/ads-sync-api/internal/usecases/insighting"
	"github.com/vfg2006/ads-sync-api/internal/usecases/recommending"
	"github.com/vfg2006/ads-sync-api/internal/usecases/syncing"
	"github.com/vfg2006/ads-sync-api/pkg/secret"
)

func main() {
	// Inicializa configuração de logs
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	// Define o nível de log com base na configuração
	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Nível de log configurado para: %s", logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	if err := migration.Apply(ctx, pgConn); err != nil {
		logrus.WithError(err).Fatal("Erro ao aplicar o schema do banco de dados")
	}

	redisClient := redisconn(ctx, cfg.Redis)
	defer redisClient.Close()

	box, err := secret.NewBox(cfg.Security.TokenEncryptionKey)
	if err != nil {
		logrus.WithError(err).Fatal("Chave de cifragem dos tokens inválida")
	}

	connectionRepo := repository.NewConnectionRepository(pgConn, box)
	accountRepo := repository.NewAccountRepository(pgConn)
	campaignRepo := repository.NewCampaignRepository(pgConn)
	adGroupRepo := repository.NewAdGroupRepository(pgConn)
	adRepo := repository.NewAdRepository(pgConn)
	insightRepo := repository.NewInsightRepository(pgConn)
	changeRepo := repository.NewChangeHistoryRepository(pgConn)
	playbookRepo := repository.NewPlaybookRepository(pgConn)
	recommendationRepo := repository.NewRecommendationRepository(pgConn)
	syncRunRepo := repository.NewSyncRunRepository(pgConn)

	limiter := ratelimit.NewFromConfig(redisClient, cfg.RateLimit)

	metaIntegrator := meta.New(cfg.Meta, metaclient.NewClient(cfg.Meta, limiter))
	googleIntegrator := google.New(googleclient.NewClient(cfg.Google, limiter))
	fetchers := integrator.NewRegistry(metaIntegrator, googleIntegrator)

	converter := currency.NewService(cfg.Currency, nil)
	tracker := changetracking.NewService(changeRepo)

	syncService := syncing.NewService(
		syncing.Repositories{
			Connections: connectionRepo,
			Accounts:    accountRepo,
			Campaigns:   campaignRepo,
			AdGroups:    adGroupRepo,
			Ads:         adRepo,
			SyncRuns:    syncRunRepo,
		},
		pgConn,
		fetchers,
		tracker,
		converter,
		limiter,
	)

	insightService := insighting.NewService(
		insighting.Repositories{
			Connections: connectionRepo,
			Accounts:    accountRepo,
			Campaigns:   campaignRepo,
			AdGroups:    adGroupRepo,
			Ads:         adRepo,
			Insights:    insightRepo,
		},
		fetchers,
		converter,
		limiter,
	)

	if cfg.Recommendations.PlaybooksFile != "" {
		n, err := recommending.SeedPlaybooks(ctx, playbookRepo, cfg.Recommendations.PlaybooksFile)
		if err != nil {
			logrus.WithError(err).Fatal("Erro ao carregar os playbooks")
		}
		logrus.WithField("playbooks", n).Info("Playbooks carregados")
	}

	recommendationService := recommending.NewService(
		recommending.Repositories{
			Accounts:        accountRepo,
			Campaigns:       campaignRepo,
			AdGroups:        adGroupRepo,
			Ads:             adRepo,
			Insights:        insightRepo,
			Playbooks:       playbookRepo,
			Recommendations: recommendationRepo,
		},
		cfg.Recommendations,
	)

	q := queue.New(redisClient, cfg.Queues)
	handlers := jobs.NewHandlers(syncService, insightService, recommendationService)

	workers := []*queue.Worker{
		queue.NewWorker(q, jobs.QueueEntitySync, queue.WorkerOptionsFromConfig(cfg.Queues.EntitySync(), cfg.Queues)),
		queue.NewWorker(q, jobs.QueueInsightsSync, queue.WorkerOptionsFromConfig(cfg.Queues.InsightsSync(), cfg.Queues)),
		queue.NewWorker(q, jobs.QueueRecommendations, queue.WorkerOptionsFromConfig(cfg.Queues.Recommendations(), cfg.Queues)),
	}
	handlers.RegisterEntitySync(workers[0])
	handlers.RegisterInsightsSync(workers[1])
	handlers.RegisterRecommendations(workers[2])

	for _, w := range workers {
		w.Start()
	}

	jobScheduler := scheduler.New(cfg, q, connectionRepo, accountRepo)
	if err := jobScheduler.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("Erro ao iniciar o agendador de jobs")
	}
	logrus.Info("Agendador de jobs iniciado com sucesso")

	server, err := api.New(cfg, api.Dependencies{
		Authenticator:   authenticating.NewService(cfg.Auth),
		Scheduler:       jobScheduler,
		Queue:           q,
		SyncRuns:        syncRunRepo,
		Changes:         tracker,
		Recommendations: recommendationRepo,
		HealthChecks: map[string]handler.HealthCheck{
			"postgres": pgConn.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}

	shutdown(jobScheduler, workers, cfg.App.ShutdownTimeout)
}

// shutdown para o agendador antes dos workers para não enfileirar jobs que
// ninguém vai consumir
func shutdown(s *scheduler.Scheduler, workers []*queue.Worker, timeout time.Duration) {
	s.Stop()

	for _, w := range workers {
		if err := w.Stop(timeout); err != nil {
			logrus.WithError(err).WithField("queue", w.Name()).Warn("Worker não terminou dentro do prazo")
		}
	}

	logrus.Info("Aplicação finalizada")
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

// pgconn cria uma conexão com o banco de dados
func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}

	err = conn.Ping(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao testar conexão com PostgreSQL")
	}

	logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn
}

func redisconn(ctx context.Context, redisConfig config.Redis) *redis.Client {
	client, err := queue.NewClient(redisConfig.URL)
	if err != nil {
		logrus.WithError(err).Fatal("URL do Redis inválida")
	}

	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao Redis")
	}

	logrus.Info("Conexão com Redis estabelecida com sucesso")
	return client
}
