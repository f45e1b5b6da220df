package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vfg2006/ads-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator/google/googleclient"
	"github.com/vfg2006/ads-sync-api/infrastructure/migration"
	"github.com/vfg2006/ads-sync-api/infrastructure/repository"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/internal/usecases/recommending"
	"github.com/vfg2006/ads-sync-api/pkg/secret"
)

// Aplica o schema e, opcionalmente, carrega os playbooks e registra uma
// conexão já autorizada (tokens obtidos fora da aplicação).
//
//	go run ./infrastructure/migration/script -playbooks playbooks/default.yaml
//	go run ./infrastructure/migration/script -provider meta -org org-1 -access-token EAAB...
func main() {
	var (
		playbooks    = flag.String("playbooks", "", "arquivo YAML de playbooks para carregar")
		provider     = flag.String("provider", "", "provedor da conexão a registrar (meta, google)")
		organization = flag.String("org", "", "organização dona da conexão")
		accessToken  = flag.String("access-token", "", "access token da conexão")
		refreshToken = flag.String("refresh-token", "", "refresh token (google)")
		loginID      = flag.String("login-customer-id", "", "login_customer_id do Google Ads (MCC)")
		expiresIn    = flag.Duration("expires-in", 0, "validade restante do access token")
	)
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	logrus.Info("Iniciando script de migração...")

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	ctx := context.Background()
	conn, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}
	defer conn.Close()

	startTime := time.Now()
	if err := migration.Apply(ctx, conn); err != nil {
		logrus.WithError(err).Fatal("Erro ao aplicar o schema")
	}
	logrus.WithField("duration", time.Since(startTime).String()).Info("Schema aplicado")

	if *playbooks != "" {
		n, err := recommending.SeedPlaybooks(ctx, repository.NewPlaybookRepository(conn), *playbooks)
		if err != nil {
			logrus.WithError(err).Fatal("Erro ao carregar playbooks")
		}
		logrus.WithField("playbooks", n).Info("Playbooks carregados")
	}

	if *provider == "" {
		return
	}

	p := domain.Provider(*provider)
	if !p.IsValid() || *organization == "" || *accessToken == "" {
		logrus.Error("Conexão exige -provider válido, -org e -access-token")
		os.Exit(2)
	}

	box, err := secret.NewBox(cfg.Security.TokenEncryptionKey)
	if err != nil {
		logrus.WithError(err).Fatal("Chave de cifragem dos tokens inválida")
	}

	c := &domain.Connection{
		OrganizationID: *organization,
		Provider:       p,
		AccessToken:    *accessToken,
		RefreshToken:   *refreshToken,
		Active:         true,
		Status:         domain.ConnectionStatusActive,
	}
	if *loginID != "" {
		c.Settings = map[string]string{googleclient.LoginCustomerIDSetting: *loginID}
	}
	if *expiresIn > 0 {
		expires := time.Now().Add(*expiresIn)
		c.TokenExpiresAt = &expires
	}

	if err := repository.NewConnectionRepository(conn, box).Create(ctx, c); err != nil {
		logrus.WithError(err).Fatal("Erro ao registrar conexão")
	}
	logrus.WithFields(logrus.Fields{"connection_id": c.ID, "provider": c.Provider}).Info("Conexão registrada")
}
