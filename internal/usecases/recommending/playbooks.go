package recommending

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/vfg2006/ads-sync-api/infrastructure/repository"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/log"
	"gopkg.in/yaml.v3"
)

type playbookFile struct {
	Playbooks []*domain.Playbook `yaml:"playbooks"`
}

// LoadPlaybooks lê e valida o arquivo YAML de playbooks
func LoadPlaybooks(path string) ([]*domain.Playbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "erro ao ler playbooks de %s", path)
	}
	return ParsePlaybooks(data)
}

func ParsePlaybooks(data []byte) ([]*domain.Playbook, error) {
	var file playbookFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "erro ao deserializar playbooks")
	}

	seen := make(map[string]bool, len(file.Playbooks))
	for _, p := range file.Playbooks {
		if err := validatePlaybook(p); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("playbook duplicado: %s", p.ID)
		}
		seen[p.ID] = true
	}
	return file.Playbooks, nil
}

func validatePlaybook(p *domain.Playbook) error {
	if p.ID == "" {
		return errors.New("playbook sem id")
	}
	if len(p.Conditions) == 0 {
		return fmt.Errorf("playbook %s sem condições", p.ID)
	}
	if len(p.Actions) == 0 {
		return fmt.Errorf("playbook %s sem ações", p.ID)
	}
	for _, c := range p.Conditions {
		if !knownMetric(c.Metric) {
			return fmt.Errorf("playbook %s: métrica desconhecida %q", p.ID, c.Metric)
		}
		switch c.Aggregate {
		case "", domain.AggregateLatest, domain.AggregateAvg7, domain.AggregateAvg14, domain.AggregateAvg30, domain.AggregateTrend:
		default:
			return fmt.Errorf("playbook %s: agregado desconhecido %q", p.ID, c.Aggregate)
		}
		if _, ok := operators[c.Operator]; !ok {
			return fmt.Errorf("playbook %s: operador desconhecido %q", p.ID, c.Operator)
		}
	}
	for _, a := range p.Actions {
		switch a.Type {
		case domain.ActionPause, domain.ActionBudgetIncrease, domain.ActionBudgetDecrease,
			domain.ActionCreativeRefresh, domain.ActionAudienceReview:
		default:
			return fmt.Errorf("playbook %s: ação desconhecida %q", p.ID, a.Type)
		}
	}
	return nil
}

func knownMetric(name string) bool {
	for _, m := range domain.MetricNames {
		if m == name {
			return true
		}
	}
	return false
}

// SeedPlaybooks grava no banco os playbooks do arquivo; os do banco continuam
// sendo a fonte lida pelo motor
func SeedPlaybooks(ctx context.Context, repo repository.PlaybookRepository, path string) (int, error) {
	playbooks, err := LoadPlaybooks(path)
	if err != nil {
		return 0, err
	}
	for _, p := range playbooks {
		if err := repo.Upsert(ctx, p); err != nil {
			return 0, errors.Wrapf(err, "erro ao gravar playbook %s", p.ID)
		}
	}
	log.ForContext(ctx).WithField("count", len(playbooks)).Info("Playbooks carregados")
	return len(playbooks), nil
}
