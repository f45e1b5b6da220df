package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/pkg/utils"
)

// AmountScale é a escala com que valores monetários são gravados
// (NUMERIC(18, 4)). Valor convertido com mais casas nunca bate com o que
// volta do banco e gera mudança falsa a cada sincronização.
const AmountScale = 4

var ErrUnknownCurrency = errors.New("moeda sem cotação")

// RateSource devolve quanto vale uma unidade da moeda na moeda base
type RateSource interface {
	Rate(ctx context.Context, code string) (float64, error)
}

// Converter é a interface usada pela reconciliação e pelos insights
type Converter interface {
	Convert(ctx context.Context, amount float64, from, to string) (float64, error)
	Normalize(ctx context.Context, amount float64, from string) Result
	Reporting() string
}

// Result é um valor convertido para a moeda de relatório. Quando a conversão
// falha, Amount fica com o valor original e Failed é marcado.
type Result struct {
	Amount           float64
	Currency         string
	OriginalAmount   float64
	OriginalCurrency string
	Failed           bool
}

type StaticRates map[string]float64

func (r StaticRates) Rate(_ context.Context, code string) (float64, error) {
	rate, ok := r[strings.ToUpper(code)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	return rate, nil
}

type Service struct {
	source    RateSource
	reporting string
	attempts  uint64
	interval  time.Duration
}

func NewService(cfg config.Currency, source RateSource) *Service {
	if source == nil {
		source = StaticRates(cfg.RateMap)
	}
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	return &Service{
		source:    source,
		reporting: strings.ToUpper(cfg.Reporting),
		attempts:  uint64(attempts),
		interval:  200 * time.Millisecond,
	}
}

func (s *Service) Reporting() string {
	return s.reporting
}

func (s *Service) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to || amount == 0 {
		return utils.RoundTo(amount, AmountScale), nil
	}

	fromRate, err := s.rate(ctx, from)
	if err != nil {
		return 0, err
	}
	toRate, err := s.rate(ctx, to)
	if err != nil {
		return 0, err
	}

	return utils.RoundTo(amount*fromRate/toRate, AmountScale), nil
}

// rate consulta a fonte com novas tentativas; moeda desconhecida não é repetida
func (s *Service) rate(ctx context.Context, code string) (float64, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.interval), s.attempts-1), ctx)

	var rate float64
	err := backoff.Retry(func() error {
		r, err := s.source.Rate(ctx, code)
		if err != nil {
			if errors.Is(err, ErrUnknownCurrency) {
				return backoff.Permanent(err)
			}
			return err
		}
		rate = r
		return nil
	}, policy)
	if err != nil {
		return 0, err
	}
	if rate <= 0 {
		return 0, fmt.Errorf("cotação inválida para %s: %v", code, rate)
	}
	return rate, nil
}

// Normalize converte para a moeda de relatório sem propagar erro. Amount sai
// sempre em AmountScale; OriginalAmount guarda o valor como veio.
func (s *Service) Normalize(ctx context.Context, amount float64, from string) Result {
	from = strings.ToUpper(from)
	res := Result{
		Amount:           utils.RoundTo(amount, AmountScale),
		Currency:         from,
		OriginalAmount:   amount,
		OriginalCurrency: from,
	}
	if from == "" || from == s.reporting {
		res.Currency = s.reporting
		return res
	}

	converted, err := s.Convert(ctx, amount, from, s.reporting)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"from": from,
			"to":   s.reporting,
		}).Warn("Falha na conversão de moeda, mantendo valor original")
		res.Failed = true
		return res
	}

	res.Amount = converted
	res.Currency = s.reporting
	return res
}
