package currency

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/pkg/utils"
)

type flakySource struct {
	failures int
	calls    int
	rates    StaticRates
}

func (f *flakySource) Rate(ctx context.Context, code string) (float64, error) {
	f.calls++
	if f.calls <= f.failures {
		return 0, errors.New("timeout")
	}
	return f.rates.Rate(ctx, code)
}

func newService(source RateSource) *Service {
	s := NewService(config.Currency{
		Reporting: "usd",
		RateMap:   map[string]float64{"USD": 1, "BRL": 0.2, "EUR": 1.1},
		Attempts:  3,
	}, source)
	s.interval = 0
	return s
}

func TestConvert(t *testing.T) {
	s := newService(nil)

	got, err := s.Convert(context.Background(), 100, "BRL", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 20, got, 1e-9)

	got, err = s.Convert(context.Background(), 22, "usd", "eur")
	require.NoError(t, err)
	assert.InDelta(t, 20, got, 1e-9)

	got, err = s.Convert(context.Background(), 50, "ARS", "ARS")
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)

	_, err = s.Convert(context.Background(), 10, "ARS", "USD")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestConvert_RetriesSource(t *testing.T) {
	source := &flakySource{failures: 2, rates: StaticRates{"USD": 1, "BRL": 0.2}}
	s := newService(source)

	got, err := s.Convert(context.Background(), 10, "BRL", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 2, got, 1e-9)
	// duas falhas + BRL + USD
	assert.Equal(t, 4, source.calls)
}

func TestConvert_UnknownCurrencyNotRetried(t *testing.T) {
	source := &flakySource{rates: StaticRates{"USD": 1}}
	s := newService(source)

	_, err := s.Convert(context.Background(), 10, "JPY", "USD")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
	assert.Equal(t, 1, source.calls)
}

func TestNormalize(t *testing.T) {
	s := newService(nil)

	res := s.Normalize(context.Background(), 100, "brl")
	assert.False(t, res.Failed)
	assert.InDelta(t, 20, res.Amount, 1e-9)
	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, 100.0, res.OriginalAmount)
	assert.Equal(t, "BRL", res.OriginalCurrency)

	res = s.Normalize(context.Background(), 100, "JPY")
	assert.True(t, res.Failed)
	assert.Equal(t, 100.0, res.Amount)
	assert.Equal(t, "JPY", res.Currency)

	res = s.Normalize(context.Background(), 7, "USD")
	assert.False(t, res.Failed)
	assert.Equal(t, 7.0, res.Amount)
}

func TestConvert_RoundsToStoredScale(t *testing.T) {
	s := NewService(config.Currency{Reporting: "USD", RateMap: map[string]float64{"USD": 1, "MXN": 0.055}}, nil)

	got, err := s.Convert(context.Background(), 123.45, "MXN", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 6.78975, got, 1e-4)
	assert.Equal(t, got, utils.RoundTo(got, AmountScale))

	got, err = s.Convert(context.Background(), 10.123456, "USD", "USD")
	require.NoError(t, err)
	assert.Equal(t, 10.1235, got)
}

func TestNormalize_AmountMatchesStoredScale(t *testing.T) {
	s := NewService(config.Currency{Reporting: "USD", RateMap: map[string]float64{"USD": 1, "MXN": 0.055}}, nil)

	res := s.Normalize(context.Background(), 123.45, "MXN")
	require.False(t, res.Failed)
	assert.Equal(t, res.Amount, utils.RoundTo(res.Amount, AmountScale))
	assert.Equal(t, 123.45, res.OriginalAmount)

	// reconverter o valor já gravado dá o mesmo resultado
	again := s.Normalize(context.Background(), res.OriginalAmount, "MXN")
	assert.Equal(t, res.Amount, again.Amount)

	res = s.Normalize(context.Background(), 3.14159, "USD")
	assert.Equal(t, 3.1416, res.Amount)
	assert.Equal(t, 3.14159, res.OriginalAmount)

	res = s.Normalize(context.Background(), 9.87654, "JPY")
	assert.True(t, res.Failed)
	assert.Equal(t, 9.8765, res.Amount)
}
