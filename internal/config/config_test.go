package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRates(t *testing.T) {
	rates, err := ParseRates("USD:1, brl:0.18 ,EUR:1.08,")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 1, "BRL": 0.18, "EUR": 1.08}, rates)

	for _, invalid := range []string{"USD", "USD:abc", "USD:0", "BRL:-1"} {
		_, err := ParseRates(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestFinalize(t *testing.T) {
	cfg := &Config{
		Database: Database{Driver: "postgres", User: "u", Password: "p", URL: "db:5432/ads"},
		Meta:     Meta{BaseURL: "https://graph.facebook.com", Version: "v22.0"},
		Currency: Currency{Reporting: "usd", Rates: "USD:1,BRL:0.18"},
	}

	require.NoError(t, cfg.finalize())
	assert.Equal(t, "https://graph.facebook.com/v22.0", cfg.Meta.URL)
	assert.Equal(t, "postgres://u:p@db:5432/ads", cfg.Database.DSN)
	assert.Equal(t, "USD", cfg.Currency.Reporting)

	cfg.Currency.Reporting = "JPY"
	assert.Error(t, cfg.finalize())
}

func TestQueuePools(t *testing.T) {
	q := Queues{
		EntitySyncConcurrency: 2,
		InsightsSyncMaxJobs:   30,
		Attempts:              3,
		MaxStalledCount:       2,
	}

	assert.Equal(t, 2, q.EntitySync().Concurrency)
	assert.Equal(t, 30, q.InsightsSync().MaxJobs)
	assert.Equal(t, 3, q.Recommendations().Attempts)
	assert.Equal(t, 2, q.Recommendations().MaxStalledCount)
}
