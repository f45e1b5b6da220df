package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func captureLogger(t *testing.T) (*logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	base := logrus.New()
	base.SetOutput(buf)
	base.SetFormatter(&logrus.JSONFormatter{})
	return &logger{entry: logrus.NewEntry(base)}, buf
}

func TestWithContext_CopiesJobAndRunFields(t *testing.T) {
	l, buf := captureLogger(t)

	ctx := WithJob(context.Background(), "entity-sync", "entity-sync:conn-1:2026-10-14")
	ctx = WithSyncRun(ctx, "run-1")
	ctx = WithAccount(ctx, "acc-1")

	l.WithContext(ctx).Info("sincronizando")

	out := buf.String()
	assert.Contains(t, out, `"queue":"entity-sync"`)
	assert.Contains(t, out, `"job_id":"entity-sync:conn-1:2026-10-14"`)
	assert.Contains(t, out, `"sync_run_id":"run-1"`)
	assert.Contains(t, out, `"account_id":"acc-1"`)
}

func TestWithFields_DropsVerboseFieldsInDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	l, buf := captureLogger(t)

	l.WithFields(Fields{"payload": `{"big":true}`, "provider": "meta"}).Info("ok")

	out := buf.String()
	assert.NotContains(t, out, "payload")
	assert.Contains(t, out, `"provider":"meta"`)
}

func TestWithFields_KeepsEverythingInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	l, buf := captureLogger(t)

	l.WithField("payload", "x").Info("ok")

	assert.Contains(t, buf.String(), `"payload":"x"`)
}

func TestContinueCorrelationID(t *testing.T) {
	ctx, id := ContinueCorrelationID(context.Background(), "abc")
	assert.Equal(t, "abc", id)
	assert.Equal(t, "abc", GetCorrelationID(ctx))

	ctx, id = ContinueCorrelationID(context.Background(), "")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, GetCorrelationID(ctx))
}
