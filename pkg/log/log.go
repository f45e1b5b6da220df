package log

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Fields é um alias para logrus.Fields
type Fields logrus.Fields

// Logger é o que handlers, workers e serviços usam para logar
type Logger interface {
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger
	WithContext(ctx context.Context) Logger

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
}

type contextKey string

// CorrelationIDKey é a chave do ID de correlação no contexto
const CorrelationIDKey contextKey = "correlation_id"

const (
	jobIDKey     contextKey = "job_id"
	queueKey     contextKey = "queue"
	syncRunIDKey contextKey = "sync_run_id"
	accountIDKey contextKey = "account_id"
)

// ordem em que os valores do contexto viram campos
var contextFields = []contextKey{CorrelationIDKey, queueKey, jobIDKey, syncRunIDKey, accountIDKey}

// Em desenvolvimento estes campos poluem o terminal (payloads, respostas cruas)
var verboseFields = map[string]bool{
	"payload":    true,
	"params":     true,
	"response":   true,
	"user_agent": true,
	"remote_ip":  true,
}

type logger struct {
	entry *logrus.Entry
}

// L é o Logger global
var L Logger = &logger{entry: logrus.NewEntry(logrus.StandardLogger())}

// IsDevelopment considera APP_ENV vazio como desenvolvimento
func IsDevelopment() bool {
	env := os.Getenv("APP_ENV")
	return env == "" || env == "development" || env == "dev"
}

// SetupTestLogger configura um logger compacto para os testes
func SetupTestLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		PadLevelText:     true,
	})
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetReportCaller(false)

	L = &logger{entry: logrus.NewEntry(logrus.StandardLogger())}
}

func (l *logger) WithField(key string, value interface{}) Logger {
	if IsDevelopment() && verboseFields[key] {
		return l
	}
	return &logger{entry: l.entry.WithField(key, value)}
}

func (l *logger) WithFields(fields Fields) Logger {
	kept := make(logrus.Fields, len(fields))
	for k, v := range fields {
		if IsDevelopment() && verboseFields[k] {
			continue
		}
		kept[k] = v
	}
	if len(kept) == 0 {
		return l
	}
	return &logger{entry: l.entry.WithFields(kept)}
}

func (l *logger) WithError(err error) Logger {
	return &logger{entry: l.entry.WithError(err)}
}

// WithContext copia para o log a correlação, o job, a execução e a conta
// guardados no contexto
func (l *logger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}

	fields := make(logrus.Fields)
	for _, key := range contextFields {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			fields[string(key)] = v
		}
	}
	if len(fields) == 0 {
		return l
	}
	return &logger{entry: l.entry.WithFields(fields)}
}

func (l *logger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l *logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l *logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *logger) Fatal(args ...interface{})                 { l.entry.Fatal(args...) }

// WithCorrelationID gera um ID de correlação novo
func WithCorrelationID(ctx context.Context) (context.Context, string) {
	correlationID := uuid.New().String()
	return context.WithValue(ctx, CorrelationIDKey, correlationID), correlationID
}

// ContinueCorrelationID reaproveita o ID recebido (header X-Correlation-ID)
// ou gera um novo quando vazio
func ContinueCorrelationID(ctx context.Context, correlationID string) (context.Context, string) {
	if correlationID == "" {
		return WithCorrelationID(ctx)
	}
	return context.WithValue(ctx, CorrelationIDKey, correlationID), correlationID
}

func GetCorrelationID(ctx context.Context) string {
	if correlationID, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return correlationID
	}
	return ""
}

// ForContext cria um logger com os campos do contexto
func ForContext(ctx context.Context) Logger {
	return L.WithContext(ctx)
}

// WithJob guarda fila e id do job no contexto dos handlers
func WithJob(ctx context.Context, queue, jobID string) context.Context {
	ctx = context.WithValue(ctx, queueKey, queue)
	return context.WithValue(ctx, jobIDKey, jobID)
}

// ForJob cria um logger com fila e job, além do que já houver no contexto
func ForJob(ctx context.Context, queue, jobID string) Logger {
	return L.WithContext(WithJob(ctx, queue, jobID))
}

func WithSyncRun(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, syncRunIDKey, runID)
}

func WithAccount(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}
