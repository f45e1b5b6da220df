package handler

import (
	"context"
	"net/http"
	"slices"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"github.com/vfg2006/ads-sync-api/infrastructure/queue"
	"github.com/vfg2006/ads-sync-api/internal/jobs"
	"github.com/vfg2006/ads-sync-api/internal/scheduler"
	"github.com/vfg2006/ads-sync-api/pkg/apiErrors"
	"github.com/vfg2006/ads-sync-api/pkg/middleware"
)

// JobTypeAll dispara todas as famílias na ordem do dia
const JobTypeAll = "all"

// JobScheduler é satisfeito por *scheduler.Scheduler
type JobScheduler interface {
	Trigger(ctx context.Context, family scheduler.Family) (int, error)
	Status() scheduler.Status
}

// QueueInspector é satisfeito por *queue.Queue
type QueueInspector interface {
	Counts(ctx context.Context, queueName string) (queue.Counts, error)
	JobStatus(ctx context.Context, queueName, id string) (string, error)
}

type runJobsResponse struct {
	Enqueued map[scheduler.Family]int `json:"enqueued"`
}

type jobsStatusResponse struct {
	Scheduler scheduler.Status        `json:"scheduler"`
	Queues    map[string]queue.Counts `json:"queues"`
}

type jobStatusResponse struct {
	Queue  string `json:"queue"`
	ID     string `json:"id"`
	Status string `json:"status"`
}

// RunJobs enfileira manualmente uma família de jobs (ou todas)
func RunJobs(s JobScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobType := httprouter.ParamsFromContext(r.Context()).ByName("type")
		if jobType == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingField, "Tipo de job não especificado", nil)
			return
		}

		families := scheduler.Families
		if jobType != JobTypeAll {
			family, err := scheduler.ParseFamily(jobType)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Tipo de job inválido", map[string]any{
					"type":    jobType,
					"allowed": append(scheduler.Families, JobTypeAll),
				})
				return
			}
			families = []scheduler.Family{family}
		}

		fields := logrus.Fields{"type": jobType}
		if claims, ok := middleware.OperatorFromContext(r); ok {
			fields["operator_id"] = claims.OperatorID
		}
		logrus.WithFields(fields).Info("Disparo manual de jobs solicitado")

		resp := runJobsResponse{Enqueued: make(map[scheduler.Family]int, len(families))}
		for _, family := range families {
			n, err := s.Trigger(r.Context(), family)
			if err != nil {
				writeServiceError(w, err, "Erro ao enfileirar jobs")
				return
			}
			resp.Enqueued[family] = n
		}

		writeJSON(w, http.StatusAccepted, resp)
	}
}

// JobsStatus devolve o estado do scheduler e a profundidade de cada fila
func JobsStatus(s JobScheduler, q QueueInspector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := jobsStatusResponse{
			Scheduler: s.Status(),
			Queues:    make(map[string]queue.Counts, len(jobs.Queues)),
		}

		for _, name := range jobs.Queues {
			counts, err := q.Counts(r.Context(), name)
			if err != nil {
				logrus.WithError(err).WithField("queue", name).Error("Erro ao consultar fila")
				apiErrors.WriteError(w, apiErrors.ErrCommunication, "Erro ao consultar as filas", nil)
				return
			}
			resp.Queues[name] = counts
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// GetJobStatus consulta um job pelo JobID determinístico
func GetJobStatus(q QueueInspector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := httprouter.ParamsFromContext(r.Context())
		queueName, id := params.ByName("queue"), params.ByName("id")

		if !slices.Contains(jobs.Queues, queueName) {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Fila desconhecida", map[string]any{"queue": queueName})
			return
		}

		status, err := q.JobStatus(r.Context(), queueName, id)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"queue": queueName, "job_id": id}).Error("Erro ao consultar job")
			apiErrors.WriteError(w, apiErrors.ErrCommunication, "Erro ao consultar o job", nil)
			return
		}
		if status == "" {
			apiErrors.WriteError(w, apiErrors.ErrResourceNotFound, "Job não encontrado", nil)
			return
		}

		writeJSON(w, http.StatusOK, jobStatusResponse{Queue: queueName, ID: id, Status: status})
	}
}
