package domain

import "time"

type SyncRunStatus string

const (
	SyncRunStatusRunning SyncRunStatus = "running"
	SyncRunStatusSuccess SyncRunStatus = "success"
	SyncRunStatusPartial SyncRunStatus = "partial"
	SyncRunStatusFailed  SyncRunStatus = "failed"
)

type SyncRunError struct {
	Kind       ErrorKind  `json:"kind"`
	EntityType EntityType `json:"entity_type,omitempty"`
	ExternalID string     `json:"external_id,omitempty"`
	Message    string     `json:"message"`
}

// SyncRun é o resumo persistido de uma execução de sincronização
type SyncRun struct {
	ID            string             `json:"id"`
	ConnectionID  string             `json:"connection_id"`
	Family        string             `json:"family"`
	Status        SyncRunStatus      `json:"status"`
	Counts        map[EntityType]int `json:"counts"`
	Errors        []SyncRunError     `json:"errors"`
	ErrorCategory *ErrorKind         `json:"error_category,omitempty"`
	StartedAt     time.Time          `json:"started_at"`
	FinishedAt    *time.Time         `json:"finished_at,omitempty"`
}

func NewSyncRun(id, connectionID, family string, startedAt time.Time) *SyncRun {
	return &SyncRun{
		ID:           id,
		ConnectionID: connectionID,
		Family:       family,
		Status:       SyncRunStatusRunning,
		Counts:       map[EntityType]int{},
		Errors:       []SyncRunError{},
		StartedAt:    startedAt,
	}
}

func (r *SyncRun) Count(t EntityType) {
	r.Counts[t]++
}

func (r *SyncRun) AddError(kind ErrorKind, t EntityType, externalID string, err error) {
	r.Errors = append(r.Errors, SyncRunError{
		Kind:       kind,
		EntityType: t,
		ExternalID: externalID,
		Message:    err.Error(),
	})
}

func (r *SyncRun) Synced() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// Finish fecha a execução. Sucesso parcial é um estado terminal válido.
func (r *SyncRun) Finish(at time.Time, fatal error) {
	r.FinishedAt = &at

	if fatal != nil {
		kind := KindOf(fatal)
		r.ErrorCategory = &kind
		r.Errors = append(r.Errors, SyncRunError{Kind: kind, Message: fatal.Error()})
		r.Status = SyncRunStatusFailed
		return
	}

	switch {
	case len(r.Errors) == 0:
		r.Status = SyncRunStatusSuccess
	case r.Synced() > 0:
		r.Status = SyncRunStatusPartial
	default:
		kind := r.Errors[0].Kind
		r.ErrorCategory = &kind
		r.Status = SyncRunStatusFailed
	}
}
