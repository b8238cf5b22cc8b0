package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionStatusChange = "status_change"
	ActionBatchSave    = "batch_save"
	ActionGenerate     = "generate"
)

type Event struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"-"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Recorder interface {
	Record(ctx context.Context, evt Event) error
}

type Lister interface {
	List(ctx context.Context, companyID string, filter Filter, limit, offset int) ([]Event, error)
}

type Filter struct {
	Action     string
	EntityType string
}

// NewEvent marshals the before/after snapshots. Nil snapshots are omitted.
func NewEvent(companyID, actorID, action, entityType, entityID, requestID string, before, after any) (Event, error) {
	evt := Event{
		CompanyID:  companyID,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestID,
	}
	if before != nil {
		payload, err := json.Marshal(before)
		if err != nil {
			return Event{}, err
		}
		evt.Before = payload
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return Event{}, err
		}
		evt.After = payload
	}
	return evt, nil
}

type PGStore struct {
	DB *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) Record(ctx context.Context, evt Event) error {
	var before, after []byte
	if len(evt.Before) > 0 {
		before = evt.Before
	}
	if len(evt.After) > 0 {
		after = evt.After
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (company_id, actor_id, action, entity_type, entity_id, request_id, before_json, after_json)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, evt.CompanyID, evt.ActorID, evt.Action, evt.EntityType, evt.EntityID, evt.RequestID, before, after)
	return err
}

func (s *PGStore) List(ctx context.Context, companyID string, filter Filter, limit, offset int) ([]Event, error) {
	query := `SELECT id, actor_id, action, entity_type, entity_id, request_id, created_at, before_json, after_json
    FROM audit_events WHERE company_id = $1`
	args := []any{companyID}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", len(args)+1)
		args = append(args, filter.Action)
	}
	if filter.EntityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", len(args)+1)
		args = append(args, filter.EntityType)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		var before, after []byte
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.CreatedAt, &before, &after); err != nil {
			return nil, err
		}
		evt.CompanyID = companyID
		evt.Before = before
		evt.After = after
		out = append(out, evt)
	}
	return out, rows.Err()
}

// LogRecorder writes audit events to the structured log. Used when no
// persistent trail is configured.
type LogRecorder struct {
	Logger zerolog.Logger
}

func (r LogRecorder) Record(_ context.Context, evt Event) error {
	r.Logger.Info().
		Str("company_id", evt.CompanyID).
		Str("actor_id", evt.ActorID).
		Str("action", evt.Action).
		Str("entity_type", evt.EntityType).
		Str("entity_id", evt.EntityID).
		Str("request_id", evt.RequestID).
		RawJSON("before", orNull(evt.Before)).
		RawJSON("after", orNull(evt.After)).
		Msg("audit")
	return nil
}

func orNull(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
