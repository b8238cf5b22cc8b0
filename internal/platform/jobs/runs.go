package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"profitlens/internal/platform/docstore"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunStore keeps the history of job runs.
type RunStore interface {
	Start(ctx context.Context, companyID, jobType string) (string, error)
	Finish(ctx context.Context, runID, status string, details any) error
}

type PGRunStore struct {
	DB *pgxpool.Pool
}

func (s PGRunStore) Start(ctx context.Context, companyID, jobType string) (string, error) {
	var runID string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (company_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, companyID, jobType, StatusRunning).Scan(&runID)
	return runID, err
}

func (s PGRunStore) Finish(ctx context.Context, runID, status string, details any) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		log.Warn().Err(err).Msg("job details marshal failed")
		detailsJSON = []byte("{}")
	}
	_, err = s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID)
	return err
}

// LogRunStore writes runs to the log for backends without a job_runs table.
type LogRunStore struct{}

func (LogRunStore) Start(_ context.Context, companyID, jobType string) (string, error) {
	runID := uuid.NewString()
	log.Info().Str("run_id", runID).Str("company_id", companyID).Str("job_type", jobType).Msg("job started")
	return runID, nil
}

func (LogRunStore) Finish(_ context.Context, runID, status string, details any) error {
	log.Info().Str("run_id", runID).Str("status", status).Interface("details", details).Msg("job finished")
	return nil
}

// FirestoreRunStore keeps runs under companies/{cid}/jobRuns.
type FirestoreRunStore struct {
	Client *firestore.Client
}

type runDoc struct {
	JobType     string     `firestore:"jobType"`
	Status      string     `firestore:"status"`
	Details     string     `firestore:"details,omitempty"`
	StartedAt   time.Time  `firestore:"startedAt"`
	CompletedAt *time.Time `firestore:"completedAt"`
}

// Run ids carry the company so Finish can find the document again.
func (s FirestoreRunStore) Start(ctx context.Context, companyID, jobType string) (string, error) {
	ref := docstore.Company(s.Client, companyID).Collection(docstore.JobRunsCollection).NewDoc()
	_, err := ref.Create(ctx, runDoc{JobType: jobType, Status: StatusRunning, StartedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	return companyID + "/" + ref.ID, nil
}

func (s FirestoreRunStore) Finish(ctx context.Context, runID, status string, details any) error {
	companyID, docID, ok := strings.Cut(runID, "/")
	if !ok {
		return fmt.Errorf("malformed run id %q", runID)
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}
	now := time.Now().UTC()
	_, err = docstore.Company(s.Client, companyID).Collection(docstore.JobRunsCollection).Doc(docID).Update(ctx, []firestore.Update{
		{Path: "status", Value: status},
		{Path: "details", Value: string(detailsJSON)},
		{Path: "completedAt", Value: now},
	})
	return err
}
