package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"profitlens/internal/domain/payroll"
	"profitlens/internal/platform/logger"
)

// CompanyLister returns every company id known to the active backend.
type CompanyLister func(ctx context.Context) ([]string, error)

type PeriodGenerator interface {
	GeneratePeriod(ctx context.Context, companyID, period string) ([]payroll.Record, error)
}

type Service struct {
	runs      RunStore
	companies CompanyLister
	payroll   PeriodGenerator
	queue     chan job
	cron      *cron.Cron
	log       zerolog.Logger
	now       func() time.Time
}

type job struct {
	Type      string
	CompanyID string
	Run       func(context.Context) (any, error)
}

func New(runs RunStore, companies CompanyLister, generator PeriodGenerator) *Service {
	if runs == nil {
		runs = LogRunStore{}
	}
	return &Service{
		runs:      runs,
		companies: companies,
		payroll:   generator,
		queue:     make(chan job, 128),
		log:       logger.WithComponent("jobs"),
		now:       time.Now,
	}
}

// Start runs the worker and, when schedule is not empty, the pay-period
// generator on that cron spec. Both stop with ctx.
func (s *Service) Start(ctx context.Context, schedule string) error {
	go s.worker(ctx)
	if schedule == "" {
		return nil
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(schedule, func() { s.EnqueueGeneration(ctx) }); err != nil {
		return fmt.Errorf("schedule pay period generation: %w", err)
	}
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
	s.log.Info().Str("schedule", schedule).Msg("pay period generation scheduled")
	return nil
}

func (s *Service) Enqueue(jobType, companyID string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, CompanyID: companyID, Run: run}:
	default:
		s.log.Warn().Str("job_type", jobType).Str("company_id", companyID).Msg("job queue full")
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, companyID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, CompanyID: companyID, Run: run})
}

// EnqueueGeneration queues GeneratePeriod for the current month of every company.
func (s *Service) EnqueueGeneration(ctx context.Context) {
	period := payroll.PeriodOf(s.now().UTC())
	companies, err := s.companies(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("generation scheduler company lookup failed")
		return
	}
	for _, companyID := range companies {
		company := companyID
		s.Enqueue(payroll.JobGeneratePeriod, company, s.generation(company, period))
	}
}

// GenerateAll runs GeneratePeriod for period across every company in turn and
// returns how many records each company received.
func (s *Service) GenerateAll(ctx context.Context, period string) (map[string]int, error) {
	companies, err := s.companies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	created := make(map[string]int, len(companies))
	for _, companyID := range companies {
		details, err := s.RunNow(ctx, payroll.JobGeneratePeriod, companyID, s.generation(companyID, period))
		if err != nil {
			return created, fmt.Errorf("generate %s for company %s: %w", period, companyID, err)
		}
		if m, ok := details.(map[string]any); ok {
			if n, ok := m["created"].(int); ok {
				created[companyID] = n
			}
		}
	}
	return created, nil
}

func (s *Service) generation(companyID, period string) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		records, err := s.payroll.GeneratePeriod(ctx, companyID, period)
		return map[string]any{"period": period, "created": len(records)}, err
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				s.log.Warn().Err(err).Str("job_type", j.Type).Str("company_id", j.CompanyID).Msg("job run failed")
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID, err := s.runs.Start(ctx, j.CompanyID, j.Type)
	if err != nil {
		s.log.Warn().Err(err).Msg("job run insert failed")
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	if runID != "" {
		if finishErr := s.runs.Finish(ctx, runID, status, details); finishErr != nil {
			s.log.Warn().Err(finishErr).Str("run_id", runID).Msg("job run update failed")
		}
	}
	return details, err
}
