package payroll

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"profitlens/internal/domain/employees"
	"profitlens/internal/platform/cache"
	"profitlens/internal/platform/logger"
	"profitlens/internal/platform/money"
)

type Service struct {
	store     StoreAPI
	directory EmployeeDirectory
	cache     cache.Cache
	cacheTTL  time.Duration
	batches   BatchObserver
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(store StoreAPI, directory EmployeeDirectory, settingsCache cache.Cache, cacheTTL time.Duration, batches BatchObserver) *Service {
	if settingsCache == nil {
		settingsCache = cache.Noop{}
	}
	return &Service{
		store:     store,
		directory: directory,
		cache:     settingsCache,
		cacheTTL:  cacheTTL,
		batches:   batches,
		log:       logger.WithComponent("payroll"),
		now:       time.Now,
	}
}

type settingsEntry struct {
	PFPercentage  string        `json:"pf"`
	ESIPercentage string        `json:"esi"`
	CustomFields  []CustomField `json:"customFields"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func settingsKey(companyID string) string {
	return "payroll:settings:" + companyID
}

// GetSettings reads through the settings cache. Cache failures fall back to the store.
func (s *Service) GetSettings(ctx context.Context, companyID string) (Settings, error) {
	var entry settingsEntry
	found, err := s.cache.GetJSON(ctx, settingsKey(companyID), &entry)
	if err != nil {
		s.log.Warn().Err(err).Str("company_id", companyID).Msg("settings cache read failed")
	}
	if found {
		return Settings{
			CompanyID:     companyID,
			PFPercentage:  money.FromString(entry.PFPercentage),
			ESIPercentage: money.FromString(entry.ESIPercentage),
			CustomFields:  entry.CustomFields,
			UpdatedAt:     entry.UpdatedAt,
		}, nil
	}

	settings, err := s.store.GetSettings(ctx, companyID)
	if err != nil {
		return Settings{}, fmt.Errorf("load payroll settings: %w", err)
	}
	settings.CompanyID = companyID
	entry = settingsEntry{
		PFPercentage:  settings.PFPercentage.String(),
		ESIPercentage: settings.ESIPercentage.String(),
		CustomFields:  settings.CustomFields,
		UpdatedAt:     settings.UpdatedAt,
	}
	if err := s.cache.SetJSON(ctx, settingsKey(companyID), entry, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("company_id", companyID).Msg("settings cache write failed")
	}
	return settings, nil
}

// UpdateSettings replaces the company settings. Saved records keep the
// percentages they were computed with.
func (s *Service) UpdateSettings(ctx context.Context, companyID string, draft SettingsDraft) (Settings, Settings, error) {
	previous, err := s.GetSettings(ctx, companyID)
	if err != nil {
		return Settings{}, Settings{}, err
	}
	next := Settings{
		CompanyID:     companyID,
		PFPercentage:  money.NonNegative(draft.PFPercentage.Coerced()),
		ESIPercentage: money.NonNegative(draft.ESIPercentage.Coerced()),
		CustomFields:  draft.CustomFields,
		UpdatedAt:     s.now().UTC(),
	}
	if next.CustomFields == nil {
		next.CustomFields = []CustomField{}
	}
	if err := s.store.SaveSettings(ctx, next); err != nil {
		return Settings{}, previous, fmt.Errorf("save payroll settings: %w", err)
	}
	if err := s.cache.Delete(ctx, settingsKey(companyID)); err != nil {
		s.log.Warn().Err(err).Str("company_id", companyID).Msg("settings cache invalidation failed")
	}
	return next, previous, nil
}

// Preview computes a breakdown with the current settings without saving anything.
func (s *Service) Preview(ctx context.Context, companyID string, draft RecordDraft) (Breakdown, error) {
	settings, err := s.GetSettings(ctx, companyID)
	if err != nil {
		return Breakdown{}, err
	}
	return Compute(draft.Input(settings), settings), nil
}

func (s *Service) buildRecord(companyID, period string, draft RecordDraft, emp employees.Employee, settings Settings) Record {
	in := draft.Input(settings)
	in.EmployeeID = emp.ID
	if !draft.BaseSalary.Present {
		in.BaseSalary = emp.BaseSalary
	}
	return Record{
		CompanyID: companyID,
		PayPeriod: period,
		Input:     in,
		Breakdown: Compute(in, settings),
		Status:    StatusPending,
	}
}

func (s *Service) CreateRecord(ctx context.Context, companyID string, draft RecordDraft) (Record, error) {
	if !ValidPeriod(draft.PayPeriod) {
		return Record{}, ErrInvalidPeriod
	}
	emp, err := s.directory.Get(ctx, companyID, draft.EmployeeID)
	if err != nil {
		if errors.Is(err, employees.ErrEmployeeNotFound) {
			return Record{}, ErrEmployeeNotFound
		}
		return Record{}, err
	}
	settings, err := s.GetSettings(ctx, companyID)
	if err != nil {
		return Record{}, err
	}
	rec := s.buildRecord(companyID, draft.PayPeriod, draft, emp, settings)
	now := s.now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	created, err := s.store.CreateRecord(ctx, rec)
	if err != nil {
		return Record{}, fmt.Errorf("create payroll record: %w", err)
	}
	return created, nil
}

func (s *Service) GetRecord(ctx context.Context, companyID, recordID string) (Record, error) {
	return s.store.GetRecord(ctx, companyID, recordID)
}

func (s *Service) ListRecords(ctx context.Context, companyID, period string) ([]Record, error) {
	if period != "" && !ValidPeriod(period) {
		return nil, ErrInvalidPeriod
	}
	records, err := s.store.ListRecords(ctx, companyID, period)
	if err != nil {
		return nil, fmt.Errorf("list payroll records: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// UpdateRecord edits a pending record and recomputes it with the current
// settings. Employee and period are fixed once a record exists.
func (s *Service) UpdateRecord(ctx context.Context, companyID, recordID string, draft RecordDraft) (Record, Record, error) {
	previous, err := s.store.GetRecord(ctx, companyID, recordID)
	if err != nil {
		return Record{}, Record{}, err
	}
	if previous.Status == StatusPaid {
		return Record{}, previous, ErrRecordPaid
	}
	settings, err := s.GetSettings(ctx, companyID)
	if err != nil {
		return Record{}, previous, err
	}
	in := draft.Input(settings)
	in.EmployeeID = previous.EmployeeID
	if !draft.BaseSalary.Present {
		in.BaseSalary = previous.BaseSalary
	}
	next := previous
	next.Input = in
	next.Breakdown = Compute(in, settings)
	next.UpdatedAt = s.now().UTC()
	saved, err := s.store.UpdateRecord(ctx, next)
	if err != nil {
		return Record{}, previous, fmt.Errorf("update payroll record: %w", err)
	}
	return saved, previous, nil
}

// DeleteRecord removes a pending record. Paid records are kept as history.
func (s *Service) DeleteRecord(ctx context.Context, companyID, recordID string) (Record, error) {
	existing, err := s.store.GetRecord(ctx, companyID, recordID)
	if err != nil {
		return Record{}, err
	}
	if existing.Status == StatusPaid {
		return Record{}, ErrRecordPaid
	}
	if err := s.store.DeleteRecord(ctx, companyID, recordID); err != nil {
		return Record{}, fmt.Errorf("delete payroll record: %w", err)
	}
	return existing, nil
}

// SetStatus moves a record between Pending and Paid. Entering Paid stamps
// paidAt; re-marking a paid record keeps the original stamp.
func (s *Service) SetStatus(ctx context.Context, companyID, recordID string, target Status) (Record, Record, error) {
	previous, err := s.store.GetRecord(ctx, companyID, recordID)
	if err != nil {
		return Record{}, Record{}, err
	}
	if err := Transition(previous.Status, target); err != nil {
		return Record{}, previous, err
	}
	next := previous
	now := s.now().UTC()
	switch {
	case target == StatusPaid && previous.Status != StatusPaid:
		next.PaidAt = &now
	case target == StatusPending:
		next.PaidAt = nil
	}
	next.Status = target
	next.UpdatedAt = now
	saved, err := s.store.UpdateRecord(ctx, next)
	if err != nil {
		return Record{}, previous, fmt.Errorf("update payroll status: %w", err)
	}
	return saved, previous, nil
}

// SavePeriod writes one record per draft for period as a single atomic batch.
// Existing pending records for the same employee are replaced; a paid one
// rejects the whole batch.
func (s *Service) SavePeriod(ctx context.Context, companyID, period string, drafts []RecordDraft) ([]Record, error) {
	if !ValidPeriod(period) {
		return nil, ErrInvalidPeriod
	}
	if len(drafts) > MaxBatchRows {
		return nil, ErrBatchTooLarge
	}
	if len(drafts) == 0 {
		return []Record{}, nil
	}

	roster, err := s.directory.List(ctx, companyID, "")
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	byID := make(map[string]employees.Employee, len(roster))
	for _, emp := range roster {
		byID[emp.ID] = emp
	}

	existing, err := s.store.ListRecords(ctx, companyID, period)
	if err != nil {
		return nil, fmt.Errorf("load pay period: %w", err)
	}
	current := make(map[string]Record, len(existing))
	for _, rec := range existing {
		current[rec.EmployeeID] = rec
	}

	settings, err := s.GetSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	seen := map[string]bool{}
	records := make([]Record, 0, len(drafts))
	for _, draft := range drafts {
		emp, ok := byID[draft.EmployeeID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrEmployeeNotFound, draft.EmployeeID)
		}
		if seen[emp.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmployees, emp.ID)
		}
		seen[emp.ID] = true

		rec := s.buildRecord(companyID, period, draft, emp, settings)
		rec.CreatedAt = now
		rec.UpdatedAt = now
		if prior, ok := current[emp.ID]; ok {
			if prior.Status == StatusPaid {
				return nil, fmt.Errorf("%w: employee %s", ErrRecordPaid, emp.ID)
			}
			rec.ID = prior.ID
			rec.CreatedAt = prior.CreatedAt
		}
		records = append(records, rec)
	}

	saved, err := s.store.UpsertRecords(ctx, companyID, records)
	s.observeBatch(len(records), err)
	if err != nil {
		return nil, fmt.Errorf("save pay period %s: %w", period, err)
	}
	return saved, nil
}

// GeneratePeriod creates a pending record for every active employee that has
// none in period yet, assuming full attendance. It is safe to run repeatedly.
func (s *Service) GeneratePeriod(ctx context.Context, companyID, period string) ([]Record, error) {
	days, err := DaysInPeriod(period)
	if err != nil {
		return nil, err
	}
	active, err := s.directory.ListActive(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load active employees: %w", err)
	}
	existing, err := s.store.ListRecords(ctx, companyID, period)
	if err != nil {
		return nil, fmt.Errorf("load pay period: %w", err)
	}
	has := make(map[string]bool, len(existing))
	for _, rec := range existing {
		has[rec.EmployeeID] = true
	}
	settings, err := s.GetSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}

	daysDec := decimal.NewFromInt(int64(days))
	now := s.now().UTC()
	var records []Record
	for _, emp := range active {
		if has[emp.ID] {
			continue
		}
		in := Input{
			EmployeeID:   emp.ID,
			BaseSalary:   emp.BaseSalary,
			WorkingDays:  daysDec,
			PresentDays:  daysDec,
			OTDays:       decimal.Zero,
			CustomFields: map[string]string{},
		}
		records = append(records, Record{
			CompanyID: companyID,
			PayPeriod: period,
			Input:     in,
			Breakdown: Compute(in, settings),
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if len(records) == 0 {
		return []Record{}, nil
	}
	if len(records) > MaxBatchRows {
		return nil, ErrBatchTooLarge
	}
	created, err := s.store.CreateRecords(ctx, companyID, records)
	s.observeBatch(len(records), err)
	if err != nil {
		return nil, fmt.Errorf("generate pay period %s: %w", period, err)
	}
	s.log.Info().Str("company_id", companyID).Str("period", period).Int("created", len(created)).Msg("pay period generated")
	return created, nil
}

func (s *Service) Summary(ctx context.Context, companyID, period string) (PeriodSummary, error) {
	records, err := s.ListRecords(ctx, companyID, period)
	if err != nil {
		return PeriodSummary{}, err
	}
	return Summarize(period, records), nil
}

// Summarize totals the saved figures of records.
func Summarize(period string, records []Record) PeriodSummary {
	summary := PeriodSummary{
		Period:          period,
		GrossEarnings:   decimal.Zero,
		TotalDeductions: decimal.Zero,
		NetPayment:      decimal.Zero,
	}
	for _, rec := range records {
		summary.Records++
		if rec.Status == StatusPaid {
			summary.Paid++
		} else {
			summary.Pending++
		}
		summary.GrossEarnings = summary.GrossEarnings.Add(rec.GrossEarnings)
		summary.TotalDeductions = summary.TotalDeductions.Add(rec.TotalDeductions)
		summary.NetPayment = summary.NetPayment.Add(rec.NetPayment)
	}
	return summary
}

func (s *Service) observeBatch(rows int, err error) {
	if s.batches != nil {
		s.batches.RecordBatch(rows, err)
	}
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].PayPeriod == records[j].PayPeriod {
			return records[i].EmployeeID < records[j].EmployeeID
		}
		return records[i].PayPeriod < records[j].PayPeriod
	})
}
