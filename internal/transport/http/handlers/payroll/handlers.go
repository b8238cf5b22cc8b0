package payrollhandler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"profitlens/internal/domain/audit"
	"profitlens/internal/domain/auth"
	"profitlens/internal/domain/payroll"
	"profitlens/internal/platform/logger"
	"profitlens/internal/platform/money"
	"profitlens/internal/transport/http/api"
	"profitlens/internal/transport/http/middleware"
	"profitlens/internal/transport/http/shared"
)

const (
	entityRecord   = "payroll_record"
	entitySettings = "payroll_settings"
	entityPeriod   = "payroll_period"
)

type Handler struct {
	Service *payroll.Service
	Audit   audit.Recorder
	Perms   middleware.PermissionChecker
}

func NewHandler(service *payroll.Service, recorder audit.Recorder, perms middleware.PermissionChecker) *Handler {
	return &Handler{Service: service, Audit: recorder, Perms: perms}
}

// periodBatch is the body of a pay-period save.
type periodBatch struct {
	Records []payroll.RecordDraft `json:"records" validate:"max=500,dive"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/settings", h.handleGetSettings)
		r.With(middleware.RequirePermission(auth.PermPayrollSettings, h.Perms)).Put("/settings", h.handleUpdateSettings)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Post("/preview", h.handlePreview)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/records", h.handleListRecords)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/records", h.handleCreateRecord)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/records/{recordID}", h.handleGetRecord)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Put("/records/{recordID}", h.handleUpdateRecord)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Delete("/records/{recordID}", h.handleDeleteRecord)
		r.With(middleware.RequirePermission(auth.PermPayrollPay, h.Perms)).Post("/records/{recordID}/status", h.handleSetStatus)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Put("/periods/{period}", h.handleSavePeriod)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/periods/{period}/generate", h.handleGeneratePeriod)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/periods/{period}/summary", h.handlePeriodSummary)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/periods/{period}/export/register", h.handleExportRegister)
	})
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	settings, err := h.Service.GetSettings(r.Context(), user.CompanyID)
	if err != nil {
		shared.InternalError(w, r, err, "payroll_settings_failed", "failed to load payroll settings")
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var draft payroll.SettingsDraft
	if !shared.DecodeJSON(w, r, &draft) {
		return
	}
	v := shared.NewValidator()
	v.Struct("", draft)
	v.Amount("pfPercentage", draft.PFPercentage, false, decimal.Zero)
	v.Amount("esiPercentage", draft.ESIPercentage, false, decimal.Zero)
	seen := map[string]bool{}
	for i, field := range draft.CustomFields {
		id := strings.TrimSpace(field.ID)
		if id == "" {
			continue
		}
		if seen[id] {
			v.Add(fmt.Sprintf("customFields[%d].id", i), "must be unique")
		}
		seen[id] = true
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	next, previous, err := h.Service.UpdateSettings(r.Context(), user.CompanyID, draft)
	if err != nil {
		shared.InternalError(w, r, err, "payroll_settings_failed", "failed to save payroll settings")
		return
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionUpdate, entitySettings, user.CompanyID, previous, next)
	api.Success(w, next, middleware.GetRequestID(r.Context()))
}

// handlePreview is lenient: malformed amounts count as zero so the form can
// show live totals while the operator is still typing.
func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var draft payroll.RecordDraft
	if !shared.DecodeJSON(w, r, &draft) {
		return
	}
	breakdown, err := h.Service.Preview(r.Context(), user.CompanyID, draft)
	if err != nil {
		shared.InternalError(w, r, err, "payroll_preview_failed", "failed to compute payroll preview")
		return
	}
	api.Success(w, breakdown, middleware.GetRequestID(r.Context()))
}

// validateRecord checks a draft that is about to be persisted.
func validateRecord(v *shared.Validator, prefix string, draft payroll.RecordDraft, settings payroll.Settings) {
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}
	v.Struct(prefix, draft)
	v.Amount(field("baseSalary"), draft.BaseSalary, false, decimal.Zero)
	v.Amount(field("workingDays"), draft.WorkingDays, true, decimal.NewFromInt(1))
	v.Amount(field("presentDays"), draft.PresentDays, true, decimal.Zero)
	v.Amount(field("otDays"), draft.OTDays, false, decimal.Zero)
	v.Amount(field("advances"), draft.Advances, false, decimal.Zero)
	v.Amount(field("otherDeductions"), draft.OtherDeductions, false, decimal.Zero)

	issues := payroll.CustomFieldIssues(draft.CustomFields, settings)
	ids := make([]string, 0, len(issues))
	for id := range issues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		v.Add(field("customFields."+id), issues[id])
	}
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	records, err := h.Service.ListRecords(r.Context(), user.CompanyID, r.URL.Query().Get("period"))
	if err != nil {
		h.fail(w, r, err, "payroll_list_failed", "failed to list payroll records")
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var draft payroll.RecordDraft
	if !shared.DecodeJSON(w, r, &draft) {
		return
	}
	settings, err := h.Service.GetSettings(r.Context(), user.CompanyID)
	if err != nil {
		shared.InternalError(w, r, err, "payroll_settings_failed", "failed to load payroll settings")
		return
	}
	v := shared.NewValidator()
	validateRecord(v, "", draft, settings)
	if !payroll.ValidPeriod(draft.PayPeriod) {
		v.Add("payPeriod", "must be a month in YYYY-MM format")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	rec, err := h.Service.CreateRecord(r.Context(), user.CompanyID, draft)
	if err != nil {
		h.fail(w, r, err, "payroll_create_failed", "failed to create payroll record")
		return
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionCreate, entityRecord, rec.ID, nil, rec)
	api.Created(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	rec, err := h.Service.GetRecord(r.Context(), user.CompanyID, chi.URLParam(r, "recordID"))
	if err != nil {
		h.fail(w, r, err, "payroll_get_failed", "failed to load payroll record")
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var draft payroll.RecordDraft
	if !shared.DecodeJSON(w, r, &draft) {
		return
	}
	settings, err := h.Service.GetSettings(r.Context(), user.CompanyID)
	if err != nil {
		shared.InternalError(w, r, err, "payroll_settings_failed", "failed to load payroll settings")
		return
	}
	v := shared.NewValidator()
	validateRecord(v, "", draft, settings)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	saved, previous, err := h.Service.UpdateRecord(r.Context(), user.CompanyID, chi.URLParam(r, "recordID"), draft)
	if err != nil {
		h.fail(w, r, err, "payroll_update_failed", "failed to update payroll record")
		return
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionUpdate, entityRecord, saved.ID, previous, saved)
	api.Success(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	deleted, err := h.Service.DeleteRecord(r.Context(), user.CompanyID, chi.URLParam(r, "recordID"))
	if err != nil {
		h.fail(w, r, err, "payroll_delete_failed", "failed to delete payroll record")
		return
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionDelete, entityRecord, deleted.ID, deleted, nil)
	api.Success(w, map[string]string{"id": deleted.ID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var change payroll.StatusChange
	if !shared.DecodeJSON(w, r, &change) {
		return
	}
	v := shared.NewValidator()
	v.Struct("", change)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	target, _ := payroll.ParseStatus(change.Status)

	saved, previous, err := h.Service.SetStatus(r.Context(), user.CompanyID, chi.URLParam(r, "recordID"), target)
	if err != nil {
		h.fail(w, r, err, "payroll_status_failed", "failed to change payroll status")
		return
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionStatusChange, entityRecord, saved.ID, previous, saved)
	api.Success(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSavePeriod(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	period := chi.URLParam(r, "period")
	requestID := middleware.GetRequestID(r.Context())
	if !payroll.ValidPeriod(period) {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "period", Reason: "must be a month in YYYY-MM format"}})
		return
	}
	var batch periodBatch
	if !shared.DecodeJSON(w, r, &batch) {
		return
	}
	if len(batch.Records) > payroll.MaxBatchRows {
		api.Fail(w, http.StatusRequestEntityTooLarge, "batch_too_large",
			fmt.Sprintf("a pay period save is limited to %d records", payroll.MaxBatchRows), requestID)
		return
	}
	settings, err := h.Service.GetSettings(r.Context(), user.CompanyID)
	if err != nil {
		shared.InternalError(w, r, err, "payroll_settings_failed", "failed to load payroll settings")
		return
	}
	v := shared.NewValidator()
	seen := map[string]int{}
	for i, draft := range batch.Records {
		prefix := fmt.Sprintf("records[%d]", i)
		validateRecord(v, prefix, draft, settings)
		id := strings.TrimSpace(draft.EmployeeID)
		if first, dup := seen[id]; dup && id != "" {
			v.Add(prefix+".employeeId", fmt.Sprintf("duplicates records[%d]", first))
			continue
		}
		seen[id] = i
	}
	if v.Reject(w, requestID) {
		return
	}

	saved, err := h.Service.SavePeriod(r.Context(), user.CompanyID, period, batch.Records)
	if err != nil {
		h.fail(w, r, err, "payroll_batch_failed", "failed to save pay period")
		return
	}
	ids := make([]string, 0, len(saved))
	for _, rec := range saved {
		ids = append(ids, rec.ID)
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionBatchSave, entityPeriod, period, nil, map[string]any{"records": ids})
	api.Success(w, saved, requestID)
}

func (h *Handler) handleGeneratePeriod(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	period := chi.URLParam(r, "period")
	created, err := h.Service.GeneratePeriod(r.Context(), user.CompanyID, period)
	if err != nil {
		h.fail(w, r, err, "payroll_generate_failed", "failed to generate pay period")
		return
	}
	if len(created) > 0 {
		shared.Audit(r.Context(), h.Audit, user, audit.ActionGenerate, entityPeriod, period, nil, map[string]int{"created": len(created)})
	}
	api.Success(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.Summary(r.Context(), user.CompanyID, chi.URLParam(r, "period"))
	if err != nil {
		h.fail(w, r, err, "payroll_summary_failed", "failed to summarize pay period")
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	period := chi.URLParam(r, "period")
	if !payroll.ValidPeriod(period) {
		h.fail(w, r, payroll.ErrInvalidPeriod, "", "")
		return
	}
	records, err := h.Service.ListRecords(r.Context(), user.CompanyID, period)
	if err != nil {
		h.fail(w, r, err, "payroll_export_failed", "failed to export pay period")
		return
	}

	log := logger.FromContext(r.Context())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=payroll-register-"+period+".csv")
	writer := csv.NewWriter(w)
	header := []string{"employee_id", "base_salary", "working_days", "present_days", "ot_days", "gross_earnings",
		"pf", "esi", "custom_deductions", "advances", "other_deductions", "total_deductions", "net_payment", "status"}
	if err := writer.Write(header); err != nil {
		log.Warn().Err(err).Msg("register export header failed")
	}
	for _, rec := range records {
		row := []string{
			rec.EmployeeID,
			money.Format(rec.BaseSalary),
			rec.WorkingDays.String(),
			rec.PresentDays.String(),
			rec.OTDays.String(),
			money.Format(rec.GrossEarnings),
			money.Format(rec.PFContribution),
			money.Format(rec.ESIContribution),
			money.Format(rec.CustomDeductions),
			money.Format(rec.Advances),
			money.Format(rec.OtherDeductions),
			money.Format(rec.TotalDeductions),
			money.Format(rec.NetPayment),
			string(rec.Status),
		}
		if err := writer.Write(row); err != nil {
			log.Warn().Err(err).Msg("register export row failed")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Warn().Err(err).Msg("register export flush failed")
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrRecordNotFound):
		api.Fail(w, http.StatusNotFound, "payroll_record_not_found", "payroll record not found", requestID)
	case errors.Is(err, payroll.ErrRecordPaid):
		api.Fail(w, http.StatusConflict, "payroll_record_paid", "paid payroll records cannot be changed", requestID)
	case errors.Is(err, payroll.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_status_transition", err.Error(), requestID)
	case errors.Is(err, payroll.ErrDuplicateRecord):
		api.Fail(w, http.StatusConflict, "payroll_record_exists", "a payroll record already exists for this employee and period", requestID)
	case errors.Is(err, payroll.ErrBatchTooLarge):
		api.Fail(w, http.StatusRequestEntityTooLarge, "batch_too_large", err.Error(), requestID)
	case errors.Is(err, payroll.ErrInvalidPeriod):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "period", Reason: "must be a month in YYYY-MM format"}})
	case errors.Is(err, payroll.ErrEmployeeNotFound):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "employeeId", Reason: "does not match an employee of this company"}})
	case errors.Is(err, payroll.ErrDuplicateEmployees):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "records", Reason: "must not repeat an employee"}})
	default:
		shared.InternalError(w, r, err, code, message)
	}
}
