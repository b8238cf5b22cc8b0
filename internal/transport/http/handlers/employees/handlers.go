package employeehandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"profitlens/internal/domain/audit"
	"profitlens/internal/domain/auth"
	"profitlens/internal/domain/employees"
	"profitlens/internal/transport/http/api"
	"profitlens/internal/transport/http/middleware"
	"profitlens/internal/transport/http/shared"
)

const entityEmployee = "employee"

type Handler struct {
	Service *employees.Service
	Audit   audit.Recorder
	Perms   middleware.PermissionChecker
}

func NewHandler(service *employees.Service, recorder audit.Recorder, perms middleware.PermissionChecker) *Handler {
	return &Handler{Service: service, Audit: recorder, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/{employeeID}", h.handleUpdate)
	})
}

func validateDraft(draft employees.Draft) *shared.Validator {
	v := shared.NewValidator()
	v.Struct("", draft)
	v.Amount("baseSalary", draft.BaseSalary, true, decimal.Zero)
	v.Date("joinedOn", draft.JoinedOn, false)
	return v
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	if status != "" && status != employees.StatusActive && status != employees.StatusInactive {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "status", Reason: "must be one of: active, inactive"}})
		return
	}
	list, err := h.Service.List(r.Context(), user.CompanyID, status)
	if err != nil {
		shared.InternalError(w, r, err, "employee_list_failed", "failed to list employees")
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var draft employees.Draft
	if !shared.DecodeJSON(w, r, &draft) {
		return
	}
	if validateDraft(draft).Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	emp, err := h.Service.Create(r.Context(), user.CompanyID, draft)
	if err != nil {
		shared.InternalError(w, r, err, "employee_create_failed", "failed to create employee")
		return
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionCreate, entityEmployee, emp.ID, nil, emp)
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.Get(r.Context(), user.CompanyID, chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, r, err, "employee_get_failed", "failed to load employee")
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var draft employees.Draft
	if !shared.DecodeJSON(w, r, &draft) {
		return
	}
	if validateDraft(draft).Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	saved, previous, err := h.Service.Update(r.Context(), user.CompanyID, chi.URLParam(r, "employeeID"), draft)
	if err != nil {
		h.fail(w, r, err, "employee_update_failed", "failed to update employee")
		return
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionUpdate, entityEmployee, saved.ID, previous, saved)
	api.Success(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	if errors.Is(err, employees.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	shared.InternalError(w, r, err, code, message)
}
