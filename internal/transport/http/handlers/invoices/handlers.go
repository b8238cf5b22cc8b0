package invoicehandler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"profitlens/internal/domain/audit"
	"profitlens/internal/domain/auth"
	"profitlens/internal/domain/invoicing"
	"profitlens/internal/transport/http/api"
	"profitlens/internal/transport/http/middleware"
	"profitlens/internal/transport/http/shared"
)

const entityInvoice = "invoice"

var hundred = decimal.NewFromInt(100)

type Handler struct {
	Service *invoicing.Service
	Audit   audit.Recorder
	Perms   middleware.PermissionChecker
}

func NewHandler(service *invoicing.Service, recorder audit.Recorder, perms middleware.PermissionChecker) *Handler {
	return &Handler{Service: service, Audit: recorder, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermInvoicesRead, h.Perms)).Post("/preview", h.handlePreview)
		r.With(middleware.RequirePermission(auth.PermInvoicesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermInvoicesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermInvoicesRead, h.Perms)).Get("/{invoiceID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermInvoicesWrite, h.Perms)).Put("/{invoiceID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermInvoicesWrite, h.Perms)).Delete("/{invoiceID}", h.handleDelete)
	})
}

// validateDraft is the strict check applied before anything is saved.
func validateDraft(draft invoicing.Draft) *shared.Validator {
	v := shared.NewValidator()
	v.Struct("", draft)
	v.Date("issueDate", draft.IssueDate, false)
	v.Date("dueDate", draft.DueDate, false)
	for i, item := range draft.Items {
		prefix := "items[" + strconv.Itoa(i) + "]"
		v.Amount(prefix+".quantity", item.Quantity, true, decimal.Zero)
		v.Amount(prefix+".unitPrice", item.UnitPrice, true, decimal.Zero)
	}
	v.Amount("discountValue", draft.DiscountValue, false, decimal.Zero)
	v.Amount("taxRatePercent", draft.TaxRatePercent, false, decimal.Zero)
	if discountType, _ := invoicing.ParseDiscountType(draft.DiscountType); discountType == invoicing.DiscountPercentage &&
		draft.DiscountValue.Valid && draft.DiscountValue.Value.GreaterThan(hundred) {
		v.Add("discountValue", "percentage discount must be at most 100")
	}
	return v
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.RequireUser(w, r); !ok {
		return
	}
	var draft invoicing.Draft
	if !shared.DecodeJSON(w, r, &draft) {
		return
	}
	api.Success(w, h.Service.Preview(draft), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	result, err := h.Service.List(r.Context(), user.CompanyID, page.Limit, page.Offset)
	if err != nil {
		shared.InternalError(w, r, err, "invoice_list_failed", "failed to list invoices")
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var draft invoicing.Draft
	if !shared.DecodeJSON(w, r, &draft) {
		return
	}
	if validateDraft(draft).Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	inv, err := h.Service.Create(r.Context(), user.CompanyID, draft)
	if err != nil {
		h.fail(w, r, err, "invoice_create_failed", "failed to create invoice")
		return
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionCreate, entityInvoice, inv.ID, nil, inv)
	api.Created(w, inv, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	inv, err := h.Service.Get(r.Context(), user.CompanyID, chi.URLParam(r, "invoiceID"))
	if err != nil {
		h.fail(w, r, err, "invoice_get_failed", "failed to load invoice")
		return
	}
	api.Success(w, inv, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var draft invoicing.Draft
	if !shared.DecodeJSON(w, r, &draft) {
		return
	}
	if validateDraft(draft).Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	saved, previous, err := h.Service.Update(r.Context(), user.CompanyID, chi.URLParam(r, "invoiceID"), draft)
	if err != nil {
		h.fail(w, r, err, "invoice_update_failed", "failed to update invoice")
		return
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionUpdate, entityInvoice, saved.ID, previous, saved)
	api.Success(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	deleted, err := h.Service.Delete(r.Context(), user.CompanyID, chi.URLParam(r, "invoiceID"))
	if err != nil {
		h.fail(w, r, err, "invoice_delete_failed", "failed to delete invoice")
		return
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionDelete, entityInvoice, deleted.ID, deleted, nil)
	api.Success(w, map[string]string{"id": deleted.ID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, invoicing.ErrInvoiceNotFound):
		api.Fail(w, http.StatusNotFound, "invoice_not_found", "invoice not found", requestID)
	case errors.Is(err, invoicing.ErrDuplicateNumber):
		api.Fail(w, http.StatusConflict, "invoice_number_taken", "invoice number is already in use", requestID)
	default:
		shared.InternalError(w, r, err, code, message)
	}
}
