package bankinghandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"profitlens/internal/domain/audit"
	"profitlens/internal/domain/auth"
	"profitlens/internal/domain/banking"
	"profitlens/internal/transport/http/api"
	"profitlens/internal/transport/http/middleware"
	"profitlens/internal/transport/http/shared"
)

const (
	entityAccount     = "bank_account"
	entityTransaction = "bank_transaction"
)

type Handler struct {
	Service *banking.Service
	Audit   audit.Recorder
	Perms   middleware.PermissionChecker
}

func NewHandler(service *banking.Service, recorder audit.Recorder, perms middleware.PermissionChecker) *Handler {
	return &Handler{Service: service, Audit: recorder, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/bank-accounts", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermBankingRead, h.Perms)).Get("/", h.handleListAccounts)
		r.With(middleware.RequirePermission(auth.PermBankingWrite, h.Perms)).Post("/", h.handleCreateAccount)
		r.With(middleware.RequirePermission(auth.PermBankingRead, h.Perms)).Get("/{accountID}", h.handleGetAccount)
		r.With(middleware.RequirePermission(auth.PermBankingWrite, h.Perms)).Delete("/{accountID}", h.handleDeleteAccount)
		r.With(middleware.RequirePermission(auth.PermBankingRead, h.Perms)).Get("/{accountID}/transactions", h.handleListTransactions)
		r.With(middleware.RequirePermission(auth.PermBankingWrite, h.Perms)).Post("/{accountID}/transactions", h.handleCreateTransaction)
		r.With(middleware.RequirePermission(auth.PermBankingWrite, h.Perms)).Delete("/{accountID}/transactions/{transactionID}", h.handleDeleteTransaction)
	})
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	accounts, err := h.Service.ListAccounts(r.Context(), user.CompanyID)
	if err != nil {
		shared.InternalError(w, r, err, "bank_account_list_failed", "failed to list bank accounts")
		return
	}
	api.Success(w, accounts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var draft banking.AccountDraft
	if !shared.DecodeJSON(w, r, &draft) {
		return
	}
	v := shared.NewValidator()
	v.Struct("", draft)
	v.Amount("openingBalance", draft.OpeningBalance, false, decimal.Zero)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	acc, err := h.Service.CreateAccount(r.Context(), user.CompanyID, draft)
	if err != nil {
		h.fail(w, r, err, "bank_account_create_failed", "failed to create bank account")
		return
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionCreate, entityAccount, acc.ID, nil, acc)
	api.Created(w, acc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	acc, err := h.Service.GetAccount(r.Context(), user.CompanyID, chi.URLParam(r, "accountID"))
	if err != nil {
		h.fail(w, r, err, "bank_account_get_failed", "failed to load bank account")
		return
	}
	api.Success(w, acc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	deleted, err := h.Service.DeleteAccount(r.Context(), user.CompanyID, chi.URLParam(r, "accountID"))
	if err != nil {
		h.fail(w, r, err, "bank_account_delete_failed", "failed to delete bank account")
		return
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionDelete, entityAccount, deleted.ID, deleted, nil)
	api.Success(w, map[string]string{"id": deleted.ID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	txns, err := h.Service.ListTransactions(r.Context(), user.CompanyID, chi.URLParam(r, "accountID"))
	if err != nil {
		h.fail(w, r, err, "bank_transaction_list_failed", "failed to list transactions")
		return
	}
	api.Success(w, txns, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var draft banking.TransactionDraft
	if !shared.DecodeJSON(w, r, &draft) {
		return
	}
	v := shared.NewValidator()
	v.Struct("", draft)
	v.Date("date", draft.Date, false)
	v.Positive("amount", draft.Amount)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	txn, err := h.Service.CreateTransaction(r.Context(), user.CompanyID, chi.URLParam(r, "accountID"), draft)
	if err != nil {
		h.fail(w, r, err, "bank_transaction_create_failed", "failed to create transaction")
		return
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionCreate, entityTransaction, txn.ID, nil, txn)
	api.Created(w, txn, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	deleted, err := h.Service.DeleteTransaction(r.Context(), user.CompanyID, chi.URLParam(r, "accountID"), chi.URLParam(r, "transactionID"))
	if err != nil {
		h.fail(w, r, err, "bank_transaction_delete_failed", "failed to delete transaction")
		return
	}
	shared.Audit(r.Context(), h.Audit, user, audit.ActionDelete, entityTransaction, deleted.ID, deleted, nil)
	api.Success(w, map[string]string{"id": deleted.ID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, banking.ErrAccountNotFound):
		api.Fail(w, http.StatusNotFound, "bank_account_not_found", "bank account not found", requestID)
	case errors.Is(err, banking.ErrTransactionNotFound):
		api.Fail(w, http.StatusNotFound, "bank_transaction_not_found", "transaction not found", requestID)
	case errors.Is(err, banking.ErrInvalidAmount):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "amount", Reason: "must be greater than zero"}})
	case errors.Is(err, banking.ErrInvalidDate):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "date", Reason: "must be a valid date in YYYY-MM-DD format"}})
	case errors.Is(err, banking.ErrInvalidType):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "type", Reason: "must be one of: credit, debit"}})
	default:
		shared.InternalError(w, r, err, code, message)
	}
}
