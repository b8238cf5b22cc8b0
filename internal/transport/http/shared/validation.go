package shared

import (
	"errors"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"profitlens/internal/platform/money"
	"profitlens/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Validator struct {
	issues []ValidationIssue
}

var (
	structValidator *validator.Validate
	validatorOnce   sync.Once
)

// tags reports fields by their JSON names.
func tags() *validator.Validate {
	validatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
		structValidator.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return structValidator
}

func NewValidator() *Validator {
	return &Validator{issues: make([]ValidationIssue, 0, 4)}
}

func (v *Validator) Add(field, reason string) {
	if v == nil {
		return
	}
	field = strings.TrimSpace(field)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{Field: field, Reason: reason})
}

// Struct runs the validate tags of payload; prefix namespaces the reported
// fields, e.g. "records[3]".
func (v *Validator) Struct(prefix string, payload any) {
	err := tags().Struct(payload)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.Add(prefix, "is invalid")
		return
	}
	for _, fe := range fieldErrs {
		v.Add(fieldPath(prefix, fe.Namespace()), reasonFor(fe))
	}
}

func fieldPath(prefix, namespace string) string {
	// Namespace starts with the struct type name.
	if idx := strings.Index(namespace, "."); idx >= 0 {
		namespace = namespace[idx+1:]
	}
	if prefix == "" {
		return namespace
	}
	return prefix + "." + namespace
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return "must contain at least " + fe.Param() + " item(s)"
		}
		return "must be at least " + fe.Param() + " characters"
	case "max":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return "must contain at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param() + " characters"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "alpha":
		return "must contain letters only"
	default:
		return "is invalid"
	}
}

// Date accepts YYYY-MM-DD or RFC3339. Empty values pass unless required.
func (v *Validator) Date(field, raw string, required bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			v.Add(field, "is required")
		}
		return
	}
	if _, err := time.Parse(time.DateOnly, raw); err == nil {
		return
	}
	if _, err := time.Parse(time.RFC3339, raw); err == nil {
		return
	}
	v.Add(field, "must be a valid date in YYYY-MM-DD format")
}

// Amount checks an operator-entered number. Absent values are allowed unless
// required; present ones must be numeric and not below min.
func (v *Validator) Amount(field string, in money.Input, required bool, min decimal.Decimal) {
	if !in.Present {
		if required {
			v.Add(field, "is required")
		}
		return
	}
	if !in.Valid {
		v.Add(field, "must be a number")
		return
	}
	if in.Value.LessThan(min) {
		if min.IsZero() {
			v.Add(field, "must be zero or greater")
			return
		}
		v.Add(field, "must be at least "+min.String())
	}
}

// Positive checks an amount that must be strictly greater than zero.
func (v *Validator) Positive(field string, in money.Input) {
	switch {
	case !in.Present:
		v.Add(field, "is required")
	case !in.Valid:
		v.Add(field, "must be a number")
	case !in.Value.IsPositive():
		v.Add(field, "must be greater than zero")
	}
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

func (v *Validator) Issues() []ValidationIssue {
	if v == nil || len(v.issues) == 0 {
		return nil
	}
	out := make([]ValidationIssue, len(v.issues))
	copy(out, v.issues)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	return out
}

func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(
		w,
		http.StatusBadRequest,
		"validation_error",
		"payload validation failed",
		map[string]any{"fields": issues},
		requestID,
	)
}
