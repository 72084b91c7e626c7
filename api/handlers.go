/*
handlers.go - HTTP API handlers for the leave ledger

PURPOSE:
  Exposes the leave ledger engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  GET    /api/categories                          The closed category set
  GET    /api/employees                           List employees
  GET    /api/employees/{name}/balance            Balance query (?category=)
  GET    /api/employees/{name}/history            Full record history
  POST   /api/employees/{name}/requests           Request leave
  POST   /api/employees/{name}/cancellations      Cancel leave
  POST   /api/employees/{name}/intents            Dispatch a structured intent

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors (category, quantity, date)
  - 404: Unknown employee
  - 409: Insufficient balance, overlap, no matching leave
  - 500: Internal errors
  A persistence failure after a committed mutation returns 200 with a
  warning field: the operation DID succeed, the mirror write did not.

CLOCK:
  The handler's clock is injectable so "today" resolution and request
  timestamps are deterministic under test.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - leave/engine.go: The operations behind these handlers
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/leave-ledger/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *leave.Engine

	// Now supplies the reference clock; defaults to time.Now.
	Now func() time.Time
}

// NewHandler creates a new handler over the given engine.
func NewHandler(engine *leave.Engine) *Handler {
	return &Handler{Engine: engine, Now: time.Now}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// =============================================================================
// CATALOG & EMPLOYEES
// =============================================================================

// ListCategories returns the closed category set.
// GET /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := h.Engine.Catalog().Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	writeJSON(w, http.StatusOK, names)
}

// ListEmployees returns all employees with their balances.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	reports := h.Engine.ListEmployees()
	dtos := make([]EmployeeDTO, len(reports))
	for i, e := range reports {
		balances := make(map[string]int, len(e.Balances))
		for cat, days := range e.Balances {
			balances[string(cat)] = days
		}
		dtos[i] = EmployeeDTO{
			Name:       e.Name,
			Email:      e.Email,
			Department: e.Department,
			Balances:   balances,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// BALANCE
// =============================================================================

// GetBalance answers a balance query. Repeating ?category= narrows the
// selection; no category parameter selects everything.
// GET /api/employees/{name}/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	sel := leave.SelectAllCategories()
	if params := r.URL.Query()["category"]; len(params) == 1 {
		sel = leave.SelectCategory(leave.Category(params[0]))
	} else if len(params) > 1 {
		cats := make([]leave.Category, len(params))
		for i, p := range params {
			cats[i] = leave.Category(p)
		}
		sel = leave.SelectCategories(cats...)
	}

	report, err := h.Engine.CheckBalance(name, sel)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(report))
}

// =============================================================================
// REQUEST LEAVE
// =============================================================================

// SubmitRequest requests leave for an employee.
// POST /api/employees/{name}/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req RequestLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	days, err := leave.WholeDays(req.Days)
	if err != nil {
		leaveRequestsTotal.WithLabelValues("rejected").Inc()
		writeEngineError(w, err)
		return
	}

	conf, err := h.Engine.RequestLeave(r.Context(), name, leave.Category(req.LeaveType), days, req.StartDate, h.now())
	if err != nil && conf == nil {
		leaveRequestsTotal.WithLabelValues("rejected").Inc()
		writeEngineError(w, err)
		return
	}

	leaveRequestsTotal.WithLabelValues("approved").Inc()
	dto := RequestConfirmationDTO{
		RecordID:   conf.RecordID,
		Employee:   conf.Employee,
		LeaveType:  string(conf.Category),
		Days:       conf.Days,
		StartDate:  conf.Start.String(),
		EndDate:    conf.End.String(),
		NewBalance: conf.NewBalance,
	}
	if err != nil {
		persistenceFailuresTotal.Inc()
		dto.Warning = err.Error()
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// CANCEL LEAVE
// =============================================================================

// CancelRequest cancels approved leave for an employee.
// POST /api/employees/{name}/cancellations
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req CancelLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var conf *leave.CancelConfirmation
	var err error
	if req.RecordID != "" {
		conf, err = h.Engine.CancelLeaveByID(r.Context(), name, req.RecordID)
	} else {
		conf, err = h.Engine.CancelLeave(r.Context(), name, leave.Category(req.LeaveType), req.StartDate, h.now())
	}
	if err != nil && conf == nil {
		leaveCancellationsTotal.WithLabelValues("rejected").Inc()
		writeEngineError(w, err)
		return
	}

	leaveCancellationsTotal.WithLabelValues("cancelled").Inc()
	dto := CancelConfirmationDTO{
		RecordID:     conf.RecordID,
		Employee:     conf.Employee,
		LeaveType:    string(conf.Category),
		RestoredDays: conf.RestoredDays,
		StartDate:    conf.Start.String(),
		NewBalance:   conf.NewBalance,
	}
	if err != nil {
		persistenceFailuresTotal.Inc()
		dto.Warning = err.Error()
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HISTORY
// =============================================================================

// GetHistory returns the full ordered record sequence, approved and
// cancelled, unfiltered.
// GET /api/employees/{name}/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	records, err := h.Engine.ViewHistory(name)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTOs(records))
}

// =============================================================================
// INTENT DISPATCH
// =============================================================================

// DispatchIntent accepts a structured intent descriptor, as produced by
// the external text-understanding service, and routes it to the matching
// operation.
// POST /api/employees/{name}/intents
func (h *Handler) DispatchIntent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	intent, err := leave.ParseIntent(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid intent", err)
		return
	}

	message, err := leave.Dispatch(r.Context(), h.Engine, name, intent, h.now())
	resp := IntentResponseDTO{Message: message}
	if err != nil {
		resp.Code = errorCode(err)
		if errors.Is(err, leave.ErrPersistenceFailure) {
			persistenceFailuresTotal.Inc()
			// Mutation committed; report success with the warning inline.
			writeJSON(w, http.StatusOK, resp)
			return
		}
		writeJSON(w, statusFor(err), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps a typed engine error to its HTTP shape.
func writeEngineError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), ErrorResponse{Error: err.Error(), Code: errorCode(err)})
}

func statusFor(err error) int {
	switch {
	case leave.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, leave.ErrInsufficientBalance),
		errors.Is(err, leave.ErrOverlappingLeave),
		errors.Is(err, leave.ErrNoMatchingLeave):
		return http.StatusConflict
	case leave.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, leave.ErrUnknownEmployee):
		return "unknown_employee"
	case errors.Is(err, leave.ErrUnknownCategory):
		return "unknown_category"
	case errors.Is(err, leave.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, leave.ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, leave.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, leave.ErrOverlappingLeave):
		return "overlapping_leave"
	case errors.Is(err, leave.ErrNoMatchingLeave):
		return "no_matching_leave"
	case errors.Is(err, leave.ErrPersistenceFailure):
		return "persistence_failure"
	default:
		return "internal"
	}
}
