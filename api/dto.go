/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. Day counts
  are carried as decimals so fractional input is rejected with
  InvalidQuantity instead of being silently truncated by integer decoding.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/leave-ledger/leave"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Department string         `json:"department"`
	Balances   map[string]int `json:"leave_balance"`
}

// CategoryBalanceDTO is one line of a balance response.
type CategoryBalanceDTO struct {
	LeaveType string `json:"leave_type"`
	Days      int    `json:"days"`
}

// BalanceDTO answers a balance query.
type BalanceDTO struct {
	Employee string               `json:"employee"`
	Balances []CategoryBalanceDTO `json:"balances"`
}

// RequestLeaveRequest is the request body for a leave request.
type RequestLeaveRequest struct {
	LeaveType string          `json:"leave_type"`
	Days      decimal.Decimal `json:"days"`
	StartDate string          `json:"start_date"`
}

// RequestConfirmationDTO confirms an approved request. Warning is set when
// the request committed but persistence failed.
type RequestConfirmationDTO struct {
	RecordID   string `json:"record_id"`
	Employee   string `json:"employee"`
	LeaveType  string `json:"leave_type"`
	Days       int    `json:"days"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	NewBalance int    `json:"new_balance"`
	Warning    string `json:"warning,omitempty"`
}

// CancelLeaveRequest is the request body for a cancellation. RecordID,
// when set, targets the record unambiguously; otherwise the first approved
// record matching leave_type and start_date is cancelled.
type CancelLeaveRequest struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	RecordID  string `json:"record_id,omitempty"`
}

// CancelConfirmationDTO confirms a cancellation.
type CancelConfirmationDTO struct {
	RecordID     string `json:"record_id"`
	Employee     string `json:"employee"`
	LeaveType    string `json:"leave_type"`
	RestoredDays int    `json:"restored_days"`
	StartDate    string `json:"start_date"`
	NewBalance   int    `json:"new_balance"`
	Warning      string `json:"warning,omitempty"`
}

// RecordDTO represents one leave record in history responses.
type RecordDTO struct {
	ID          string `json:"id"`
	LeaveType   string `json:"leave_type"`
	Days        int    `json:"days"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status"`
	RequestedAt string `json:"requested_at"`
}

// IntentResponseDTO is the outcome of a dispatched structured intent.
type IntentResponseDTO struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRecordDTO(r leave.Record) RecordDTO {
	return RecordDTO{
		ID:          r.ID,
		LeaveType:   string(r.Category),
		Days:        r.Days,
		StartDate:   r.Start.String(),
		EndDate:     r.End().String(),
		Status:      string(r.Status),
		RequestedAt: r.RequestedAt.String(),
	}
}

func toRecordDTOs(records []leave.Record) []RecordDTO {
	dtos := make([]RecordDTO, len(records))
	for i, r := range records {
		dtos[i] = toRecordDTO(r)
	}
	return dtos
}

func toBalanceDTO(report *leave.BalanceReport) BalanceDTO {
	dto := BalanceDTO{Employee: report.Employee, Balances: []CategoryBalanceDTO{}}
	for _, b := range report.Balances {
		dto.Balances = append(dto.Balances, CategoryBalanceDTO{
			LeaveType: string(b.Category),
			Days:      b.Days,
		})
	}
	return dto
}
