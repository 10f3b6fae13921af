package payroll

import "time"

type EmployeeStatus string

const (
	EmployeeActive     EmployeeStatus = "active"
	EmployeeOnLeave    EmployeeStatus = "on_leave"
	EmployeeTerminated EmployeeStatus = "terminated"
)

// Employee is the employee record exchanged with the payroll API.
// Amounts are in minor currency units.
type Employee struct {
	ID         string         `json:"id"`
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Email      string         `json:"email"`
	Department string         `json:"department,omitempty"`
	Salary     int64          `json:"salary"`
	Currency   string         `json:"currency"`
	Status     EmployeeStatus `json:"status"`
	StartDate  time.Time      `json:"start_date"`
}

type RunStatus string

const (
	RunDraft     RunStatus = "draft"
	RunApproved  RunStatus = "approved"
	RunProcessed RunStatus = "processed"
)

type PayrollRun struct {
	ID            string     `json:"id"`
	Period        string     `json:"period"` // e.g. "2026-09"
	Status        RunStatus  `json:"status"`
	EmployeeCount int        `json:"employee_count"`
	TotalGross    int64      `json:"total_gross"`
	TotalNet      int64      `json:"total_net"`
	Currency      string     `json:"currency"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
