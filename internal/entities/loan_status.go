package entities

import (
	"strings"
)

// LoanStatus is the availability of a physical copy.
type LoanStatus string

const (
	LoanStatusMaintenance LoanStatus = "maintenance"
	LoanStatusOnLoan      LoanStatus = "on-loan"
	LoanStatusAvailable   LoanStatus = "available"
	LoanStatusReserved    LoanStatus = "reserved"
)

// DefaultLoanStatus is assigned to copies created without a status.
const DefaultLoanStatus = LoanStatusMaintenance

var loanStatuses = []struct {
	status LoanStatus
	code   string
	label  string
}{
	{LoanStatusMaintenance, "m", "Maintenance"},
	{LoanStatusOnLoan, "o", "On loan"},
	{LoanStatusAvailable, "a", "Available"},
	{LoanStatusReserved, "r", "Reserved"},
}

// LoanStatuses returns the statuses in display order.
func LoanStatuses() []LoanStatus {
	out := make([]LoanStatus, 0, len(loanStatuses))
	for _, s := range loanStatuses {
		out = append(out, s.status)
	}
	return out
}

// ParseLoanStatus accepts a status value or its single-letter code.
// Blank input yields DefaultLoanStatus.
func ParseLoanStatus(raw string) (LoanStatus, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return DefaultLoanStatus, nil
	}
	for _, s := range loanStatuses {
		if value == string(s.status) || value == s.code {
			return s.status, nil
		}
	}
	return "", &ConstraintError{
		Kind:   ErrInvalidEnumValue,
		Entity: "bookinstance",
		Field:  "status",
		Value:  raw,
	}
}

// Valid reports whether s is one of the four statuses.
func (s LoanStatus) Valid() bool {
	for _, known := range loanStatuses {
		if s == known.status {
			return true
		}
	}
	return false
}

// Code returns the single-letter code, or "" for unknown statuses.
func (s LoanStatus) Code() string {
	for _, known := range loanStatuses {
		if s == known.status {
			return known.code
		}
	}
	return ""
}

// Label returns the human-readable name.
func (s LoanStatus) Label() string {
	for _, known := range loanStatuses {
		if s == known.status {
			return known.label
		}
	}
	return string(s)
}

