package models

import "fmt"

type ActionStatus string

const (
	StatusSuccess ActionStatus = "SUCCESS"
	StatusWarning ActionStatus = "WARNING"
	StatusError   ActionStatus = "ERROR"
)

func (s ActionStatus) Valid() bool {
	return s == StatusSuccess || s == StatusWarning || s == StatusError
}

// ActionRecord is a fired bot action. ID and Timestamp are left empty by the
// evaluator and filled in by the driver before the record is logged.
type ActionRecord struct {
	ID        string       `json:"id,omitempty"`
	Timestamp string       `json:"timestamp,omitempty"`
	Bot       string       `json:"bot"`
	Action    string       `json:"action"`
	Status    ActionStatus `json:"status"`
}

func (r ActionRecord) Validate() error {
	if r.Bot == "" {
		return fmt.Errorf("%w: action record without bot", ErrInvalidInput)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: action status %q", ErrInvalidInput, r.Status)
	}
	return nil
}
