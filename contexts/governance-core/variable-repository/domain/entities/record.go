package entities

import "time"

// Record is one named governance parameter. An update may schedule a future
// value; until its activation time passes, reads keep returning the current
// value.
type Record struct {
	Key            string
	Value          string
	FutureValue    string
	ActivationTime *time.Time
	UpdatedAt      time.Time
}

// ValueAt resolves the record against the clock.
func (r Record) ValueAt(now time.Time) string {
	if r.ActivationTime != nil && !now.Before(*r.ActivationTime) {
		return r.FutureValue
	}
	return r.Value
}

// Settle folds an activated future value into the current one.
func (r Record) Settle(now time.Time) Record {
	if r.ActivationTime != nil && !now.Before(*r.ActivationTime) {
		r.Value = r.FutureValue
		r.FutureValue = ""
		r.ActivationTime = nil
	}
	return r
}
