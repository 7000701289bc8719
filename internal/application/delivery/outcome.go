package delivery

// OutcomeStatus classifies how one delivery side effect ended.
type OutcomeStatus string

const (
	StatusOK      OutcomeStatus = "ok"
	StatusSkipped OutcomeStatus = "skipped"
	StatusFailed  OutcomeStatus = "failed"
)

// Outcome is the explicit result of a single side effect. Failures recorded
// here were swallowed: they never roll back the capsule's delivered status.
type Outcome struct {
	Step   string
	Status OutcomeStatus
	Err    error
}

// Result aggregates the side-effect outcomes of one finalization.
type Result struct {
	CapsuleID string
	Outcomes  []Outcome
}

func (r *Result) add(step string, status OutcomeStatus, err error) {
	r.Outcomes = append(r.Outcomes, Outcome{Step: step, Status: status, Err: err})
}

// Failed returns the outcomes that ended in failure.
func (r *Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}
