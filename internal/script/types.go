package script

import "github.com/roach88/tagproxy/internal/value"

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq    int64
	Op     string
	On     string
	Name   string
	Result value.Value // nil when the step produced nothing
	Absent bool
	Error  string
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step matched its expectation.
	Pass bool

	Trace  []TraceEvent
	Errors []string
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failed expectation.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// canonical renders the event for golden comparison. Empty fields are
// omitted.
func (e TraceEvent) canonical() value.Object {
	obj := value.Object{
		"seq": value.Int(e.Seq),
		"op":  value.String(e.Op),
		"on":  value.String(e.On),
	}
	if e.Name != "" {
		obj["name"] = value.String(e.Name)
	}
	if e.Result != nil {
		obj["result"] = e.Result
	}
	if e.Absent {
		obj["absent"] = value.Bool(true)
	}
	if e.Error != "" {
		obj["error"] = value.String(e.Error)
	}
	return obj
}
