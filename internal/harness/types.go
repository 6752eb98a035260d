package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Step   int      `json:"step"`
	Action string   `json:"action"`
	Meme   string   `json:"meme,omitempty"`
	Query  string   `json:"query,omitempty"`
	Mode   string   `json:"mode,omitempty"`
	Page   int      `json:"page,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Memes  []string `json:"memes,omitempty"` // Result keys, search only
	Count  *int64   `json:"count,omitempty"`
	Error  string   `json:"error,omitempty"` // liberr code of a failed step
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains the executed steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an executed step.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}

// CountAction returns how many traced steps ran action.
func (r *Result) CountAction(action string) int {
	n := 0
	for _, event := range r.Trace {
		if event.Action == action {
			n++
		}
	}
	return n
}
