package dispatcher

// Status is the tri-state result of a dispatch attempt.
type Status int

const (
	// Unhandled means the action is unknown here, not permitted, or has no handler.
	Unhandled Status = iota
	// Completed means the handler returned normally.
	Completed
	// Failed means the handler returned an error or panicked, or the IDs were invalid.
	Failed
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unhandled"
	}
}

// Outcome is what Dispatch produced.
type Outcome struct {
	Status  Status `json:"-"`
	Action  string `json:"action,omitempty"`
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
	Error   bool   `json:"error"`
}

// Handled reports whether this dispatcher took ownership of the request.
func (o Outcome) Handled() bool {
	return o.Status != Unhandled
}
