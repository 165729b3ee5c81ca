package model

// AuditEntry is one line of the append-only audit trail kept for
// destructive operations.
type AuditEntry struct {
	Action     string `json:"action"`
	OccurredAt string `json:"occurred_at"`
	Actor      Actor  `json:"actor"`
	Status     string `json:"status"`
	Resource   string `json:"resource,omitempty"`
	Detail     any    `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
}

// AuditQuery filters the audit trail. Empty fields mean "no filter".
type AuditQuery struct {
	Action  string
	ActorID string
	Status  string
	Path    string
	From    string
	To      string
	Page    int
	Limit   int
}
