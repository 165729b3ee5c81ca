package event

type Type string

const (
	TypeScanCompleted   Type = "scan.completed"
	TypePlanCreated     Type = "plan.created"
	TypePlanStarted     Type = "plan.started"
	TypePlanProgress    Type = "plan.progress"
	TypePlanCompleted   Type = "plan.completed"
	TypePlanFailed      Type = "plan.failed"
	TypePlanCancelled   Type = "plan.cancelled"
	TypeItemDeleted     Type = "item.deleted"
	TypeItemFailed      Type = "item.failed"
	TypeBackupCreated   Type = "backup.created"
	TypeBackupRestored  Type = "backup.restored"
	TypeBackupsExpired  Type = "backup.expired"
	TypeCacheInvalidate Type = "cache.invalidated"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
	ActorID   string      `json:"actor_id,omitempty"` // Who triggered the event
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
