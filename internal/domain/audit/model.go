package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEventNotFound is returned when an audit event id does not exist.
var ErrEventNotFound = errors.New("audit event not found")

// Event is one recorded action against a charting resource: who did what to
// which resource, and when. Events are append-only.
type Event struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Action         string    `db:"action" json:"action"`
	ResourceType   string    `db:"resource_type" json:"resource_type"`
	ResourceID     uuid.UUID `db:"resource_id" json:"resource_id"`
	RecordedAt     time.Time `db:"recorded_at" json:"recorded_at"`
}
