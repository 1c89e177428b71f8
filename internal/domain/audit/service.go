package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chartnote/chartnote/internal/platform/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one event, attributing it to the caller found in the
// request context. It satisfies the chart service's Auditor dependency.
func (s *Service) Record(ctx context.Context, action, resourceType string, resourceID uuid.UUID) error {
	userID, _ := uuid.Parse(auth.UserIDFromContext(ctx))
	return s.repo.Create(ctx, &Event{
		OrganizationID: auth.OrganizationIDFromContext(ctx),
		UserID:         userID,
		Action:         action,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		RecordedAt:     time.Now().UTC(),
	})
}

func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) SearchEvents(ctx context.Context, params map[string]string, limit, offset int) ([]*Event, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
