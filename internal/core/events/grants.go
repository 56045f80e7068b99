package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	TypeRolePermissionsReplaced = "role.permissions.replaced"
	TypeRoleMenuItemsReplaced   = "role.menu_items.replaced"
)

// GrantTypes lists every grant change event.
var GrantTypes = []string{TypeRolePermissionsReplaced, TypeRoleMenuItemsReplaced}

// NewGrantEvent records that roleID's grants of one kind were replaced by ids.
func NewGrantEvent(eventType string, roleID, actorID int64, ids []int64) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"role_id":  roleID,
			"actor_id": actorID,
			"ids":      ids,
		},
	}
}

// AuditHandler writes grant changes to the audit log.
func AuditHandler(logger *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		data, _ := event.Payload().(map[string]interface{})
		logger.InfoContext(ctx, "audit: role grants replaced",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"occurred_at", event.OccurredAt(),
			"role_id", data["role_id"],
			"actor_id", data["actor_id"],
			"ids", data["ids"])
		return nil
	}
}

func RegisterAudit(bus *EventBus, logger *slog.Logger) {
	handler := AuditHandler(logger.With("component", "audit"))
	for _, t := range GrantTypes {
		bus.Subscribe(t, handler)
	}
}
