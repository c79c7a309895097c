// Package usersink forwards settings activity to a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-settings/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook is an activity.ActivityHook that records events as go-users activity.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Notify converts event into an ActivityRecord. Identifiers that are not
// UUIDs are recorded as uuid.Nil; incomplete events are ignored.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = activity.NormalizeEvent(event)
	if event.Verb == "" || event.ObjectType == "" || event.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, usertypes.ActivityRecord{
		ActorID:    toUUID(event.ActorID),
		UserID:     toUUID(event.UserID),
		TenantID:   toUUID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       recordData(event),
		OccurredAt: event.OccurredAt,
	})
}

func recordData(event activity.Event) map[string]any {
	if len(event.Metadata) == 0 {
		return nil
	}
	data := make(map[string]any, len(event.Metadata))
	for key, value := range event.Metadata {
		data[key] = value
	}
	return data
}

func toUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
