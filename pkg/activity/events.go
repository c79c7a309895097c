package activity

import (
	"strings"
	"time"
)

const (
	VerbSettingUpdated = "settings.updated"
	VerbSettingDeleted = "settings.deleted"
	VerbDocumentSynced = "settings.synced"
	VerbLayerApplied   = "settings.layer.applied"

	ObjectSetting  = "setting"
	ObjectDocument = "settings.document"
	ObjectLayer    = "settings.layer"
)

// ScopeContext describes the layer a change applies to.
type ScopeContext struct {
	Name       string
	Label      string
	Priority   int
	Metadata   map[string]any
	SnapshotID string
}

// SettingEventInput carries the fields shared by settings events.
type SettingEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Document   string
	Key        string
	OldValue   any
	NewValue   any
	Scope      ScopeContext
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildSettingUpdatedEvent describes a key being written.
func BuildSettingUpdatedEvent(input SettingEventInput) Event {
	return buildEvent(VerbSettingUpdated, ObjectSetting, input.Key, input)
}

// BuildSettingDeletedEvent describes a key (and its subtree) being removed.
func BuildSettingDeletedEvent(input SettingEventInput) Event {
	return buildEvent(VerbSettingDeleted, ObjectSetting, input.Key, input)
}

// BuildDocumentSyncedEvent describes settings being persisted to a document.
func BuildDocumentSyncedEvent(input SettingEventInput) Event {
	return buildEvent(VerbDocumentSynced, ObjectDocument, input.Document, input)
}

// BuildLayerAppliedEvent describes a scoped layer joining a merge.
func BuildLayerAppliedEvent(input SettingEventInput) Event {
	objectID := input.Scope.SnapshotID
	if objectID == "" {
		objectID = input.Scope.Name
	}
	return buildEvent(VerbLayerApplied, ObjectLayer, objectID, input)
}

func buildEvent(verb, objectType, objectID string, input SettingEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.Key != "" {
		set("key", input.Key)
	}
	if input.Document != "" {
		set("document", input.Document)
	}
	if input.Scope.Name != "" {
		set("scope_name", input.Scope.Name)
		set("scope_priority", input.Scope.Priority)
		if input.Scope.Label != "" {
			set("scope_label", input.Scope.Label)
		}
		if len(input.Scope.Metadata) > 0 {
			set("scope_metadata", cloneMap(input.Scope.Metadata))
		}
	}
	if input.Scope.SnapshotID != "" {
		set("snapshot_id", input.Scope.SnapshotID)
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}

	objectID = strings.TrimSpace(objectID)
	if objectID == "" {
		objectID = objectType
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
