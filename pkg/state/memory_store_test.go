package state_test

import (
	"context"
	"testing"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/pkg/state"
)

func TestMemoryStoreCopiesSnapshots(t *testing.T) {
	store := state.NewMemoryStore()
	ref := notificationsRef()
	snapshot := settings.FlatMap{"email/enabled": settings.Bool(true)}
	meta := state.Meta{SnapshotID: "s1", Extra: map[string]string{"by": "alice"}}

	if _, err := store.Save(context.Background(), ref, snapshot, meta); err != nil {
		t.Fatalf("save: %v", err)
	}
	snapshot["email/enabled"] = settings.Bool(false)
	meta.Extra["by"] = "mallory"

	got, gotMeta, ok, err := store.Load(context.Background(), ref)
	if err != nil || !ok {
		t.Fatalf("load ok=%t err=%v", ok, err)
	}
	if !got["email/enabled"].Equal(settings.Bool(true)) {
		t.Fatalf("store must not observe caller writes, got %v", got)
	}
	if gotMeta.Extra["by"] != "alice" {
		t.Fatalf("meta extra must be copied, got %v", gotMeta.Extra)
	}
	got["email/enabled"] = settings.Bool(false)
	again, _, _, _ := store.Load(context.Background(), ref)
	if !again["email/enabled"].Equal(settings.Bool(true)) {
		t.Fatalf("loaded snapshot must be a copy")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one record, got %d", store.Len())
	}
}

func TestMemoryStoreMissingRef(t *testing.T) {
	store := state.NewMemoryStore()
	_, _, ok, err := store.Load(context.Background(), notificationsRef())
	if err != nil || ok {
		t.Fatalf("expected miss without error, got ok=%t err=%v", ok, err)
	}
	if _, err := store.Save(context.Background(), state.Ref{Domain: "d", Scope: settings.NewScope("user", 1)}, nil, state.Meta{}); err == nil {
		t.Fatalf("expected identifier error")
	}
}
