package state_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/pkg/state"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := state.NewFileStore(dir, state.WithClock(func() time.Time { return fixed }))
	ref := notificationsRef()

	snapshot := settings.FlatMap{
		"email/enabled": settings.Bool(true),
		"email/retries": settings.Int(3),
	}
	saved, err := store.Save(context.Background(), ref, snapshot, state.Meta{Extra: map[string]string{"by": "alice"}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.SnapshotID == "" || saved.ETag == "" {
		t.Fatalf("expected snapshot id and etag, got %+v", saved)
	}
	if !saved.UpdatedAt.Equal(fixed) {
		t.Fatalf("expected clock time, got %s", saved.UpdatedAt)
	}

	path, err := store.Path(ref)
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if want := filepath.Join(dir, "user", "u42", "notifications.json"); path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}

	got, meta, ok, err := store.Load(context.Background(), ref)
	if err != nil || !ok {
		t.Fatalf("load ok=%t err=%v", ok, err)
	}
	if !got.Equal(snapshot) {
		t.Fatalf("round trip mismatch: %v", got)
	}
	if meta.SnapshotID != saved.SnapshotID || meta.ETag != saved.ETag || meta.Extra["by"] != "alice" {
		t.Fatalf("meta mismatch: saved %+v loaded %+v", saved, meta)
	}
}

func TestFileStoreETagConflict(t *testing.T) {
	store := state.NewFileStore(t.TempDir())
	ref := notificationsRef()
	ctx := context.Background()

	first, err := store.Save(ctx, ref, settings.FlatMap{"a": settings.Int(1)}, state.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := store.Save(ctx, ref, settings.FlatMap{"a": settings.Int(2)}, state.Meta{ETag: first.ETag})
	if err != nil {
		t.Fatalf("save with current etag: %v", err)
	}
	if second.ETag == first.ETag || second.SnapshotID == first.SnapshotID {
		t.Fatalf("expected fresh meta, got %+v", second)
	}
	_, err = store.Save(ctx, ref, settings.FlatMap{"a": settings.Int(3)}, state.Meta{ETag: first.ETag})
	if !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
	got, _, _, _ := store.Load(ctx, ref)
	if !got["a"].Equal(settings.Int(2)) {
		t.Fatalf("conflicting save must not write, got %v", got)
	}
}

func TestFileStoreYAMLAndEmptySnapshot(t *testing.T) {
	dir := t.TempDir()
	store := state.NewFileStore(dir, state.WithFileFormat(settings.YAMLFormat))
	ref := state.Ref{Domain: "billing", Scope: systemScope()}
	ctx := context.Background()

	if _, err := store.Save(ctx, ref, settings.FlatMap{"plan": settings.String("pro")}, state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "system", "billing.yaml"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "plan: pro") {
		t.Fatalf("expected yaml document, got %q", data)
	}

	if _, err := store.Save(ctx, ref, settings.FlatMap{}, state.Meta{}); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	got, _, ok, err := store.Load(ctx, ref)
	if err != nil || !ok || len(got) != 0 {
		t.Fatalf("expected empty stored snapshot, got %v ok=%t err=%v", got, ok, err)
	}
}

func TestFileStoreMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	store := state.NewFileStore(dir)
	ref := state.Ref{Domain: "billing", Scope: systemScope()}
	path, _ := store.Path(ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"a":`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, _, err := store.Load(context.Background(), ref)
	if !errors.Is(err, settings.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
}

func TestFileStoreWithResolver(t *testing.T) {
	store := state.NewFileStore(t.TempDir())
	resolver := state.Resolver{Store: store}
	ctx := context.Background()

	_, meta, err := resolver.Mutate(ctx, notificationsRef(), state.Meta{}, func(m settings.FlatMap) error {
		m["email/enabled"] = settings.Bool(true)
		return nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	merged, err := resolver.Resolve(ctx, "notifications", userScope("u42"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	_, trace, err := merged.ResolveWithTrace("email/enabled")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if trace.Layers[0].SnapshotID != meta.SnapshotID {
		t.Fatalf("expected snapshot %s in trace, got %s", meta.SnapshotID, trace.Layers[0].SnapshotID)
	}

	_, _, err = resolver.Mutate(ctx, notificationsRef(), state.Meta{ETag: "stale"}, func(settings.FlatMap) error { return nil })
	if !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected stale etag to fail, got %v", err)
	}
}
