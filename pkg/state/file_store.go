package state

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/internal/atomicfile"
)

// FileStore keeps one settings document per ref under Root. The document
// lives at Root/<identifier><ext> and its Meta in a ".meta.json" sidecar.
type FileStore struct {
	Root   string
	Format settings.Format
	// Now is the clock used for Meta.UpdatedAt.
	Now func() time.Time

	mu chan struct{}
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithFileFormat selects the document format. JSON is the default.
func WithFileFormat(format settings.Format) FileStoreOption {
	return func(s *FileStore) {
		s.Format = format
	}
}

// WithClock overrides the clock used for Meta.UpdatedAt.
func WithClock(now func() time.Time) FileStoreOption {
	return func(s *FileStore) {
		if now != nil {
			s.Now = now
		}
	}
}

// NewFileStore roots a store at dir.
func NewFileStore(dir string, opts ...FileStoreOption) *FileStore {
	store := &FileStore{
		Root:   dir,
		Format: settings.JSONFormat,
		Now:    time.Now,
		mu:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(store)
	}
	return store
}

type fileMeta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Path returns the document path used for ref.
func (s *FileStore) Path(ref Ref) (string, error) {
	id, err := ref.Identifier()
	if err != nil {
		return "", err
	}
	ext := ".json"
	if len(s.Format.Extensions) > 0 {
		ext = s.Format.Extensions[0]
	}
	return filepath.Join(s.Root, filepath.FromSlash(id)+ext), nil
}

func (s *FileStore) Load(ctx context.Context, ref Ref) (settings.FlatMap, Meta, bool, error) {
	if err := s.lock(ctx); err != nil {
		return nil, Meta{}, false, err
	}
	defer s.unlock()
	return s.load(ref)
}

// Save writes snapshot for ref. A non-empty meta.ETag must match the stored
// document; the returned Meta carries a fresh SnapshotID and ETag.
func (s *FileStore) Save(ctx context.Context, ref Ref, snapshot settings.FlatMap, meta Meta) (Meta, error) {
	if err := s.lock(ctx); err != nil {
		return Meta{}, err
	}
	defer s.unlock()

	path, err := s.Path(ref)
	if err != nil {
		return Meta{}, err
	}
	if meta.ETag != "" {
		_, current, ok, err := s.load(ref)
		if err != nil {
			return Meta{}, err
		}
		if ok && current.ETag != meta.ETag {
			return current, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, current.ETag)
		}
	}

	data, err := s.encode(snapshot)
	if err != nil {
		return Meta{}, err
	}
	saved := Meta{
		SnapshotID: uuid.NewString(),
		ETag:       etag(data),
		UpdatedAt:  s.now().UTC(),
		Extra:      cloneMeta(meta).Extra,
	}
	sidecar, err := json.Marshal(fileMeta{SnapshotID: saved.SnapshotID, UpdatedAt: saved.UpdatedAt, Extra: saved.Extra})
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode meta: %w", err)
	}
	if err := atomicfile.Write(path, data); err != nil {
		return Meta{}, fmt.Errorf("state: save %s: %w", path, err)
	}
	if err := atomicfile.Write(metaPath(path), sidecar); err != nil {
		return Meta{}, fmt.Errorf("state: save meta %s: %w", path, err)
	}
	return saved, nil
}

func (s *FileStore) load(ref Ref) (settings.FlatMap, Meta, bool, error) {
	path, err := s.Path(ref)
	if err != nil {
		return nil, Meta{}, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, Meta{}, false, nil
	}
	if err != nil {
		return nil, Meta{}, false, fmt.Errorf("state: read %s: %w", path, err)
	}

	snapshot := settings.FlatMap{}
	if len(bytes.TrimSpace(data)) > 0 {
		snapshot, err = settings.ReadDocument(bytes.NewReader(data), s.codec())
		if err != nil {
			return nil, Meta{}, false, fmt.Errorf("state: decode %s: %w", path, err)
		}
	}

	meta := Meta{ETag: etag(data)}
	raw, err := os.ReadFile(metaPath(path))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, Meta{}, false, fmt.Errorf("state: read meta %s: %w", path, err)
	default:
		var sidecar fileMeta
		if err := json.Unmarshal(raw, &sidecar); err != nil {
			return nil, Meta{}, false, fmt.Errorf("state: decode meta %s: %w", path, err)
		}
		meta.SnapshotID = sidecar.SnapshotID
		meta.UpdatedAt = sidecar.UpdatedAt
		meta.Extra = sidecar.Extra
	}
	return snapshot, meta, true, nil
}

// encode writes an empty snapshot as a blank document.
func (s *FileStore) encode(snapshot settings.FlatMap) ([]byte, error) {
	if len(snapshot) == 0 {
		return []byte{}, nil
	}
	var buf bytes.Buffer
	if err := settings.Write(&buf, s.codec(), snapshot); err != nil {
		return nil, fmt.Errorf("state: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *FileStore) codec() settings.Codec {
	if s.Format.Codec == nil {
		return settings.JSONCodec{}
	}
	return s.Format.Codec
}

func (s *FileStore) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *FileStore) lock(ctx context.Context) error {
	if s.mu == nil {
		return fmt.Errorf("state: file store must be created with NewFileStore")
	}
	select {
	case s.mu <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *FileStore) unlock() {
	<-s.mu
}

func metaPath(path string) string {
	return path + ".meta.json"
}

func etag(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
