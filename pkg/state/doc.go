// Package state defines persistence-facing contracts for loading and saving
// per-scope settings snapshots, plus a resolver that orchestrates scope
// loading and delegates layering and provenance to the settings package.
//
//   - Store only loads/saves a single snapshot for a single Ref.
//   - Resolver loads snapshots for several scopes and merges them through
//     settings.NewStack(...).Merge(...).
//   - MemoryStore and FileStore are the bundled Store implementations.
//
// Data flow:
//
//	Store -> Resolver -> settings.NewStack(...).Merge(...) -> *settings.Settings
//
// Provenance:
//
//	Meta.SnapshotID is mapped onto settings.Layer.SnapshotID, which is then
//	observable through Settings.ResolveWithTrace and SchemaDocument.Scopes.
//
// Deterministic keys:
//
//	Ref.Identifier() provides the canonical storage key based on the scope
//	model system/tenant/org/team/user, for example "user/u42/notifications".
package state
