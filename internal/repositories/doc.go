// Package repositories implements SQLite persistence for the mixer's durable state.
//
// Key Implementations:
//   - [SoundRepository] : sounds acquired at runtime, upserted by derived id
//   - [PresetRepository] : named presets and their per-sound volumes
//   - [SessionRepository] : master volume and per-sound enabled/volume state
//
// Bundled sounds are never stored here; they are read from the bundled catalog on every start.
package repositories
