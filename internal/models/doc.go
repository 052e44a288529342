// Package models defines domain entities and persistence interfaces for the tanin ambient mixer.
//
// The package contains two categories of types:
//
// 1. Descriptors: plain structs shared between the catalog, the UI, and the engine
//   - [Sound] : one loopable track with its display metadata and intended volume
//   - [SoundState] : the enabled flag and volume captured for a session
//   - [Session] : master volume plus every [SoundState]
//
// 2. Persistent Entities: database-backed models with full lifecycle management
//   - [Preset] : a named mapping of sound id to volume
//
// Persistent entities implement the Model interface providing ID, timestamps, and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
