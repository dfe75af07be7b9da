// Package api is the inbound surface of the glif core. It resolves glifs by
// id or by name within a font, enforces the editing lock on mutations, and
// translates store models into transport-friendly DTOs.
//
// # Key Types
//
// GlifService: create, update, lock, unlock, delete, describe, and layer
// operations over a GlifStore.
//
// Glif/Layer/Tombstone: DTOs with camelCase JSON tags. Timestamps use RFC3339
// with milliseconds.
//
// Failure: the machine kind (services.Kind) and message of a rejected call.
//
// # Locking
//
// Update, delete, and every layer mutation require the caller to hold the
// parent glif's lock unless EditOptions.IgnoreLock is set. Creation never
// requires a lock.
package api
