// Package artifact serializes finished canonical type sections into a
// content-addressed on-disk cache, so a recompilation can restore a module's
// type store without re-interning it.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"wavec/internal/types"
)

// SchemaVersion is bumped whenever the payload layout changes; cached
// payloads with a different schema are rejected on restore.
const SchemaVersion uint16 = 1

// ErrSchema reports a payload written with an incompatible schema version.
var ErrSchema = fmt.Errorf("incompatible artifact schema")

// Digest is a sha256 content address for cached type sections.
type Digest [sha256.Size]byte

// DigestOf hashes arbitrary identifying content (e.g. the module's raw type
// section bytes) into a cache key.
func DigestOf(data []byte) Digest {
	return sha256.Sum256(data)
}

// Hex returns the lowercase hex form of the digest.
func (d Digest) Hex() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether the digest is the all-zero value.
func (d Digest) IsZero() bool {
	var z Digest
	return d == z
}

// Payload is the serializable flattened form of a finished type store.
type Payload struct {
	Schema      uint16
	Types       []types.SubType
	RecGroups   []types.RecGroupRange
	Trampolines []types.TrampolinePair
}

// Snapshot flattens a finished store into a payload.
func Snapshot(mt *types.ModuleTypes) *Payload {
	return &Payload{
		Schema:      SchemaVersion,
		Types:       mt.SubTypes(),
		RecGroups:   mt.RecGroups(),
		Trampolines: mt.TrampolinePairs(),
	}
}

// Store validates the payload and rebuilds the type store it describes.
func (p *Payload) Store() (*types.ModuleTypes, error) {
	if p.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: payload schema %d, want %d", ErrSchema, p.Schema, SchemaVersion)
	}
	mt, err := types.NewModuleTypesFromParts(p.Types, p.RecGroups, p.Trampolines)
	if err != nil {
		return nil, fmt.Errorf("corrupt artifact payload: %w", err)
	}
	return mt, nil
}
