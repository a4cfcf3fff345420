package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm change.
const (
	DomainEvent = "wirelessmesh/event/v1"
	DomainState = "wirelessmesh/state/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed id of an event.
// The id covers entity, seq, type and payload; CommandID is excluded so a
// replayed log yields identical ids regardless of who issued the command.
func EventID(entityID string, seq int64, eventType string, payload IRObject) (string, error) {
	obj := IRObject{
		"entity_id": IRString(entityID),
		"seq":       IRInt(seq),
		"type":      IRString(eventType),
		"payload":   payload,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// StateHash computes a digest of a materialized state encoded as an IRObject.
// Two states with equal hashes are byte-for-byte identical in canonical form.
func StateHash(state IRObject) (string, error) {
	canonical, err := MarshalCanonical(state)
	if err != nil {
		return "", fmt.Errorf("StateHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// MustEventID is like EventID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEventID(entityID string, seq int64, eventType string, payload IRObject) string {
	id, err := EventID(entityID, seq, eventType, payload)
	if err != nil {
		panic(err)
	}
	return id
}
