package core

import "encoding/hex"

// Hash is a 32-byte Blake2b digest, used throughout σ as a content
// identifier (block hashes, package hashes, code hashes, state roots).
type Hash [32]byte

// Hex returns the lower-case hex encoding.
func (h Hash) Hex() string { return hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the all-zero digest (used as "no value"
// sentinel for optional hash fields such as epoch_mark).
func (h Hash) IsZero() bool { return h == Hash{} }

// ServiceId identifies a service account in δ.
type ServiceId uint32

// CoreIndex identifies one of the Params.CoreCount execution cores.
type CoreIndex uint16

// ValidatorIndex identifies one of the Params.ValidatorsCount validators.
type ValidatorIndex uint16

// Slot is a timeslot index (τ), strictly increasing across blocks.
type Slot uint32

// Ed25519PubKey is a raw 32-byte Ed25519 public key.
type Ed25519PubKey [32]byte

// BandersnatchPubKey is a raw 32-byte bandersnatch public key (ring-VRF
// member identity). See core/ringvrf.go.
type BandersnatchPubKey [32]byte

// BLSPubKey is a compressed BLS12-381 public key (herumi serialization).
type BLSPubKey [48]byte
