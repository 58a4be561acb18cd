package core

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	bls "github.com/herumi/bls-eth-go-binary/bls"
)

// init sets up the BLS12-381 curve exactly once — herumi's bls package
// is a process-global C binding and must be initialised before any
// Sign/Verify/Aggregate call.
func init() {
	if err := bls.Init(bls.BLS12_381); err != nil {
		panic(fmt.Errorf("bls init: %w", err))
	}
	if err := bls.SetETHmode(bls.EthModeDraft07); err != nil {
		panic(fmt.Errorf("bls eth mode: %w", err))
	}
}

// VerifyEd25519 checks sig over msg against pub. Backs DefaultSealVerifier,
// DefaultGuarantorVerifier, DefaultAssuranceVerifier, DefaultCulpritVerifier,
// and DefaultFaultVerifier below (§4.1 step 1, §4.3 check 9, §4.4, §12.3).
func VerifyEd25519(pub Ed25519PubKey, msg, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig)
}

// SignEd25519 signs msg with priv, for test fixtures and harness code that
// constructs well-formed blocks.
func SignEd25519(priv ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(priv, msg)
}

// VerifyBLS checks a compressed BLS12-381 signature over msg against pub.
// Backs DefaultVoteVerifier: dispute verdict votes are BLS-attested since a
// verdict aggregates many validators' opinions on one report (§12.3 of
// SPEC_FULL.md), unlike culprits/faults which name a single offender and use
// ed25519 instead (see DefaultCulpritVerifier/DefaultFaultVerifier).
func VerifyBLS(pub BLSPubKey, msg, sig []byte) (bool, error) {
	var pk bls.PublicKey
	if err := pk.Deserialize(pub[:]); err != nil {
		return false, fmt.Errorf("bls pubkey: %w", err)
	}
	var s bls.Sign
	if err := s.Deserialize(sig); err != nil {
		return false, fmt.Errorf("bls sig: %w", err)
	}
	return s.VerifyByte(&pk, msg), nil
}

// AggregateBLS merges multiple compressed BLS signatures into one, used by
// Judgements.ApplyVerdict to fold a verdict's individually-verified vote
// signatures into a single compact attestation for audit logging.
func AggregateBLS(sigs [][]byte) ([]byte, error) {
	if len(sigs) == 0 {
		return nil, errors.New("crypto: no signatures to aggregate")
	}
	var agg bls.Sign
	for i, raw := range sigs {
		var s bls.Sign
		if err := s.Deserialize(raw); err != nil {
			return nil, fmt.Errorf("crypto: sig %d: %w", i, err)
		}
		if i == 0 {
			agg = s
		} else {
			agg.Add(&s)
		}
	}
	return agg.Serialize(), nil
}

// lookupValidatorKey resolves a ValidatorIndex against the active set,
// falling back to the previous epoch's set so a dispute or report attesting
// to a just-rotated validator still resolves a key.
func lookupValidatorKey(vs Validators, idx ValidatorIndex) (ValidatorKey, bool) {
	if int(idx) < len(vs.Active) {
		return vs.Active[idx], true
	}
	if int(idx) < len(vs.Prev) {
		return vs.Prev[idx], true
	}
	return ValidatorKey{}, false
}

// headerSealMessage is the byte buffer a header's seal signs: parent hash,
// slot, and author index (§4.1 step 1).
func headerSealMessage(h Header) []byte {
	msg := append([]byte(nil), h.ParentHash[:]...)
	msg = concatU32(msg, uint32(h.Slot))
	return concatU32(msg, uint32(h.AuthorIndex))
}

// DefaultSealVerifier checks a header's seal with the author's ed25519 key
// (§4.1 step 1). Orchestrator.VerifySeal defaults to this when unset.
func DefaultSealVerifier(h Header, author ValidatorKey) bool {
	return VerifyEd25519(author.Ed25519, headerSealMessage(h), h.Seal)
}

// DefaultGuarantorVerifier checks a guarantor's ed25519 signature over the
// guaranteed report's package hash (§4.3 check 9).
// Orchestrator.VerifyGuarantor defaults to this when unset.
func DefaultGuarantorVerifier(vs Validators) func(ValidatorIndex, WorkReport, []byte) bool {
	return func(idx ValidatorIndex, report WorkReport, sig []byte) bool {
		key, ok := lookupValidatorKey(vs, idx)
		if !ok {
			return false
		}
		return VerifyEd25519(key.Ed25519, report.PackageSpec.Hash[:], sig)
	}
}

// DefaultAssuranceVerifier checks an assurance's ed25519 signature over its
// bitfield (§4.4). Orchestrator.VerifyAssurance defaults to this when unset.
func DefaultAssuranceVerifier(vs Validators) func(ValidatorIndex, []byte, []byte) bool {
	return func(idx ValidatorIndex, bitfield []byte, sig []byte) bool {
		key, ok := lookupValidatorKey(vs, idx)
		if !ok {
			return false
		}
		return VerifyEd25519(key.Ed25519, bitfield, sig)
	}
}

// voteMessage is the byte buffer a dispute vote or fault signs: the
// disputed report hash followed by a single byte encoding the boolean
// judgement, so a signature over "valid" cannot be replayed as "invalid".
func voteMessage(reportHash Hash, valid bool) []byte {
	b := append([]byte(nil), reportHash[:]...)
	if valid {
		return append(b, 1)
	}
	return append(b, 0)
}

// DefaultVoteVerifier checks a dispute vote's BLS signature over
// (reportHash, valid) against the voting validator's BLS key (§12.3).
// Judgements.ApplyVerdict defaults to this when DisputeContext leaves
// VerifyVoteSig unset.
func DefaultVoteVerifier(vs Validators) func(ValidatorIndex, Hash, bool, []byte) bool {
	return func(idx ValidatorIndex, reportHash Hash, valid bool, sig []byte) bool {
		key, ok := lookupValidatorKey(vs, idx)
		if !ok {
			return false
		}
		ok2, err := VerifyBLS(key.BLS, voteMessage(reportHash, valid), sig)
		return err == nil && ok2
	}
}

// DefaultCulpritVerifier checks a culprit record's ed25519 signature over
// the disputed report hash against the named validator's ed25519 key
// (§12.3). Judgements.ApplyVerdict defaults to this when DisputeContext
// leaves VerifyCulpritSig unset.
func DefaultCulpritVerifier(vs Validators) func(ValidatorIndex, Hash, []byte) bool {
	return func(idx ValidatorIndex, reportHash Hash, sig []byte) bool {
		key, ok := lookupValidatorKey(vs, idx)
		if !ok {
			return false
		}
		return VerifyEd25519(key.Ed25519, reportHash[:], sig)
	}
}

// DefaultFaultVerifier checks a fault record's ed25519 signature over the
// disputed report hash and the vote it contradicts (§12.3).
// Judgements.ApplyVerdict defaults to this when DisputeContext leaves
// VerifyFaultSig unset.
func DefaultFaultVerifier(vs Validators) func(ValidatorIndex, Hash, bool, []byte) bool {
	return func(idx ValidatorIndex, reportHash Hash, vote bool, sig []byte) bool {
		key, ok := lookupValidatorKey(vs, idx)
		if !ok {
			return false
		}
		return VerifyEd25519(key.Ed25519, voteMessage(reportHash, vote), sig)
	}
}
