package core

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	bls "github.com/herumi/bls-eth-go-binary/bls"
)

func TestEd25519SignVerifyRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	var pk Ed25519PubKey
	copy(pk[:], pub)

	msg := []byte("jam header seal message")
	sig := SignEd25519(priv, msg)
	if !VerifyEd25519(pk, msg, sig) {
		t.Fatalf("expected valid ed25519 signature to verify")
	}
	if VerifyEd25519(pk, []byte("tampered"), sig) {
		t.Fatalf("expected signature over a different message to fail")
	}
}

func blsKeypair(t *testing.T) (BLSPubKey, *bls.SecretKey) {
	t.Helper()
	sk := &bls.SecretKey{}
	sk.SetByCSPRNG()
	pub := sk.GetPublicKey()
	var pk BLSPubKey
	copy(pk[:], pub.Serialize())
	return pk, sk
}

func TestBLSVerifyAndAggregateRoundTrip(t *testing.T) {
	pk1, sk1 := blsKeypair(t)
	pk2, sk2 := blsKeypair(t)

	msg := []byte("dispute vote message")
	sig1 := sk1.SignByte(msg).Serialize()
	sig2 := sk2.SignByte(msg).Serialize()

	ok, err := VerifyBLS(pk1, msg, sig1)
	if err != nil || !ok {
		t.Fatalf("expected valid bls signature to verify: ok=%v err=%v", ok, err)
	}
	if ok, _ := VerifyBLS(pk2, msg, sig1); ok {
		t.Fatalf("expected signature to fail verification against the wrong key")
	}

	agg, err := AggregateBLS([][]byte{sig1, sig2})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(agg) == 0 {
		t.Fatalf("expected non-empty aggregate signature")
	}
	if _, err := AggregateBLS(nil); err == nil {
		t.Fatalf("expected error aggregating zero signatures")
	}
}

func TestDefaultSealVerifier(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	var author ValidatorKey
	copy(author.Ed25519[:], pub)

	h := Header{ParentHash: hashOf(1), Slot: 5, AuthorIndex: 2}
	h.Seal = SignEd25519(priv, headerSealMessage(h))

	if !DefaultSealVerifier(h, author) {
		t.Fatalf("expected a correctly-signed header to verify")
	}

	bad := h
	bad.Slot = 6
	if DefaultSealVerifier(bad, author) {
		t.Fatalf("expected a header with a changed slot to fail verification")
	}
}

func TestDefaultGuarantorAndAssuranceVerifiers(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	vs := Validators{Active: ValidatorSet{{}, {}}}
	copy(vs.Active[1].Ed25519[:], pub)

	report := WorkReport{PackageSpec: PackageSpec{Hash: hashOf(42)}}
	sig := SignEd25519(priv, report.PackageSpec.Hash[:])

	guarantorVerify := DefaultGuarantorVerifier(vs)
	if !guarantorVerify(1, report, sig) {
		t.Fatalf("expected guarantor signature to verify")
	}
	if guarantorVerify(0, report, sig) {
		t.Fatalf("expected signature to fail against a different validator's key")
	}

	bitfield := []byte{0x01, 0x00}
	assuranceSig := SignEd25519(priv, bitfield)
	assuranceVerify := DefaultAssuranceVerifier(vs)
	if !assuranceVerify(1, bitfield, assuranceSig) {
		t.Fatalf("expected assurance signature to verify")
	}
	if assuranceVerify(1, []byte{0x00, 0x01}, assuranceSig) {
		t.Fatalf("expected signature over a different bitfield to fail")
	}
}
