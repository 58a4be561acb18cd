package core

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	bls "github.com/herumi/bls-eth-go-binary/bls"
)

func disputeValidators(t *testing.T, n int) (Validators, []ed25519.PrivateKey, []*bls.SecretKey) {
	t.Helper()
	vs := Validators{Active: make(ValidatorSet, n)}
	privs := make([]ed25519.PrivateKey, n)
	secs := make([]*bls.SecretKey, n)
	for i := 0; i < n; i++ {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			t.Fatalf("generate ed25519 key %d: %v", i, err)
		}
		copy(vs.Active[i].Ed25519[:], pub)
		privs[i] = priv

		sk := &bls.SecretKey{}
		sk.SetByCSPRNG()
		copy(vs.Active[i].BLS[:], sk.GetPublicKey().Serialize())
		secs[i] = sk
	}
	return vs, privs, secs
}

func TestApplyVerdictAcceptsValidGoodVerdict(t *testing.T) {
	vs, _, secs := disputeValidators(t, 2)
	reportHash := hashOf(7)

	v := DisputeVerdict{
		ReportHash: reportHash,
		Summary:    VerdictGood,
		Votes: []DisputeVote{
			{Validator: 0, Valid: true, Signature: secs[0].SignByte(voteMessage(reportHash, true)).Serialize()},
			{Validator: 1, Valid: true, Signature: secs[1].SignByte(voteMessage(reportHash, true)).Serialize()},
		},
	}

	j := NewJudgements()
	agg, err := j.ApplyVerdict(DisputeContext{Validators: vs}, v, nil, nil)
	if err != nil {
		t.Fatalf("apply verdict: %v", err)
	}
	if len(agg) == 0 {
		t.Fatalf("expected a non-empty aggregate signature")
	}
	if _, ok := j.Good[reportHash]; !ok {
		t.Fatalf("expected report recorded as good")
	}
}

func TestApplyVerdictRejectsForgedVoteSignature(t *testing.T) {
	vs, _, secs := disputeValidators(t, 1)
	reportHash := hashOf(8)

	v := DisputeVerdict{
		ReportHash: reportHash,
		Summary:    VerdictGood,
		Votes: []DisputeVote{
			{Validator: 0, Valid: true, Signature: secs[0].SignByte(voteMessage(reportHash, false)).Serialize()},
		},
	}

	j := NewJudgements()
	if _, err := j.ApplyVerdict(DisputeContext{Validators: vs}, v, nil, nil); !errors.Is(err, ErrDisputeBadSignature) {
		t.Fatalf("expected ErrDisputeBadSignature, got %v", err)
	}
	if _, ok := j.Good[reportHash]; ok {
		t.Fatalf("expected no mutation on a rejected verdict")
	}
}

func TestApplyVerdictBadRecordsOffendersOnValidSignatures(t *testing.T) {
	vs, privs, secs := disputeValidators(t, 3)
	reportHash := hashOf(9)

	v := DisputeVerdict{
		ReportHash: reportHash,
		Summary:    VerdictBad,
		Votes: []DisputeVote{
			{Validator: 0, Valid: false, Signature: secs[0].SignByte(voteMessage(reportHash, false)).Serialize()},
		},
	}
	culprit := Culprit{Validator: 1, ReportHash: reportHash, Signature: SignEd25519(privs[1], reportHash[:])}
	fault := Fault{Validator: 2, ReportHash: reportHash, Vote: true, Signature: SignEd25519(privs[2], voteMessage(reportHash, true))}

	j := NewJudgements()
	if _, err := j.ApplyVerdict(DisputeContext{Validators: vs}, v, []Culprit{culprit}, []Fault{fault}); err != nil {
		t.Fatalf("apply verdict: %v", err)
	}
	if !j.IsOffender(1) || !j.IsOffender(2) {
		t.Fatalf("expected both culprit and fault validators recorded as offenders")
	}
}

func TestApplyVerdictRejectsForgedCulpritSignature(t *testing.T) {
	vs, _, secs := disputeValidators(t, 2)
	reportHash := hashOf(10)

	v := DisputeVerdict{
		ReportHash: reportHash,
		Summary:    VerdictBad,
		Votes: []DisputeVote{
			{Validator: 0, Valid: false, Signature: secs[0].SignByte(voteMessage(reportHash, false)).Serialize()},
		},
	}
	// culprit signature signed by the wrong validator's key.
	_, wrongPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	culprit := Culprit{Validator: 1, ReportHash: reportHash, Signature: SignEd25519(wrongPriv, reportHash[:])}

	j := NewJudgements()
	if _, err := j.ApplyVerdict(DisputeContext{Validators: vs}, v, []Culprit{culprit}, nil); !errors.Is(err, ErrDisputeBadSignature) {
		t.Fatalf("expected ErrDisputeBadSignature, got %v", err)
	}
	if j.IsOffender(1) {
		t.Fatalf("expected no offender recorded when the culprit signature is forged")
	}
}

func TestApplyVerdictRejectsDuplicateJudgement(t *testing.T) {
	vs, _, secs := disputeValidators(t, 1)
	reportHash := hashOf(11)
	v := DisputeVerdict{
		ReportHash: reportHash,
		Summary:    VerdictGood,
		Votes: []DisputeVote{
			{Validator: 0, Valid: true, Signature: secs[0].SignByte(voteMessage(reportHash, true)).Serialize()},
		},
	}

	j := NewJudgements()
	if _, err := j.ApplyVerdict(DisputeContext{Validators: vs}, v, nil, nil); err != nil {
		t.Fatalf("apply verdict: %v", err)
	}
	if _, err := j.ApplyVerdict(DisputeContext{Validators: vs}, v, nil, nil); !errors.Is(err, ErrDisputeUnknownVerdict) {
		t.Fatalf("expected re-judging an already-judged report to fail, got %v", err)
	}
}
