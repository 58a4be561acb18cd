package core

// DisputeVerdict records the juried outcome for one disputed work report
// (spec §12 item 3 "Dispute vote/culprit/fault wire shapes").
type DisputeVerdict struct {
	ReportHash Hash
	Votes      []DisputeVote
	Summary    VerdictSummary
}

// DisputeVote is one validator's judgment within a verdict.
type DisputeVote struct {
	Validator ValidatorIndex
	Valid     bool
	Signature []byte
}

// VerdictSummary is the jury's aggregate classification for a report.
type VerdictSummary int

const (
	VerdictGood VerdictSummary = iota
	VerdictBad
	VerdictWonky
)

// Culprit names a validator who guaranteed a report the jury found bad.
type Culprit struct {
	Validator ValidatorIndex
	ReportHash Hash
	Signature  []byte
}

// Fault names a validator whose availability assurance contradicted the
// jury's verdict.
type Fault struct {
	Validator  ValidatorIndex
	ReportHash Hash
	Vote       bool
	Signature  []byte
}

// Judgements is ψ: the accumulated dispute record across the chain's
// lifetime (spec §3.1 "ψ | dispute judgements: good/bad/wonky/offender
// sets").
type Judgements struct {
	Good     map[Hash]struct{}
	Bad      map[Hash]struct{}
	Wonky    map[Hash]struct{}
	Offenders map[ValidatorIndex]struct{}
}

func NewJudgements() Judgements {
	return Judgements{
		Good:      make(map[Hash]struct{}),
		Bad:       make(map[Hash]struct{}),
		Wonky:     make(map[Hash]struct{}),
		Offenders: make(map[ValidatorIndex]struct{}),
	}
}

func (j Judgements) Clone() Judgements {
	out := NewJudgements()
	for h := range j.Good {
		out.Good[h] = struct{}{}
	}
	for h := range j.Bad {
		out.Bad[h] = struct{}{}
	}
	for h := range j.Wonky {
		out.Wonky[h] = struct{}{}
	}
	for v := range j.Offenders {
		out.Offenders[v] = struct{}{}
	}
	return out
}

// DisputeContext carries the validator key material and signature-verifier
// hooks a disputes-extrinsic pass needs (spec §4.1 step 4). A nil verifier
// field falls back to the matching Default*Verifier built from Validators,
// following the nil-means-use-the-reference-implementation pattern used for
// RingVerifier/RingCommitter elsewhere in the orchestrator.
type DisputeContext struct {
	Validators       Validators
	VerifyVoteSig    func(validator ValidatorIndex, reportHash Hash, valid bool, sig []byte) bool
	VerifyCulpritSig func(validator ValidatorIndex, reportHash Hash, sig []byte) bool
	VerifyFaultSig   func(validator ValidatorIndex, reportHash Hash, vote bool, sig []byte) bool
}

func (ctx DisputeContext) voteVerifier() func(ValidatorIndex, Hash, bool, []byte) bool {
	if ctx.VerifyVoteSig != nil {
		return ctx.VerifyVoteSig
	}
	return DefaultVoteVerifier(ctx.Validators)
}

func (ctx DisputeContext) culpritVerifier() func(ValidatorIndex, Hash, []byte) bool {
	if ctx.VerifyCulpritSig != nil {
		return ctx.VerifyCulpritSig
	}
	return DefaultCulpritVerifier(ctx.Validators)
}

func (ctx DisputeContext) faultVerifier() func(ValidatorIndex, Hash, bool, []byte) bool {
	if ctx.VerifyFaultSig != nil {
		return ctx.VerifyFaultSig
	}
	return DefaultFaultVerifier(ctx.Validators)
}

// ApplyVerdict integrates one verdict plus its culprits/faults into ψ
// (spec §4.1 step 4 "Disputes"). A report already judged is rejected as
// ErrDisputeUnknownVerdict reuse to signal a conflicting re-judgement.
// culprits and faults must already be filtered to v.ReportHash by the
// caller; any mismatch is treated as ErrDisputeOffender. Every vote,
// culprit, and fault signature is checked before any offender is recorded —
// a single bad signature fails the whole verdict with ErrDisputeBadSignature
// rather than partially applying it. On success, returns the BLS aggregate
// of the verdict's vote signatures (nil if none carried one) for compact
// audit logging.
func (j Judgements) ApplyVerdict(ctx DisputeContext, v DisputeVerdict, culprits []Culprit, faults []Fault) ([]byte, error) {
	if _, ok := j.Good[v.ReportHash]; ok {
		return nil, ErrDisputeUnknownVerdict
	}
	if _, ok := j.Bad[v.ReportHash]; ok {
		return nil, ErrDisputeUnknownVerdict
	}
	if _, ok := j.Wonky[v.ReportHash]; ok {
		return nil, ErrDisputeUnknownVerdict
	}

	voteVerify := ctx.voteVerifier()
	var voteSigs [][]byte
	for _, vote := range v.Votes {
		if !voteVerify(vote.Validator, v.ReportHash, vote.Valid, vote.Signature) {
			return nil, ErrDisputeBadSignature
		}
		if len(vote.Signature) > 0 {
			voteSigs = append(voteSigs, vote.Signature)
		}
	}

	culpritVerify := ctx.culpritVerifier()
	if v.Summary == VerdictBad {
		for _, c := range culprits {
			if c.ReportHash != v.ReportHash {
				return nil, ErrDisputeOffender
			}
			if !culpritVerify(c.Validator, c.ReportHash, c.Signature) {
				return nil, ErrDisputeBadSignature
			}
		}
	}

	faultVerify := ctx.faultVerifier()
	for _, f := range faults {
		if f.ReportHash != v.ReportHash {
			return nil, ErrDisputeOffender
		}
		if !faultVerify(f.Validator, f.ReportHash, f.Vote, f.Signature) {
			return nil, ErrDisputeBadSignature
		}
	}

	switch v.Summary {
	case VerdictGood:
		j.Good[v.ReportHash] = struct{}{}
	case VerdictBad:
		j.Bad[v.ReportHash] = struct{}{}
		for _, c := range culprits {
			j.Offenders[c.Validator] = struct{}{}
		}
	case VerdictWonky:
		j.Wonky[v.ReportHash] = struct{}{}
	default:
		return nil, ErrDisputeUnknownVerdict
	}

	for _, f := range faults {
		j.Offenders[f.Validator] = struct{}{}
	}

	if len(voteSigs) == 0 {
		return nil, nil
	}
	agg, err := AggregateBLS(voteSigs)
	if err != nil {
		return nil, nil
	}
	return agg, nil
}

// IsOffender reports whether a validator has been recorded as an
// offender, used to exclude them from guarantor/assurance eligibility
// (spec §4.3 check 9, §4.4).
func (j Judgements) IsOffender(v ValidatorIndex) bool {
	_, ok := j.Offenders[v]
	return ok
}
