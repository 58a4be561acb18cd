package core

import "github.com/sirupsen/logrus"

var orchestratorLog = logrus.WithField("component", "orchestrator")

// Orchestrator drives the fixed 12-step block-application pipeline
// (spec §4.1 "Block orchestrator"). It holds the pluggable verifiers
// subsystems need; all of them default to deterministic reference
// implementations when unset.
type Orchestrator struct {
	Params            Params
	RingVerifier      RingVerifier
	RingCommitter     RingCommitter
	VerifySeal        func(header Header, author ValidatorKey) bool
	VerifyGuarantor   func(validator ValidatorIndex, report WorkReport, sig []byte) bool
	VerifyAssurance   func(validator ValidatorIndex, bitfield []byte, sig []byte) bool
	VerifyVoteSig     func(validator ValidatorIndex, reportHash Hash, valid bool, sig []byte) bool
	VerifyCulpritSig  func(validator ValidatorIndex, reportHash Hash, sig []byte) bool
	VerifyFaultSig    func(validator ValidatorIndex, reportHash Hash, vote bool, sig []byte) bool
	ProgramForService func(codeHash Hash) (Program, bool)
}

// Apply implements `apply(σ, B) → σ′ | Error` (spec §4.1), executing
// each step atomically relative to the next: on any error the entire
// block is rejected and σ is left untouched.
func (o *Orchestrator) Apply(base *State, b Block) (*State, error) {
	t := NewStateTransition(base)

	// 1. Validate header.
	if err := o.validateHeader(base, b.Header); err != nil {
		return nil, err
	}

	// 2. Append parent digest to β.
	prime := t.Prime()
	prime.RecentHistory = prime.RecentHistory.Append(b.Header.ParentHash, base.StateRoot(), o.Params.RecentHistorySize)

	// 3. Safrole transition, then fold the header's entropy source into η₀.
	safroleResult, newEntropy, err := o.runSafrole(prime, b)
	if err != nil {
		return nil, err
	}
	prime.Safrole = safroleResult.NewState
	prime.Entropy = newEntropy.AccumulateBlock(b.Header.EntropySource)

	// 4. Disputes.
	if err := o.runDisputes(prime, b.Extrinsic.Disputes); err != nil {
		return nil, err
	}

	// 5. Preimages.
	if err := ValidatePreimagesExtrinsic(prime.Accounts, b.Extrinsic.Preimages); err != nil {
		return nil, err
	}
	ApplyPreimages(prime.Accounts, b.Extrinsic.Preimages, b.Header.Slot)

	// 6. Authorizations.
	if err := ProcessAuthorizations(prime.AuthPools, prime.AuthQueues, b.Extrinsic.Authorizations, b.Header.Slot, o.Params.MaxAuthPoolItems); err != nil {
		return nil, err
	}

	// 7. Guarantees.
	if err := o.runGuarantees(prime, b); err != nil {
		return nil, err
	}

	// 8. Assurances.
	freed, err := o.runAssurances(prime, b)
	if err != nil {
		return nil, err
	}

	// 9. Accumulation.
	if err := o.runAccumulation(prime, b.Header.Slot, freed); err != nil {
		return nil, err
	}

	// 10. Validator statistics.
	o.updateStats(prime, b)

	// 11. Compute merged view's state root.
	_ = t.MergedView().StateRoot()

	// 12. Commit.
	return t.Commit(), nil
}

func (o *Orchestrator) validateHeader(base *State, h Header) error {
	if h.Slot <= base.Slot && base.Slot != 0 {
		return ErrHeaderBadSlot
	}
	if int(h.AuthorIndex) >= len(base.Validators.Active) {
		return ErrHeaderBadAuthorIndex
	}
	verifySeal := o.VerifySeal
	if verifySeal == nil {
		verifySeal = DefaultSealVerifier
	}
	author := base.Validators.Active[h.AuthorIndex]
	if !verifySeal(h, author) {
		return ErrHeaderBadSeal
	}
	return nil
}

func (o *Orchestrator) runSafrole(prime *State, b Block) (SafroleResult, Entropy, error) {
	verifier := o.RingVerifier
	if verifier == nil {
		verifier = DefaultRingVerifier
	}
	committer := o.RingCommitter
	if committer == nil {
		committer = DefaultRingCommitter
	}
	in := SafroleInput{
		PriorSlot:             prime.Slot,
		NewSlot:               b.Header.Slot,
		TicketsExtrinsic:      b.Extrinsic.Tickets,
		TicketProofs:          b.Extrinsic.TicketProofs,
		SubmissionWindowSlots: int(o.Params.EpochLength) * 2 / 3,
		NewPendingSet:         prime.Validators.Pending,
	}
	result, entropy, err := Transition(verifier, committer, o.Params, prime.Safrole, prime.Entropy, in)
	if err != nil {
		return SafroleResult{}, Entropy{}, err
	}
	if result.EpochChanged {
		prime.Validators = prime.Validators.RotateEpoch(result.NewState.PendingValidators, prime.Validators.Pending)
		prime.Stats = prime.Stats.RotateEpoch()
	}
	prime.Slot = b.Header.Slot
	return result, entropy, nil
}

func (o *Orchestrator) runDisputes(prime *State, d DisputesExtrinsic) error {
	ctx := DisputeContext{
		Validators:       prime.Validators,
		VerifyVoteSig:    o.VerifyVoteSig,
		VerifyCulpritSig: o.VerifyCulpritSig,
		VerifyFaultSig:   o.VerifyFaultSig,
	}
	for _, v := range d.Verdicts {
		culprits := culpritsFor(d.Culprits, v.ReportHash)
		faults := faultsFor(d.Faults, v.ReportHash)
		agg, err := prime.Judgements.ApplyVerdict(ctx, v, culprits, faults)
		if err != nil {
			return err
		}
		if len(agg) > 0 {
			orchestratorLog.WithField("report", v.ReportHash.Hex()).WithField("aggregate_sig_len", len(agg)).
				Debug("dispute verdict vote signatures aggregated")
		}
		if v.Summary == VerdictBad {
			for c := range prime.Availability {
				if prime.Availability[c].Occupied && prime.Availability[c].Report.PackageSpec.Hash == v.ReportHash {
					prime.Availability[c] = PendingReport{}
				}
			}
		}
	}
	return nil
}

func culpritsFor(culprits []Culprit, reportHash Hash) []Culprit {
	var out []Culprit
	for _, c := range culprits {
		if c.ReportHash == reportHash {
			out = append(out, c)
		}
	}
	return out
}

func faultsFor(faults []Fault, reportHash Hash) []Fault {
	var out []Fault
	for _, f := range faults {
		if f.ReportHash == reportHash {
			out = append(out, f)
		}
	}
	return out
}

func (o *Orchestrator) runGuarantees(prime *State, b Block) error {
	assignment := PermuteAssignments(prime.Entropy.Eta2, b.Header.Slot, len(prime.Validators.Active), o.Params.CoreCount, int(o.Params.RotationPeriod))
	verifyGuarantor := o.VerifyGuarantor
	if verifyGuarantor == nil {
		verifyGuarantor = DefaultGuarantorVerifier(prime.Validators)
	}
	ctx := GuaranteesContext{
		Params:              o.Params,
		RecentHistory:       prime.RecentHistory,
		Accounts:            prime.Accounts,
		Assignment:          assignment,
		Offenders:           prime.Judgements.Offenders,
		AccumulationHistory: prime.Xi.AsSet(),
		CurrentSlot:         b.Header.Slot,
		CoreEngagedUntil:    coreEngagedUntil(prime.Availability),
		VerifyGuarantorSig:  verifyGuarantor,
	}
	accepted, err := ValidateGuaranteesExtrinsic(ctx, b.Extrinsic.Guarantees)
	if err != nil {
		return err
	}
	for i, wd := range accepted {
		g := b.Extrinsic.Guarantees[i]
		reporters := make([]ValidatorIndex, len(g.Signatures))
		for j, sig := range g.Signatures {
			reporters[j] = sig.Validator
		}
		newAvail, err := AssignPendingReport(prime.Availability, wd.Report.CoreIndex, wd.Report, reporters, g.Slot)
		if err != nil {
			return err
		}
		prime.Availability = newAvail
	}
	return nil
}

func coreEngagedUntil(avail AvailabilityState) []Slot {
	out := make([]Slot, len(avail))
	for i, p := range avail {
		if p.Occupied {
			out[i] = p.GuaranteeSlot
		}
	}
	return out
}

func (o *Orchestrator) runAssurances(prime *State, b Block) ([]WorkReportAndDeps, error) {
	prime.Availability = ExpireTimedOutReports(prime.Availability, b.Header.Slot, o.Params.ReportTimeoutSlots)

	verifyAssurance := o.VerifyAssurance
	if verifyAssurance == nil {
		verifyAssurance = DefaultAssuranceVerifier(prime.Validators)
	}
	ctx := AssuranceContext{
		Params:          o.Params,
		Availability:    prime.Availability,
		VerifyAssurance: verifyAssurance,
	}
	available, err := ValidateAssurancesExtrinsic(ctx, b.Extrinsic.Assurances, len(prime.Validators.Active))
	if err != nil {
		return nil, err
	}
	newAvail, freed := ApplyAvailability(prime.Availability, available)
	prime.Availability = newAvail
	return freed, nil
}

func (o *Orchestrator) runAccumulation(prime *State, slot Slot, freed []WorkReportAndDeps) error {
	// core and service counters cover the current block only
	prime.Stats.Cores = make([]CoreStats, len(prime.Stats.Cores))
	prime.Stats.Services = make(map[ServiceId]ServiceStats)

	queue, ready := prime.Queue.Enqueue(freed)
	prime.Queue = queue

	for _, id := range prime.Privileges.AlwaysAccumulateSweep() {
		if acct, exists := prime.Accounts[id]; exists {
			sweep := WorkReport{Results: []WorkResult{{ServiceId: id, CodeHash: acct.CodeHash, AccumulateGas: prime.Privileges.AlwaysAccumulate[id]}}}
			ready = append(ready, WorkReportAndDeps{Report: sweep, Dependencies: map[Hash]struct{}{}})
		}
	}

	var accumulatedHashes []Hash
	for _, wd := range ready {
		if wd.Report.PackageSpec.Hash == (Hash{}) {
			// synthetic always-accumulate entry: executed, but there is no
			// package to track and no core to credit
			o.executeReport(prime, wd.Report, slot)
			continue
		}
		o.executeAndRecord(prime, wd.Report, slot)
		accumulatedHashes = append(accumulatedHashes, wd.Report.PackageSpec.Hash)
	}

	nextQueue, drained := prime.Queue.Drain(accumulatedHashes)
	prime.Queue = nextQueue
	for _, wd := range drained {
		o.executeAndRecord(prime, wd.Report, slot)
		accumulatedHashes = append(accumulatedHashes, wd.Report.PackageSpec.Hash)
	}

	prime.Xi = prime.Xi.Shift(accumulatedHashes)
	return nil
}

func (o *Orchestrator) executeAndRecord(prime *State, report WorkReport, slot Slot) {
	gasUsed := o.executeReport(prime, report, slot)
	var extrinsicBytes uint64
	for _, res := range report.Results {
		extrinsicBytes += uint64(len(res.Payload))
	}
	prime.Stats.RecordCoreAvailable(report.CoreIndex, gasUsed, uint32(len(report.SegmentRootLookup)), uint32(len(report.Results)), extrinsicBytes)
}

// inputSectionSize/inputSectionAddr place the accumulate input section at
// the top of the address space (spec §4.6 "Memory model": "Input section at
// 0xFFFFFFFF − Z_I − Z_Z + 1, Z_I=2²⁴, read-only").
const (
	inputSectionSize uint32 = 1 << 24
	inputSectionAddr uint32 = 0xFFFFFFFF - inputSectionSize - ZoneSize + 1
	accumulateKeyLen        = 32
)

// deliverInput maps a work result's payload into the PVM's input section
// and, when the payload carries a 32-byte key prefix, preloads the
// write_storage argument registers (key ptr, value ptr, value len) so
// accumulate code can invoke it directly without an instruction set capable
// of synthesizing arbitrary addresses (spec §4.5 "deliver the input
// payload").
func deliverInput(m *Machine, payload []byte) {
	if len(payload) == 0 {
		return
	}
	m.Mem.LoadBytes(inputSectionAddr, payload, PageReadOnly)
	if len(payload) > accumulateKeyLen {
		m.Regs[RegArg0] = uint64(inputSectionAddr)
		m.Regs[RegArg1] = uint64(inputSectionAddr) + accumulateKeyLen
		m.Regs[RegArg2] = uint64(len(payload) - accumulateKeyLen)
		return
	}
	m.Regs[RegArg0] = uint64(inputSectionAddr)
	m.Regs[RegArg1] = uint64(len(payload))
}

// executeReport runs each result entry's PVM invocation in turn,
// committing storage changes through a copy-on-write delta only on
// success (spec §4.5 "Execution"), and returns the total gas consumed
// across all result entries for per-core statistics.
func (o *Orchestrator) executeReport(prime *State, report WorkReport, slot Slot) uint64 {
	var totalGas uint64
	for _, res := range report.Results {
		acct, ok := prime.Accounts[res.ServiceId]
		if !ok {
			continue
		}
		if o.ProgramForService == nil {
			continue
		}
		program, ok := o.ProgramForService(res.CodeHash)
		if !ok {
			continue
		}

		trial := acct.Clone()
		machine := NewMachine(program, res.AccumulateGas)
		deliverInput(machine, res.Payload)
		hostCtx := &accumulationHostContext{account: &trial, mem: machine.Mem}
		result := machine.Run(hostCtx)
		totalGas += result.GasUsed

		orchestratorLog.WithField("service", res.ServiceId).WithField("gas_used", result.GasUsed).
			Debug("accumulation execution finished")

		prime.Stats.RecordServiceAccumulation(res.ServiceId, result.GasUsed)

		switch result.Reason {
		case TerminationOutOfGas, TerminationPanic, TerminationPageFault:
			// storage changes discarded; ξ still records the package hash
			// via the caller's accumulatedHashes append.
			continue
		case TerminationHalt:
			if acct.CreationSlot != slot {
				trial.LastAccumulationSlot = slot
			}
			prime.Accounts[res.ServiceId] = trial
		}
	}
	return totalGas
}

func (o *Orchestrator) updateStats(prime *State, b Block) {
	prime.Stats.RecordBlockAuthored(b.Header.AuthorIndex)
	for range b.Extrinsic.Tickets {
		// tickets are anonymous ring-VRF submissions (§4.2); the only
		// validator identity available at block-processing time is the
		// author who chose to include them.
		prime.Stats.RecordTicket(b.Header.AuthorIndex)
	}
	for _, g := range b.Extrinsic.Guarantees {
		for _, sig := range g.Signatures {
			prime.Stats.RecordGuarantee(sig.Validator)
		}
	}
	for _, a := range b.Extrinsic.Assurances {
		prime.Stats.RecordAssurance(a.Validator)
	}
	for _, p := range b.Extrinsic.Preimages {
		// preimages are keyed by target service, not by submitting
		// validator (§3.2); attribute the byte cost to the author as with
		// tickets above.
		prime.Stats.RecordPreimage(b.Header.AuthorIndex, uint64(len(p.Blob)))
	}
}

// accumulationHostContext adapts a trial ServiceAccount clone and its
// PVM memory into the HostContext interface (spec §4.6 "Host calls").
type accumulationHostContext struct {
	account *ServiceAccount
	mem     *Memory
	logs    []string
}

func (c *accumulationHostContext) Gas(uint64) error { return nil }
func (c *accumulationHostContext) Account() *ServiceAccount { return c.account }
func (c *accumulationHostContext) ReadMemory(addr, size uint32) ([]byte, *ViolationInfo) {
	if c.mem == nil {
		c.mem = NewMemory()
	}
	return c.mem.Read(addr, size)
}
func (c *accumulationHostContext) WriteMemory(addr uint32, data []byte) *ViolationInfo {
	if c.mem == nil {
		c.mem = NewMemory()
	}
	return c.mem.Write(addr, data)
}
func (c *accumulationHostContext) Log(msg string) { c.logs = append(c.logs, msg) }
