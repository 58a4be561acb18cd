package core

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
)

// genesisState builds a fresh state with a validator set of real ed25519
// keypairs (so DefaultSealVerifier has something genuine to check) and
// returns the matching private keys alongside it for test fixtures to sign
// headers with.
func genesisState(t *testing.T, params Params) (*State, []ed25519.PrivateKey) {
	t.Helper()
	s := NewStateWithQueues(params.CoreCount, params.ValidatorsCount, params.MaxAuthQueueItems, params.RecentHistorySize)

	keys := make(ValidatorSet, params.ValidatorsCount)
	privs := make([]ed25519.PrivateKey, params.ValidatorsCount)
	for i := range keys {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			t.Fatalf("generate validator key %d: %v", i, err)
		}
		copy(keys[i].Ed25519[:], pub)
		privs[i] = priv
	}
	s.Validators.Active = keys
	s.Validators.Prev = keys.Clone()
	s.Validators.Pending = make(ValidatorSet, params.ValidatorsCount)
	s.Safrole.PendingValidators = make(ValidatorSet, params.ValidatorsCount)
	s.Safrole.SlotMap = make([]SlotAssignment, params.EpochLength)
	return s, privs
}

// signedHeader attaches a valid seal for h using the given author's private
// key, matching DefaultSealVerifier/headerSealMessage's wire format.
func signedHeader(h Header, priv ed25519.PrivateKey) Header {
	h.Seal = SignEd25519(priv, headerSealMessage(h))
	return h
}

func TestOrchestratorAppliesEmptyBlock(t *testing.T) {
	params := TinyParams()
	base, privs := genesisState(t, params)

	o := &Orchestrator{Params: params}
	block := Block{
		Header: signedHeader(Header{
			ParentHash:  hashOf(1),
			Slot:        1,
			AuthorIndex: 0,
		}, privs[0]),
	}

	next, err := o.Apply(base, block)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if next.Slot != 1 {
		t.Fatalf("expected slot advanced to 1, got %d", next.Slot)
	}
	if len(next.RecentHistory.Digests) != 1 {
		t.Fatalf("expected one recent-history digest recorded, got %d", len(next.RecentHistory.Digests))
	}
	if base.Slot != 0 {
		t.Fatalf("expected base state left untouched, got slot %d", base.Slot)
	}
	if next.Stats.Validators[0].BlocksAuthored != 1 {
		t.Fatalf("expected author's blocks-authored counter incremented, got %d", next.Stats.Validators[0].BlocksAuthored)
	}
}

func TestOrchestratorRejectsNonMonotonicSlotAfterGenesis(t *testing.T) {
	params := TinyParams()
	base, privs := genesisState(t, params)
	o := &Orchestrator{Params: params}

	first := Block{Header: signedHeader(Header{ParentHash: hashOf(1), Slot: 1, AuthorIndex: 0}, privs[0])}
	afterFirst, err := o.Apply(base, first)
	if err != nil {
		t.Fatalf("apply first block: %v", err)
	}

	stale := Block{Header: signedHeader(Header{ParentHash: hashOf(2), Slot: 1, AuthorIndex: 0}, privs[0])}
	if _, err := o.Apply(afterFirst, stale); err == nil {
		t.Fatalf("expected non-monotonic slot to be rejected")
	}
}

func TestOrchestratorRejectsBadAuthorIndex(t *testing.T) {
	params := TinyParams()
	base, _ := genesisState(t, params)
	o := &Orchestrator{Params: params}

	block := Block{Header: Header{ParentHash: hashOf(1), Slot: 1, AuthorIndex: ValidatorIndex(params.ValidatorsCount + 1)}}
	if _, err := o.Apply(base, block); err == nil {
		t.Fatalf("expected out-of-range author index to be rejected")
	}
}

func TestOrchestratorRejectsBadSeal(t *testing.T) {
	params := TinyParams()
	base, privs := genesisState(t, params)
	o := &Orchestrator{Params: params}

	block := Block{Header: signedHeader(Header{ParentHash: hashOf(1), Slot: 1, AuthorIndex: 0}, privs[1])}
	if _, err := o.Apply(base, block); err != ErrHeaderBadSeal {
		t.Fatalf("expected ErrHeaderBadSeal for a seal signed by the wrong validator, got %v", err)
	}
}

func TestOrchestratorAccumulatesFreedReport(t *testing.T) {
	params := TinyParams()
	base, privs := genesisState(t, params)

	svc := ServiceId(7)
	base.Accounts[svc] = ServiceAccount{Balance: 1_000_000, Storage: map[Hash]StorageEntry{}}

	report := WorkReport{
		PackageSpec: PackageSpec{Hash: hashOf(42)},
		CoreIndex:   0,
		Results:     []WorkResult{{ServiceId: svc, CodeHash: hashOf(99), AccumulateGas: 100}},
	}
	base.Availability[0] = PendingReport{Report: report, Reporters: []ValidatorIndex{0, 1}, GuaranteeSlot: 0, Occupied: true}

	o := &Orchestrator{
		Params:          params,
		VerifyAssurance: func(ValidatorIndex, []byte, []byte) bool { return true },
		ProgramForService: func(codeHash Hash) (Program, bool) {
			if codeHash != hashOf(99) {
				return Program{}, false
			}
			code := assembleInstruction(OpTrap, 0, 0, 0)
			raw := []byte{0, 1, byte(len(code))}
			raw = append(raw, code...)
			raw = append(raw, 0b00000001)
			prog, err := DecodeProgram(raw)
			if err != nil {
				t.Fatalf("decode program: %v", err)
			}
			return prog, true
		},
	}

	bitfield := []byte{0x01}
	assurances := make([]Assurance, params.ValidatorsSuperMajority)
	for i := range assurances {
		assurances[i] = Assurance{Validator: ValidatorIndex(i), Bitfield: bitfield}
	}

	block := Block{
		Header: signedHeader(Header{ParentHash: hashOf(1), Slot: 1, AuthorIndex: 0}, privs[0]),
		Extrinsic: Extrinsic{
			Assurances: assurances,
		},
	}

	next, err := o.Apply(base, block)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if next.Availability[0].Occupied {
		t.Fatalf("expected core 0 freed after supermajority assurance")
	}
	if !next.Xi.Contains(hashOf(42)) {
		t.Fatalf("expected accumulated package hash recorded in xi history")
	}
}

// TestOrchestratorAccumulationWritesStorage exercises the accumulation path
// end to end: a work result payload of (32-byte key || value) is delivered
// into the PVM's input section, and a single host-call instruction writes it
// into the service's storage (spec §4.6 "Memory model"/"Host calls").
func TestOrchestratorAccumulationWritesStorage(t *testing.T) {
	params := TinyParams()
	base, privs := genesisState(t, params)

	svc := ServiceId(9)
	base.Accounts[svc] = ServiceAccount{Balance: 1_000_000, Storage: map[Hash]StorageEntry{}}

	var key Hash
	key[31] = 0x2a
	value := []byte("hello-accumulation")
	payload := append(append([]byte(nil), key[:]...), value...)

	report := WorkReport{
		PackageSpec: PackageSpec{Hash: hashOf(123)},
		CoreIndex:   0,
		Results:     []WorkResult{{ServiceId: svc, CodeHash: hashOf(200), AccumulateGas: 10_000, Payload: payload}},
	}
	base.Availability[0] = PendingReport{Report: report, Reporters: []ValidatorIndex{0, 1}, GuaranteeSlot: 0, Occupied: true}

	o := &Orchestrator{
		Params:          params,
		VerifyAssurance: func(ValidatorIndex, []byte, []byte) bool { return true },
		ProgramForService: func(codeHash Hash) (Program, bool) {
			if codeHash != hashOf(200) {
				return Program{}, false
			}
			code := assembleInstruction(OpHostCall, byte(HostCallWriteStorage), 0, 0)
			raw := []byte{0, 1, byte(len(code))}
			raw = append(raw, code...)
			raw = append(raw, 0b00000001)
			prog, err := DecodeProgram(raw)
			if err != nil {
				t.Fatalf("decode program: %v", err)
			}
			return prog, true
		},
	}

	bitfield := []byte{0x01}
	assurances := make([]Assurance, params.ValidatorsSuperMajority)
	for i := range assurances {
		assurances[i] = Assurance{Validator: ValidatorIndex(i), Bitfield: bitfield}
	}

	block := Block{
		Header:    signedHeader(Header{ParentHash: hashOf(1), Slot: 1, AuthorIndex: 0}, privs[0]),
		Extrinsic: Extrinsic{Assurances: assurances},
	}

	next, err := o.Apply(base, block)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	entry, ok := next.Accounts[svc].Storage[key]
	if !ok {
		t.Fatalf("expected key written into service storage")
	}
	if string(entry.Value) != string(value) {
		t.Fatalf("expected stored value %q, got %q", value, entry.Value)
	}
}
