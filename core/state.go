package core

// State is σ: the full posterior/prior global state record (spec §3.1).
// Every field is independently clonable; State itself supports deep
// clone for the copy-on-write overlay in StateTransition.
type State struct {
	Safrole       SafroleState
	Entropy       Entropy
	Validators    Validators
	AuthPools     AuthPools
	AuthQueues    AuthQueues
	RecentHistory RecentHistory
	Availability  AvailabilityState
	Judgements    Judgements
	Privileges    Privileges
	Stats         Stats
	Xi            XiHistory
	Accounts      ServiceAccounts
	Queue         AccumulationQueue
	Slot          Slot
}

// NewState builds a zero-valued σ sized for the given core/validator
// counts, as TinyParams/FullParams dictate. Authorization queues and ξ
// start with zero entries; NewStateWithQueues sizes them.
func NewState(cores, validators int) *State {
	return &State{
		AuthPools:    NewAuthPools(cores),
		AuthQueues:   NewAuthQueues(cores, 0),
		Availability: NewAvailabilityState(cores),
		Judgements:   NewJudgements(),
		Stats:        NewStats(validators, cores),
		Xi:           NewXiHistory(0),
		Accounts:     make(ServiceAccounts),
	}
}

// NewStateWithQueues builds a zero-valued σ with authorization queues
// sized to q entries per core and ξ sized to xiWindow slots, for callers
// (the orchestrator, tests) that need the fixed-length slot structures
// populated up front rather than growing lazily.
func NewStateWithQueues(cores, validators, q, xiWindow int) *State {
	s := NewState(cores, validators)
	s.AuthQueues = NewAuthQueues(cores, q)
	s.Xi = NewXiHistory(xiWindow)
	return s
}

// Clone deep-copies every component of σ.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	return &State{
		Safrole:       s.Safrole.Clone(),
		Entropy:       s.Entropy.Clone(),
		Validators:    s.Validators.Clone(),
		AuthPools:     s.AuthPools.Clone(),
		AuthQueues:    s.AuthQueues.Clone(),
		RecentHistory: s.RecentHistory.Clone(),
		Availability:  s.Availability.Clone(),
		Judgements:    s.Judgements.Clone(),
		Privileges:    s.Privileges.Clone(),
		Stats:         s.Stats.Clone(),
		Xi:            s.Xi.Clone(),
		Accounts:      s.Accounts.Clone(),
		Queue:         s.Queue.Clone(),
		Slot:          s.Slot,
	}
}

// StateRoot merklizes σ and returns its root hash (spec §4.7, §8
// glossary "State root").
func (s *State) StateRoot() Hash {
	return MerkleRoot(MerkleDictionary(s))
}
