package core

// ValidatorStats is one validator's per-epoch activity tally (spec §12
// item 4 "Statistics (π) field shapes").
type ValidatorStats struct {
	BlocksAuthored     uint32
	TicketsSubmitted   uint32
	PreimagesSubmitted uint32
	PreimageBytes      uint64
	ReportsGuaranteed  uint32
	AssurancesGiven    uint32
}

// CoreStats is one core's per-block activity tally.
type CoreStats struct {
	ReportsAvailable uint32
	GasUsed          uint64
	Imports          uint32
	Exports          uint32
	ExtrinsicBytes    uint64
}

// ServiceStats is one service's per-block activity tally.
type ServiceStats struct {
	AccumulateGasUsed uint64
	ReportsProcessed  uint32
	ProvidedPreimages uint32
}

// Stats is π: the full activity-statistics component (spec §3.1 "π |
// statistics: per-validator and per-core/service activity counters").
type Stats struct {
	Validators []ValidatorStats
	Cores      []CoreStats
	Services   map[ServiceId]ServiceStats
}

func NewStats(validators, cores int) Stats {
	return Stats{
		Validators: make([]ValidatorStats, validators),
		Cores:      make([]CoreStats, cores),
		Services:   make(map[ServiceId]ServiceStats),
	}
}

func (s Stats) Clone() Stats {
	out := Stats{
		Validators: append([]ValidatorStats(nil), s.Validators...),
		Cores:      append([]CoreStats(nil), s.Cores...),
		Services:   make(map[ServiceId]ServiceStats, len(s.Services)),
	}
	for id, st := range s.Services {
		out.Services[id] = st
	}
	return out
}

// RotateEpoch resets the per-validator counters at an epoch boundary,
// following a windowed-counter reset pattern.
func (s Stats) RotateEpoch() Stats {
	out := s.Clone()
	out.Validators = make([]ValidatorStats, len(s.Validators))
	return out
}

func (s Stats) RecordBlockAuthored(v ValidatorIndex) {
	if int(v) < len(s.Validators) {
		s.Validators[v].BlocksAuthored++
	}
}

func (s Stats) RecordTicket(v ValidatorIndex) {
	if int(v) < len(s.Validators) {
		s.Validators[v].TicketsSubmitted++
	}
}

func (s Stats) RecordGuarantee(v ValidatorIndex) {
	if int(v) < len(s.Validators) {
		s.Validators[v].ReportsGuaranteed++
	}
}

func (s Stats) RecordAssurance(v ValidatorIndex) {
	if int(v) < len(s.Validators) {
		s.Validators[v].AssurancesGiven++
	}
}

func (s Stats) RecordPreimage(v ValidatorIndex, size uint64) {
	if int(v) < len(s.Validators) {
		s.Validators[v].PreimagesSubmitted++
		s.Validators[v].PreimageBytes += size
	}
}

func (s Stats) RecordCoreAvailable(c CoreIndex, gasUsed uint64, imports, exports uint32, extrinsicBytes uint64) {
	if int(c) < len(s.Cores) {
		cs := s.Cores[c]
		cs.ReportsAvailable++
		cs.GasUsed += gasUsed
		cs.Imports += imports
		cs.Exports += exports
		cs.ExtrinsicBytes += extrinsicBytes
		s.Cores[c] = cs
	}
}

func (s Stats) RecordServiceAccumulation(id ServiceId, gasUsed uint64) {
	st := s.Services[id]
	st.AccumulateGasUsed += gasUsed
	st.ReportsProcessed++
	s.Services[id] = st
}
