package core

// RegisterCount follows the canonical graypaper register width decision
// recorded in the grounding ledger: 13 general-purpose u64 registers
// plus a separate u32 program counter (spec §4.6, §9 Open Question
// resolved in favor of u64).
const RegisterCount = 13

// Registers is the PVM's general-purpose register file. Register 7
// holds the host-call/termination status by convention; registers 8-12
// carry host-call arguments (spec §8 "Host call contract").
type Registers [RegisterCount]uint64

const (
	RegStatus = 7
	RegArg0   = 8
	RegArg1   = 9
	RegArg2   = 10
	RegArg3   = 11
	RegArg4   = 12
)

func (r Registers) Clone() Registers { return r }
