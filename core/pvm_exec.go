package core

// TerminationReason classifies how a PVM invocation ended (spec §4.6:
// "play (continue), terminal { out_of_gas | panic | halt | page_fault }").
type TerminationReason int

const (
	TerminationHalt TerminationReason = iota
	TerminationOutOfGas
	TerminationPanic
	TerminationPageFault
)

// ExecutionResult is the outcome of running a program to termination.
type ExecutionResult struct {
	Reason    TerminationReason
	Violation *ViolationInfo
	GasUsed   uint64
	Output    []byte
}

// Machine is one PVM instance: a decoded program, register file, paged
// memory, and a live gas meter (spec §4.6 "Responsibility: a
// deterministic, gas-metered register machine").
type Machine struct {
	Program Program
	Regs    Registers
	Mem     *Memory
	PC      uint32
	Gas     int64
}

// NewMachine seeds a fresh PVM instance with the service's code and an
// accumulate_gas budget (spec §4.5 "Execution: instantiate a PVM seeded
// with the service's code and accumulate_gas budget").
func NewMachine(program Program, gasBudget uint64) *Machine {
	return &Machine{Program: program, Mem: NewMemory(), Gas: int64(gasBudget)}
}

// decodeAt reads one instruction at pc using a fixed 4-byte encoding:
// [opcode][reg1][reg2 / signed 8-bit immediate][reg3 / signed 8-bit
// branch offset], sufficient to express the
// instruction families this implementation targets without a variable-
// length operand decoder.
func (m *Machine) decodeAt(pc uint32) (Instruction, bool) {
	if int(pc)+4 > len(m.Program.Code) {
		return Instruction{}, false
	}
	b := m.Program.Code[pc : pc+4]
	op := Opcode(b[0])
	inst := Instruction{Op: op, Reg1: b[1], Reg2: b[2], Reg3: b[3]}
	inst.Imm1 = int64(int8(b[2]))
	inst.Offset = int32(int8(b[3]))
	return inst, true
}

// Run executes from the current PC until a terminal condition (spec
// §4.6 "Suspension points": runs to termination or to a host call).
func (m *Machine) Run(ctx HostContext) ExecutionResult {
	var gasUsed uint64
	for {
		inst, ok := m.decodeAt(m.PC)
		if !ok {
			return ExecutionResult{Reason: TerminationHalt, GasUsed: gasUsed}
		}

		cost := GasCost(inst.Op)
		if m.Gas < int64(cost) {
			return ExecutionResult{Reason: TerminationOutOfGas, GasUsed: gasUsed}
		}
		m.Gas -= int64(cost)
		gasUsed += cost

		switch inst.Op {
		case OpTrap:
			return ExecutionResult{Reason: TerminationPanic, GasUsed: gasUsed}
		case OpFallthru:
			m.PC += 4
		case OpAdd:
			m.Regs[inst.Reg1] = m.Regs[inst.Reg2] + m.Regs[inst.Reg3]
			m.PC += 4
		case OpSub:
			m.Regs[inst.Reg1] = m.Regs[inst.Reg2] - m.Regs[inst.Reg3]
			m.PC += 4
		case OpMul:
			m.Regs[inst.Reg1] = m.Regs[inst.Reg2] * m.Regs[inst.Reg3]
			m.PC += 4
		case OpDiv:
			if m.Regs[inst.Reg3] == 0 {
				return ExecutionResult{Reason: TerminationPanic, GasUsed: gasUsed}
			}
			m.Regs[inst.Reg1] = m.Regs[inst.Reg2] / m.Regs[inst.Reg3]
			m.PC += 4
		case OpAnd:
			m.Regs[inst.Reg1] = m.Regs[inst.Reg2] & m.Regs[inst.Reg3]
			m.PC += 4
		case OpOr:
			m.Regs[inst.Reg1] = m.Regs[inst.Reg2] | m.Regs[inst.Reg3]
			m.PC += 4
		case OpXor:
			m.Regs[inst.Reg1] = m.Regs[inst.Reg2] ^ m.Regs[inst.Reg3]
			m.PC += 4
		case OpShl:
			m.Regs[inst.Reg1] = m.Regs[inst.Reg2] << uint(inst.Reg3)
			m.PC += 4
		case OpShr:
			m.Regs[inst.Reg1] = m.Regs[inst.Reg2] >> uint(inst.Reg3)
			m.PC += 4
		case OpMove:
			m.Regs[inst.Reg1] = m.Regs[inst.Reg2]
			m.PC += 4
		case OpLoad:
			data, viol := m.Mem.Read(uint32(m.Regs[inst.Reg2]), 8)
			if viol != nil {
				return ExecutionResult{Reason: TerminationPageFault, Violation: viol, GasUsed: gasUsed}
			}
			m.Regs[inst.Reg1] = beU64(data)
			m.PC += 4
		case OpStore:
			buf := make([]byte, 8)
			v := m.Regs[inst.Reg2]
			for i := 7; i >= 0; i-- {
				buf[i] = byte(v)
				v >>= 8
			}
			if viol := m.Mem.Write(uint32(m.Regs[inst.Reg1]), buf); viol != nil {
				return ExecutionResult{Reason: TerminationPageFault, Violation: viol, GasUsed: gasUsed}
			}
			m.PC += 4
		case OpJump:
			dest := uint32(inst.Imm1)
			if !m.Program.ValidJumpTarget(dest) {
				return ExecutionResult{Reason: TerminationPanic, GasUsed: gasUsed}
			}
			m.PC = dest
		case OpJumpInd:
			dest := uint32(m.Regs[inst.Reg1])
			if !m.Program.ValidJumpTarget(dest) {
				return ExecutionResult{Reason: TerminationPanic, GasUsed: gasUsed}
			}
			m.PC = dest
		case OpBranch:
			if m.Regs[inst.Reg1] != 0 {
				dest := uint32(int64(m.PC) + int64(inst.Offset))
				if !m.Program.ValidJumpTarget(dest) {
					return ExecutionResult{Reason: TerminationPanic, GasUsed: gasUsed}
				}
				m.PC = dest
			} else {
				m.PC += 4
			}
		case OpHostCall:
			if uint32(inst.Reg1) == HostCallGasRemaining {
				m.Regs[RegArg0] = uint64(m.Gas)
			}
			status, err := DispatchHostCall(ctx, &m.Regs, uint32(inst.Reg1))
			if err != nil {
				return ExecutionResult{Reason: TerminationPanic, GasUsed: gasUsed}
			}
			switch status {
			case StatusOutOfGas:
				return ExecutionResult{Reason: TerminationOutOfGas, GasUsed: gasUsed}
			case StatusPanic:
				return ExecutionResult{Reason: TerminationPanic, GasUsed: gasUsed}
			case StatusHalt:
				return ExecutionResult{Reason: TerminationHalt, GasUsed: gasUsed}
			case StatusPageFault:
				return ExecutionResult{Reason: TerminationPageFault, GasUsed: gasUsed}
			}
			m.PC += 4
		default:
			return ExecutionResult{Reason: TerminationPanic, GasUsed: gasUsed}
		}
	}
}
