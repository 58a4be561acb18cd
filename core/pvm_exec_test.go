package core

import "testing"

func assembleInstruction(op Opcode, a, b, c byte) []byte {
	return []byte{byte(op), a, b, c}
}

func TestDecodeProgramRejectsShort(t *testing.T) {
	_, err := DecodeProgram([]byte{0})
	if err != ErrPvmProgramTooShort {
		t.Fatalf("expected ErrPvmProgramTooShort, got %v", err)
	}
}

func TestDecodeProgramValidatesJumpDestination(t *testing.T) {
	// jump_table_len=1, item_len=1, code_len=4, jump_table=[1] (not a
	// block start since mask marks only byte 0), code=4 zero bytes (OpTrap), mask=1 byte.
	raw := []byte{1, 1, 4, 1, 0, 0, 0, 0, 0b00000001}
	_, err := DecodeProgram(raw)
	if err != ErrPvmInvalidJumpDestination {
		t.Fatalf("expected ErrPvmInvalidJumpDestination, got %v", err)
	}
}

func TestDecodeProgramAccepts(t *testing.T) {
	raw := []byte{0, 1, 4, 4, 0, 0, 0, 0, 0b00000001}
	p, err := DecodeProgram(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !p.ValidJumpTarget(0) {
		t.Fatalf("expected pc 0 to be a valid jump target")
	}
}

func TestMachineRunsArithmeticAndTraps(t *testing.T) {
	code := append(assembleInstruction(OpAdd, 0, 1, 2), assembleInstruction(OpTrap, 0, 0, 0)...)
	raw := []byte{0, 1, byte(len(code))}
	raw = append(raw, code...)
	raw = append(raw, 0b00000001)

	prog, err := DecodeProgram(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m := NewMachine(prog, 1000)
	m.Regs[1] = 3
	m.Regs[2] = 4

	result := m.Run(&accumulationHostContext{account: &ServiceAccount{Storage: map[Hash]StorageEntry{}}})
	if result.Reason != TerminationPanic {
		t.Fatalf("expected trap to terminate as panic, got %v", result.Reason)
	}
	if m.Regs[0] != 7 {
		t.Fatalf("expected register 0 to hold 7, got %d", m.Regs[0])
	}
}

func TestMachineOutOfGas(t *testing.T) {
	code := assembleInstruction(OpAdd, 0, 1, 2)
	raw := []byte{0, 1, byte(len(code))}
	raw = append(raw, code...)
	raw = append(raw, 0b00000001)

	prog, _ := DecodeProgram(raw)
	m := NewMachine(prog, 0)
	result := m.Run(&accumulationHostContext{account: &ServiceAccount{Storage: map[Hash]StorageEntry{}}})
	if result.Reason != TerminationOutOfGas {
		t.Fatalf("expected out-of-gas termination, got %v", result.Reason)
	}
}

func TestGasCostUnknownOpcodeIsPunitive(t *testing.T) {
	if GasCost(Opcode(250)) != defaultUnknownOpcodeCost {
		t.Fatalf("expected punitive default cost for unknown opcode")
	}
}
