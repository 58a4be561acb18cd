package core

import "sort"

// Program is a decoded PVM code object (spec §4.6 "Program format"):
// a byte sequence [jump_table_len:varint][item_len:u8][code_len:varint]
// [jump_table][code][mask].
type Program struct {
	JumpTable    []uint32 // decoded destination PCs, in encoded order
	Code         []byte
	BasicBlockAt []bool // one bit per code byte; true marks a block start
}

const (
	minItemLen = 1
	maxItemLen = 4
)

// DecodeProgram parses a PVM program, validating structural invariants
// up front so that execution never needs to re-check jump-table shape
// (spec §4.6 decoding-failure taxonomy).
func DecodeProgram(raw []byte) (Program, error) {
	if len(raw) < 2 {
		return Program{}, ErrPvmProgramTooShort
	}

	jumpTableLen, off, err := ReadVarint(raw, 0)
	if err != nil {
		return Program{}, ErrPvmProgramTooShort
	}
	if off >= len(raw) {
		return Program{}, ErrPvmProgramTooShort
	}
	itemLen := int(raw[off])
	off++
	if itemLen < minItemLen || itemLen > maxItemLen {
		return Program{}, ErrPvmInvalidItemLength
	}

	codeLen, off2, err := ReadVarint(raw, off)
	if err != nil {
		return Program{}, ErrPvmProgramTooShort
	}
	off = off2

	jumpTableBytes := int(jumpTableLen) * itemLen
	if jumpTableBytes < 0 || off+jumpTableBytes > len(raw) {
		return Program{}, ErrPvmInvalidJumpTableLength
	}
	jumpTable := make([]uint32, jumpTableLen)
	for i := range jumpTable {
		entry := raw[off : off+itemLen]
		off += itemLen
		var v uint32
		for k := itemLen - 1; k >= 0; k-- {
			v = v<<8 | uint32(entry[k])
		}
		jumpTable[i] = v
	}

	if codeLen < 0 || off+int(codeLen) > len(raw) {
		return Program{}, ErrPvmInvalidCodeLength
	}
	code := raw[off : off+int(codeLen)]
	off += int(codeLen)

	maskBytes := (int(codeLen) + 7) / 8
	if off+maskBytes > len(raw) {
		return Program{}, ErrPvmInvalidCodeLength
	}
	maskRaw := raw[off : off+maskBytes]

	basicBlockAt := make([]bool, codeLen)
	for i := range basicBlockAt {
		byteIdx, bitIdx := i/8, uint(i%8)
		basicBlockAt[i] = maskRaw[byteIdx]&(1<<bitIdx) != 0
	}

	sorted := append([]uint32(nil), jumpTable...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, dest := range sorted {
		if int(dest) >= len(basicBlockAt) || !basicBlockAt[dest] {
			return Program{}, ErrPvmInvalidJumpDestination
		}
	}

	return Program{JumpTable: jumpTable, Code: code, BasicBlockAt: basicBlockAt}, nil
}

// ValidJumpTarget reports whether pc is a basic-block start, by direct
// lookup in the per-code-byte BasicBlockAt mask.
func (p Program) ValidJumpTarget(pc uint32) bool {
	if int(pc) >= len(p.BasicBlockAt) {
		return false
	}
	return p.BasicBlockAt[pc]
}
