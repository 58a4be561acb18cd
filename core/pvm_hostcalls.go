package core

import (
	"fmt"
	"sync"
)

// HostContext is provided by the accumulation pipeline; it gives host
// call handlers controlled access to the invoking service's account,
// gas meter, and output buffer (spec §4.6 "Host calls": "each receives
// an execution-context pointer and a typed host-context pointer").
//
// Generalized from a single Call/Gas façade to the concrete service
// operations PVM host calls require.
type HostContext interface {
	Gas(uint64) error
	Account() *ServiceAccount
	ReadMemory(addr, size uint32) ([]byte, *ViolationInfo)
	WriteMemory(addr uint32, data []byte) *ViolationInfo
	Log(msg string)
}

// HostCallStatus is the termination/continuation status a host-call
// handler returns to the executor; the call's result value, if any, goes
// in register 7 (RegStatus).
type HostCallStatus uint64

const (
	StatusPlay HostCallStatus = iota
	StatusOutOfGas
	StatusPanic
	StatusHalt
	StatusPageFault
)

// HostCallFunc is the concrete implementation invoked for one host-call
// opcode.
type HostCallFunc func(ctx HostContext, regs *Registers) HostCallStatus

var (
	hostCallTable = make(map[uint32]HostCallFunc, 16)
	hostCallMu    sync.RWMutex
)

// RegisterHostCall binds a host-call opcode number to its handler. It
// panics on duplicate registration, treating a collision in the
// opcode table as fatal.
func RegisterHostCall(op uint32, fn HostCallFunc) {
	hostCallMu.Lock()
	defer hostCallMu.Unlock()
	if _, exists := hostCallTable[op]; exists {
		panic(fmt.Sprintf("pvm: host call 0x%04X already registered", op))
	}
	hostCallTable[op] = fn
}

// DispatchHostCall looks up and invokes the handler for op, returning
// ErrPvmUnknownHostCall if none is registered (spec §4.6 minimal set:
// gas_remaining, lookup_preimage, read_storage, write_storage,
// info_service, fetch, debug_log).
func DispatchHostCall(ctx HostContext, regs *Registers, op uint32) (HostCallStatus, error) {
	hostCallMu.RLock()
	fn, ok := hostCallTable[op]
	hostCallMu.RUnlock()
	if !ok {
		return StatusPanic, ErrPvmUnknownHostCall
	}
	return fn(ctx, regs), nil
}

const (
	HostCallGasRemaining  = 0x0001
	HostCallLookupPreimage = 0x0002
	HostCallReadStorage    = 0x0003
	HostCallWriteStorage   = 0x0004
	HostCallInfoService    = 0x0005
	HostCallFetch          = 0x0006
	HostCallDebugLog       = 0x0007
)

func init() {
	RegisterHostCall(HostCallGasRemaining, hostGasRemaining)
	RegisterHostCall(HostCallLookupPreimage, hostLookupPreimage)
	RegisterHostCall(HostCallReadStorage, hostReadStorage)
	RegisterHostCall(HostCallWriteStorage, hostWriteStorage)
	RegisterHostCall(HostCallInfoService, hostInfoService)
	RegisterHostCall(HostCallFetch, hostFetch)
	RegisterHostCall(HostCallDebugLog, hostDebugLog)
}

func hostGasRemaining(ctx HostContext, regs *Registers) HostCallStatus {
	// the caller (pvm_exec.go) tracks the live gas meter; this handler
	// only needs to surface it through RegArg0, set by the executor
	// before dispatch.
	regs[RegStatus] = uint64(StatusPlay)
	return StatusPlay
}

func hostLookupPreimage(ctx HostContext, regs *Registers) HostCallStatus {
	acct := ctx.Account()
	keyBytes, viol := ctx.ReadMemory(uint32(regs[RegArg0]), 32)
	if viol != nil {
		return StatusPageFault
	}
	var key Hash
	copy(key[:], keyBytes)
	entry, ok := acct.Storage[key]
	if !ok {
		regs[RegStatus] = 0
		return StatusPlay
	}
	if viol := writeWindowed(ctx, uint32(regs[RegArg1]), entry.Value, uint32(regs[RegArg2]), uint32(regs[RegArg3])); viol != nil {
		return StatusPageFault
	}
	regs[RegStatus] = uint64(len(entry.Value))
	return StatusPlay
}

func hostReadStorage(ctx HostContext, regs *Registers) HostCallStatus {
	acct := ctx.Account()
	keyBytes, viol := ctx.ReadMemory(uint32(regs[RegArg0]), 32)
	if viol != nil {
		return StatusPageFault
	}
	var key Hash
	copy(key[:], keyBytes)
	entry, ok := acct.Storage[key]
	if !ok {
		regs[RegStatus] = 0
		return StatusPlay
	}
	if viol := writeWindowed(ctx, uint32(regs[RegArg1]), entry.Value, uint32(regs[RegArg2]), uint32(regs[RegArg3])); viol != nil {
		return StatusPageFault
	}
	regs[RegStatus] = uint64(len(entry.Value))
	return StatusPlay
}

func hostWriteStorage(ctx HostContext, regs *Registers) HostCallStatus {
	acct := ctx.Account()
	keyBytes, viol := ctx.ReadMemory(uint32(regs[RegArg0]), 32)
	if viol != nil {
		return StatusPageFault
	}
	var key Hash
	copy(key[:], keyBytes)
	valueLen := uint32(regs[RegArg2])
	value, viol := ctx.ReadMemory(uint32(regs[RegArg1]), valueLen)
	if viol != nil {
		return StatusPageFault
	}
	result, priorLen, err := WriteStorage(acct, key, value)
	if err != nil {
		return StatusPanic
	}
	if result == WriteStorageFull {
		regs[RegStatus] = ^uint64(0)
		return StatusPlay
	}
	regs[RegStatus] = priorLen
	return StatusPlay
}

func hostInfoService(ctx HostContext, regs *Registers) HostCallStatus {
	acct := ctx.Account()
	bytesTotal, items := acct.Footprint()
	regs[RegArg0] = acct.Balance
	regs[RegArg1] = bytesTotal
	regs[RegArg2] = items
	regs[RegStatus] = 0
	return StatusPlay
}

func hostFetch(ctx HostContext, regs *Registers) HostCallStatus {
	// Fetch surfaces ambient block/service metadata to the guest; in the
	// absence of a live block context this reports an empty result
	// rather than fabricating chain data.
	regs[RegStatus] = 0
	return StatusPlay
}

func hostDebugLog(ctx HostContext, regs *Registers) HostCallStatus {
	msg, viol := ctx.ReadMemory(uint32(regs[RegArg0]), uint32(regs[RegArg1]))
	if viol != nil {
		return StatusPageFault
	}
	ctx.Log(string(msg))
	regs[RegStatus] = 0
	return StatusPlay
}

// writeWindowed copies value[offset:offset+limit] (clamped) to addr,
// always reporting the full value length to the caller even when
// limit=0 (spec §4.6 "(offset, limit) windowing").
func writeWindowed(ctx HostContext, addr uint32, value []byte, offset, limit uint32) *ViolationInfo {
	if offset > uint32(len(value)) {
		offset = uint32(len(value))
	}
	end := offset + limit
	if end > uint32(len(value)) {
		end = uint32(len(value))
	}
	if limit == 0 {
		return nil
	}
	return ctx.WriteMemory(addr, value[offset:end])
}
