package core

import "fmt"

// Storage-footprint constants used by the threshold-balance formula
// (spec §3.2: "Derived footprint: a_o (total bytes), a_i (item count),
// a_t (threshold balance)"). Values follow the graypaper's BS/BI/BT
// constants, following a balance-bookkeeping idiom.
const (
	footprintBaseDeposit  uint64 = 100
	footprintByteDeposit  uint64 = 1
	footprintItemDeposit  uint64 = 10
)

// StorageEntry is one key/value pair in a service account's storage,
// doubling as either a plain storage slot or an integrated preimage
// (spec §3.2: "a key-value storage mapping keyed by 32-byte hashes
// holding both storage entries and preimages").
type StorageEntry struct {
	Value []byte
}

// ServiceAccount is one entry of δ (spec §3.2).
type ServiceAccount struct {
	CodeHash             Hash
	Balance              uint64
	MinGasAccumulate     uint64
	MinGasOnTransfer     uint64
	StorageOffset        uint64
	CreationSlot         Slot
	LastAccumulationSlot Slot
	ParentService        ServiceId
	Storage              map[Hash]StorageEntry
}

func (a ServiceAccount) Clone() ServiceAccount {
	out := a
	out.Storage = make(map[Hash]StorageEntry, len(a.Storage))
	for k, v := range a.Storage {
		cp := append([]byte(nil), v.Value...)
		out.Storage[k] = StorageEntry{Value: cp}
	}
	return out
}

// Footprint computes (a_o, a_i): total stored bytes and item count.
func (a ServiceAccount) Footprint() (bytesTotal uint64, items uint64) {
	for _, v := range a.Storage {
		bytesTotal += uint64(len(v.Value))
		items++
	}
	return
}

// ThresholdBalance computes a_t from the account's current footprint
// (spec §3.2 invariant: "balance ≥ a_t after every committed write").
func (a ServiceAccount) ThresholdBalance() uint64 {
	bytesTotal, items := a.Footprint()
	return footprintBaseDeposit + footprintByteDeposit*bytesTotal + footprintItemDeposit*items
}

// ServiceAccounts is δ: ServiceId → ServiceAccount (spec §3.1).
type ServiceAccounts map[ServiceId]ServiceAccount

func (d ServiceAccounts) Clone() ServiceAccounts {
	out := make(ServiceAccounts, len(d))
	for id, acct := range d {
		out[id] = acct.Clone()
	}
	return out
}

// WriteStorageResult is the outcome of a write_storage host call attempt
// (spec §4.6 "write_storage policy").
type WriteStorageResult int

const (
	WriteStorageOK WriteStorageResult = iota
	WriteStorageFull
	WriteStorageNone // key absent, on delete
)

// WriteStorage applies spec §4.6's write_storage policy: compute the
// prospective footprint and threshold balance before mutating; if the
// threshold would exceed balance, return FULL without mutation. A
// zero-length value deletes the key.
func WriteStorage(acct *ServiceAccount, key Hash, value []byte) (WriteStorageResult, uint64, error) {
	if acct == nil {
		return WriteStorageFull, 0, fmt.Errorf("service_account: nil account")
	}
	prior, hadPrior := acct.Storage[key]
	priorLen := uint64(0)
	if hadPrior {
		priorLen = uint64(len(prior.Value))
	}

	trial := acct.Clone()
	if len(value) == 0 {
		delete(trial.Storage, key)
	} else {
		trial.Storage[key] = StorageEntry{Value: append([]byte(nil), value...)}
	}
	threshold := trial.ThresholdBalance()

	if threshold > acct.Balance {
		return WriteStorageFull, priorLen, nil
	}

	if len(value) == 0 {
		delete(acct.Storage, key)
		if !hadPrior {
			return WriteStorageNone, 0, nil
		}
		return WriteStorageOK, priorLen, nil
	}
	if acct.Storage == nil {
		acct.Storage = make(map[Hash]StorageEntry)
	}
	acct.Storage[key] = StorageEntry{Value: append([]byte(nil), value...)}
	return WriteStorageOK, priorLen, nil
}
