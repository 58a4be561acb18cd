package core

import "testing"

func TestWriteStorageRejectsWhenBelowThreshold(t *testing.T) {
	acct := &ServiceAccount{Balance: 50, Storage: map[Hash]StorageEntry{}}
	result, _, err := WriteStorage(acct, hashOf(1), make([]byte, 1000))
	if err != nil {
		t.Fatalf("write storage: %v", err)
	}
	if result != WriteStorageFull {
		t.Fatalf("expected WriteStorageFull when threshold exceeds balance")
	}
	if len(acct.Storage) != 0 {
		t.Fatalf("expected no mutation on rejected write")
	}
}

func TestWriteStorageSucceedsWithinBudget(t *testing.T) {
	acct := &ServiceAccount{Balance: 10_000, Storage: map[Hash]StorageEntry{}}
	result, priorLen, err := WriteStorage(acct, hashOf(1), []byte("hello"))
	if err != nil {
		t.Fatalf("write storage: %v", err)
	}
	if result != WriteStorageOK {
		t.Fatalf("expected WriteStorageOK, got %v", result)
	}
	if priorLen != 0 {
		t.Fatalf("expected zero prior length for a fresh key")
	}
	if string(acct.Storage[hashOf(1)].Value) != "hello" {
		t.Fatalf("expected stored value to persist")
	}
}

func TestWriteStorageDeleteReturnsNoneWhenAbsent(t *testing.T) {
	acct := &ServiceAccount{Balance: 10_000, Storage: map[Hash]StorageEntry{}}
	result, _, err := WriteStorage(acct, hashOf(1), nil)
	if err != nil {
		t.Fatalf("write storage: %v", err)
	}
	if result != WriteStorageNone {
		t.Fatalf("expected WriteStorageNone for deleting an absent key")
	}
}

func TestThresholdBalanceAccountsForFootprint(t *testing.T) {
	acct := ServiceAccount{Storage: map[Hash]StorageEntry{
		hashOf(1): {Value: []byte("abcd")},
	}}
	got := acct.ThresholdBalance()
	want := footprintBaseDeposit + footprintByteDeposit*4 + footprintItemDeposit*1
	if got != want {
		t.Fatalf("threshold balance: got %d want %d", got, want)
	}
}
