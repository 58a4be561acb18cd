package core

import "testing"

func TestValidateAssurancesExtrinsicSupermajority(t *testing.T) {
	avail := AvailabilityState{{Occupied: true}, {}}
	ctx := AssuranceContext{
		Params:       TinyParams(),
		Availability: avail,
	}
	bitfield := []byte{0b00000001}
	var assurances []Assurance
	for i := 0; i < 5; i++ { // TinyParams V=6, supermajority threshold = (2*6+2)/3+1 = 5
		assurances = append(assurances, Assurance{Validator: ValidatorIndex(i), Bitfield: bitfield})
	}
	available, err := ValidateAssurancesExtrinsic(ctx, assurances, 6)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !available[0] {
		t.Fatalf("expected core 0 to reach supermajority")
	}
	if available[1] {
		t.Fatalf("expected core 1 (unoccupied) to remain unavailable")
	}
}

func TestValidateAssurancesExtrinsicBadBitfieldLength(t *testing.T) {
	ctx := AssuranceContext{Params: TinyParams(), Availability: AvailabilityState{{}}}
	_, err := ValidateAssurancesExtrinsic(ctx, []Assurance{{Validator: 0, Bitfield: []byte{0, 0}}}, 6)
	if err != ErrAssuranceBadBitfieldLen {
		t.Fatalf("expected ErrAssuranceBadBitfieldLen, got %v", err)
	}
}

func TestExpireTimedOutReports(t *testing.T) {
	state := AvailabilityState{{Occupied: true, GuaranteeSlot: 1}}
	out := ExpireTimedOutReports(state, 100, 5)
	if out[0].Occupied {
		t.Fatalf("expected stale report to be evicted")
	}
}

func TestAssignPendingReportRejectsAlreadyOccupied(t *testing.T) {
	state := AvailabilityState{{Occupied: true}}
	_, err := AssignPendingReport(state, 0, WorkReport{}, nil, 1)
	if err == nil {
		t.Fatalf("expected rejection of already-occupied core")
	}
}
