package core

import "testing"

func baseGuaranteesContext() GuaranteesContext {
	params := TinyParams()
	history := RecentHistory{}
	history = history.Append(hashOf(1), Hash{}, params.RecentHistorySize)
	return GuaranteesContext{
		Params:              params,
		RecentHistory:       history,
		Accounts:            ServiceAccounts{1: {CodeHash: Hash{9}}},
		Assignment:          []CoreIndex{0, 0},
		Offenders:           map[ValidatorIndex]struct{}{},
		AccumulationHistory: map[Hash]struct{}{},
		CurrentSlot:         10,
		CoreEngagedUntil:    []Slot{0, 0},
	}
}

func wellFormedGuarantee() Guarantee {
	return Guarantee{
		Report: WorkReport{
			PackageSpec: PackageSpec{Hash: hashOf(20)},
			Context:     ReportContext{Anchor: hashOf(1)},
			CoreIndex:   0,
			Results:     []WorkResult{{ServiceId: 1, CodeHash: Hash{9}, AccumulateGas: 10}},
		},
		Slot: 10,
		Signatures: []GuaranteeSignature{
			{Validator: 0, Signature: []byte("a")},
			{Validator: 1, Signature: []byte("b")},
		},
	}
}

func TestValidateGuaranteesExtrinsicAccepts(t *testing.T) {
	ctx := baseGuaranteesContext()
	out, err := ValidateGuaranteesExtrinsic(ctx, []Guarantee{wellFormedGuarantee()})
	if err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one accepted report")
	}
}

func TestValidateGuaranteesExtrinsicRejectsUnknownService(t *testing.T) {
	ctx := baseGuaranteesContext()
	g := wellFormedGuarantee()
	g.Report.Results[0].ServiceId = 999
	_, err := ValidateGuaranteesExtrinsic(ctx, []Guarantee{g})
	if err != ErrReportUnknownService {
		t.Fatalf("expected ErrReportUnknownService, got %v", err)
	}
}

func TestValidateGuaranteesExtrinsicRejectsBadGuarantor(t *testing.T) {
	ctx := baseGuaranteesContext()
	g := wellFormedGuarantee()
	g.Signatures[0].Validator = 1 // validator 1 assigned to core 0 too, but let's misassign core
	ctx.Assignment = []CoreIndex{1, 1}
	_, err := ValidateGuaranteesExtrinsic(ctx, []Guarantee{g})
	if err != ErrReportBadGuarantor {
		t.Fatalf("expected ErrReportBadGuarantor, got %v", err)
	}
}

func TestValidateGuaranteesExtrinsicRejectsOffender(t *testing.T) {
	ctx := baseGuaranteesContext()
	ctx.Offenders[0] = struct{}{}
	g := wellFormedGuarantee()
	_, err := ValidateGuaranteesExtrinsic(ctx, []Guarantee{g})
	if err != ErrReportOffenderGuarantor {
		t.Fatalf("expected ErrReportOffenderGuarantor, got %v", err)
	}
}

func TestValidateGuaranteesExtrinsicRejectsDuplicatePackage(t *testing.T) {
	ctx := baseGuaranteesContext()
	ctx.Assignment = []CoreIndex{0, 0, 1, 1}
	g1 := wellFormedGuarantee()
	g2 := wellFormedGuarantee()
	g2.Report.CoreIndex = 1
	g2.Signatures = []GuaranteeSignature{{Validator: 2}, {Validator: 3}}

	_, err := ValidateGuaranteesExtrinsic(ctx, []Guarantee{g1, g2})
	if err != ErrReportDuplicatePackage {
		t.Fatalf("expected ErrReportDuplicatePackage, got %v", err)
	}
}

func TestValidateGuaranteesExtrinsicRejectsOutOfOrderCore(t *testing.T) {
	ctx := baseGuaranteesContext()
	ctx.Assignment = []CoreIndex{1, 1, 0, 0}
	g1 := wellFormedGuarantee()
	g1.Report.CoreIndex = 1
	g1.Signatures = []GuaranteeSignature{{Validator: 0}, {Validator: 1}}
	g2 := wellFormedGuarantee()
	g2.Report.PackageSpec.Hash = hashOf(21)
	g2.Report.CoreIndex = 0
	g2.Signatures = []GuaranteeSignature{{Validator: 2}, {Validator: 3}}

	_, err := ValidateGuaranteesExtrinsic(ctx, []Guarantee{g1, g2})
	if err != ErrReportOutOfOrderGuarantee {
		t.Fatalf("expected ErrReportOutOfOrderGuarantee, got %v", err)
	}
}
