package core

import "testing"

func TestPartitionSplitsReadyAndBlocked(t *testing.T) {
	ready := WorkReportAndDeps{Report: WorkReport{PackageSpec: PackageSpec{Hash: hashOf(1)}}, Dependencies: map[Hash]struct{}{}}
	blocked := WorkReportAndDeps{Report: WorkReport{PackageSpec: PackageSpec{Hash: hashOf(2)}}, Dependencies: map[Hash]struct{}{hashOf(99): {}}}

	r, b := Partition([]WorkReportAndDeps{ready, blocked})
	if len(r) != 1 || r[0].Report.PackageSpec.Hash != hashOf(1) {
		t.Fatalf("expected one ready report")
	}
	if len(b) != 1 || b[0].Report.PackageSpec.Hash != hashOf(2) {
		t.Fatalf("expected one blocked report")
	}
}

func TestFilterResolvesDependency(t *testing.T) {
	dep := hashOf(5)
	blocked := WorkReportAndDeps{Report: WorkReport{PackageSpec: PackageSpec{Hash: hashOf(2)}}, Dependencies: map[Hash]struct{}{dep: {}}}

	stillPending, newlyReady := Filter([]WorkReportAndDeps{blocked}, dep)
	if len(stillPending) != 0 {
		t.Fatalf("expected dependency to clear")
	}
	if len(newlyReady) != 1 {
		t.Fatalf("expected report to become ready")
	}
}

func TestDrainCascadesAcrossEmittedReports(t *testing.T) {
	first := hashOf(1)
	second := WorkReportAndDeps{
		Report:       WorkReport{PackageSpec: PackageSpec{Hash: hashOf(2)}},
		Dependencies: map[Hash]struct{}{first: {}},
	}
	third := WorkReportAndDeps{
		Report:       WorkReport{PackageSpec: PackageSpec{Hash: hashOf(3)}},
		Dependencies: map[Hash]struct{}{hashOf(2): {}},
	}

	q := AccumulationQueue{Pending: []WorkReportAndDeps{second, third}}
	nextQueue, emitted := q.Drain([]Hash{first})

	if len(emitted) != 2 {
		t.Fatalf("expected both second and third to emit transitively, got %d", len(emitted))
	}
	if len(nextQueue.Pending) != 0 {
		t.Fatalf("expected queue to drain fully, %d remain", len(nextQueue.Pending))
	}
}

func TestEnqueueSplitsImmediatelyReady(t *testing.T) {
	q := AccumulationQueue{}
	freed := []WorkReportAndDeps{
		{Report: WorkReport{PackageSpec: PackageSpec{Hash: hashOf(1)}}, Dependencies: map[Hash]struct{}{}},
	}
	next, ready := q.Enqueue(freed)
	if len(ready) != 1 {
		t.Fatalf("expected immediately-ready report")
	}
	if len(next.Pending) != 0 {
		t.Fatalf("expected no pending entries")
	}
}
