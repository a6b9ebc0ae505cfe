package engine

import (
	"context"
	"testing"
	"time"

	"tramita_backend/internal/domain"
	"tramita_backend/platform/apperr"

	"github.com/google/uuid"
)

func newRequirement(caseID uuid.UUID, deadline time.Time) domain.Requirement {
	return domain.Requirement{
		ID:               uuid.New(),
		CaseID:           caseID,
		Status:           domain.RequirementOpen,
		OfficialDeadline: deadline,
		InternalDeadline: deadline.Add(-3 * 24 * time.Hour),
		UpdatedAt:        t0,
	}
}

func TestRequirementReminderCadence(t *testing.T) {
	fx := newFixture()
	sc := newCase(domain.CaseExigenciaOrgao, t0)
	fx.cases.add(sc)
	req := newRequirement(sc.ID, t0.Add(30*24*time.Hour))
	fx.requirements.add(req)
	e := fx.engine()

	res, _ := e.RunSweep(context.Background(), t0.Add(4*24*time.Hour))
	if res.DocumentReminders != 0 {
		t.Fatalf("requirement reminder fired before the cadence: %+v", res)
	}

	res, _ = e.RunSweep(context.Background(), t0.Add(5*24*time.Hour))
	if res.DocumentReminders != 1 {
		t.Fatalf("requirement reminder did not fire: %+v", res)
	}
	if got := fx.notifier.byKind("requirement_reminder"); len(got) != 1 {
		t.Fatalf("requirement dispatches = %d", len(got))
	}
}

func TestRequirementUrgentNearInternalDeadline(t *testing.T) {
	fx := newFixture()
	sc := newCase(domain.CaseExigenciaOrgao, t0)
	fx.cases.add(sc)
	// Internal deadline within a day of the sweep forces the urgent cadence.
	req := newRequirement(sc.ID, t0.Add(5*24*time.Hour))
	fx.requirements.add(req)
	e := fx.engine()

	res, _ := e.RunSweep(context.Background(), t0.Add(30*time.Hour))
	if res.DocumentReminders != 1 {
		t.Fatalf("urgent requirement reminder did not fire: %+v", res)
	}
}

func TestRequestExtensionPushesDeadline(t *testing.T) {
	fx := newFixture()
	sc := newCase(domain.CaseExigenciaOrgao, t0)
	fx.cases.add(sc)
	deadline := t0.Add(10 * 24 * time.Hour)
	req := newRequirement(sc.ID, deadline)
	fx.requirements.add(req)
	e := fx.engine()

	got, err := e.RequestExtension(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("extension: %v", err)
	}
	if got.ExtensionCount != 1 {
		t.Fatalf("count = %d", got.ExtensionCount)
	}
	want := deadline.Add(5 * 24 * time.Hour)
	if !got.OfficialDeadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", got.OfficialDeadline, want)
	}
	if fx.notifier.count() != 0 {
		t.Fatalf("alert fired below the maximum: %v", fx.notifier.sent)
	}
}

func TestRequestExtensionAlertsOnceAtMaximum(t *testing.T) {
	fx := newFixture()
	sc := newCase(domain.CaseExigenciaOrgao, t0)
	fx.cases.add(sc)
	req := newRequirement(sc.ID, t0.Add(10*24*time.Hour))
	fx.requirements.add(req)
	e := fx.engine()

	for i := 0; i < 3; i++ {
		if _, err := e.RequestExtension(context.Background(), req.ID); err != nil {
			t.Fatalf("extension %d: %v", i+1, err)
		}
	}
	if got := fx.notifier.byKind("requirement_max_extensions"); len(got) != 1 {
		t.Fatalf("admin alert count = %d", len(got))
	}
	if !fx.ledger.has(req.ID, "requirement_max_extensions") {
		t.Fatal("max_extensions slot not consumed")
	}

	// A fourth extension still succeeds by default and does not re-alert.
	got, err := e.RequestExtension(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("fourth extension: %v", err)
	}
	if got.ExtensionCount != 4 {
		t.Fatalf("count = %d", got.ExtensionCount)
	}
	if alerts := fx.notifier.byKind("requirement_max_extensions"); len(alerts) != 1 {
		t.Fatalf("alert repeated: %d", len(alerts))
	}
}

func TestRequestExtensionHardCap(t *testing.T) {
	fx := newFixture()
	fx.settings["requirement_extension_hard_cap"] = "1"
	sc := newCase(domain.CaseExigenciaOrgao, t0)
	fx.cases.add(sc)
	req := newRequirement(sc.ID, t0.Add(10*24*time.Hour))
	fx.requirements.add(req)
	e := fx.engine()

	for i := 0; i < 3; i++ {
		if _, err := e.RequestExtension(context.Background(), req.ID); err != nil {
			t.Fatalf("extension %d: %v", i+1, err)
		}
	}
	_, err := e.RequestExtension(context.Background(), req.ID)
	if err == nil {
		t.Fatal("fourth extension succeeded under the hard cap")
	}
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("error kind = %v", apperr.GetKind(err))
	}
}

func TestRequestExtensionRejectsClosed(t *testing.T) {
	fx := newFixture()
	sc := newCase(domain.CaseExigenciaOrgao, t0)
	fx.cases.add(sc)
	req := newRequirement(sc.ID, t0.Add(10*24*time.Hour))
	req.Status = domain.RequirementClosed
	fx.requirements.add(req)
	e := fx.engine()

	if _, err := e.RequestExtension(context.Background(), req.ID); err == nil {
		t.Fatal("extension succeeded on a closed requirement")
	}
}
