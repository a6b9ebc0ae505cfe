package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tramita_backend/internal/domain"
	"tramita_backend/platform/apperr"
)

func TestSweepAbortsWhenStoreUnreachable(t *testing.T) {
	fx := newFixture()
	e := fx.engine()
	e.health = healthDown{}

	_, err := e.RunSweep(context.Background(), t0)
	if err == nil {
		t.Fatal("sweep succeeded with the store down")
	}
	if apperr.GetKind(err) != apperr.KindStore {
		t.Fatalf("error kind = %v", apperr.GetKind(err))
	}
}

type healthDown struct{}

func (healthDown) Ping(context.Context) error { return errors.New("connection refused") }

func TestDispatchFailureDoesNotRetryReminder(t *testing.T) {
	fx := newFixture()
	fx.notifier.err = errors.New("channel down")
	contract := newSentContract(t0)
	fx.contracts.add(contract, ClientContact{Name: "Bruno", Phone: "+5511988880000"})
	e := fx.engine()

	res, err := e.RunSweep(context.Background(), t0.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	// The slot is consumed even though the send failed.
	if res.ContractReminders != 1 {
		t.Fatalf("reminder slot not counted: %+v", res)
	}
	if !fx.ledger.has(contract.ID, "D1") {
		t.Fatal("ledger mark missing after dispatch failure")
	}

	// Channel recovers; the same threshold is not retried.
	fx.notifier.err = nil
	res, _ = e.RunSweep(context.Background(), t0.Add(26*time.Hour))
	if res.ContractReminders != 0 {
		t.Fatalf("reminder retried after channel recovery: %+v", res)
	}
	if fx.notifier.count() != 0 {
		t.Fatalf("messages sent for a consumed slot: %d", fx.notifier.count())
	}
}

func TestDispatchFailureDoesNotStopOtherEntities(t *testing.T) {
	fx := newFixture()
	fx.notifier.err = errors.New("channel down")
	for i := 0; i < 3; i++ {
		fx.contracts.add(newSentContract(t0), ClientContact{Name: "X", Phone: "+5511900000000"})
	}
	e := fx.engine()

	res, _ := e.RunSweep(context.Background(), t0.Add(25*time.Hour))
	if res.ContractReminders != 3 {
		t.Fatalf("entities after the failing one were skipped: %+v", res)
	}
	if res.SkippedEntities != 0 {
		t.Fatalf("dispatch failures counted as skips: %+v", res)
	}
}

func TestRepeatedSweepsAreIdempotent(t *testing.T) {
	fx := newFixture()
	fx.leads.add(newLead(domain.LeadNew, t0))
	fx.contracts.add(newSentContract(t0), ClientContact{Name: "Bruno", Phone: "+5511988880000"})
	payment := newPendingPayment(t0.Add(-25*time.Hour), nil)
	fx.payments.add(payment, ClientContact{Name: "Carla", Phone: "+5511977770000"})
	e := fx.engine()

	now := t0.Add(25 * time.Hour)
	first, err := e.RunSweep(context.Background(), now)
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if first.TotalActions() == 0 {
		t.Fatal("first sweep did nothing")
	}

	for i := 0; i < 5; i++ {
		res, err := e.RunSweep(context.Background(), now)
		if err != nil {
			t.Fatalf("sweep %d: %v", i, err)
		}
		if res.TotalActions() != 0 {
			t.Fatalf("re-run produced actions: %+v", res)
		}
	}
}

func TestSweepResultSerialization(t *testing.T) {
	res := SweepResult{Timestamp: t0, WelcomeMessages: 2, ContractsCancelled: 1}
	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"timestamp", "welcomeMessages", "contractsCancelled", "paymentPreReminders", "skippedEntities"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("missing field %q in %s", key, raw)
		}
	}
}

func TestTotalActionsExcludesSkips(t *testing.T) {
	res := SweepResult{WelcomeMessages: 1, Archived: 2, SkippedEntities: 7}
	if got := res.TotalActions(); got != 3 {
		t.Fatalf("TotalActions = %d", got)
	}
}
