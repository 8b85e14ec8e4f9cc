package workflow

import "testing"

func TestLedgerDecrementStopsAtZero(t *testing.T) {
	teams := []TeamSlot{{TeamID: "team-photo", Target: 1}}
	ledger := NewTeamTargetLedger(&teams)

	if err := ledger.Decrement("team-photo"); err != nil {
		t.Fatalf("first decrement: %v", err)
	}
	if err := ledger.Decrement("team-photo"); !HasCode(err, CodeCapacity) {
		t.Fatalf("second decrement: err = %v, want %s", err, CodeCapacity)
	}
	if got := ledger.Remaining("team-photo"); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}

func TestLedgerUnknownTeam(t *testing.T) {
	teams := []TeamSlot{}
	ledger := NewTeamTargetLedger(&teams)

	if got := ledger.Remaining("team-photo"); got != 0 {
		t.Errorf("remaining = %d, want 0 for an unconfigured team", got)
	}
	if err := ledger.Decrement("team-photo"); !HasCode(err, CodeCapacity) {
		t.Errorf("decrement: err = %v, want %s", err, CodeCapacity)
	}
}

func TestLedgerIncrementCreatesSlot(t *testing.T) {
	teams := []TeamSlot{}
	ledger := NewTeamTargetLedger(&teams)

	ledger.Increment("team-photo")
	if got := ledger.Remaining("team-photo"); got != 1 {
		t.Fatalf("remaining = %d, want 1", got)
	}
	ledger.Increment("team-photo")
	if got := ledger.Remaining("team-photo"); got != 2 {
		t.Fatalf("remaining = %d, want 2", got)
	}
}

func TestLedgerSetRemaining(t *testing.T) {
	teams := []TeamSlot{{TeamID: "team-photo", Target: 2}}
	ledger := NewTeamTargetLedger(&teams)

	ledger.SetRemaining("team-photo", 5)
	if got := ledger.Remaining("team-photo"); got != 5 {
		t.Errorf("remaining = %d, want 5", got)
	}
	ledger.SetRemaining("team-fc", 1)
	if got := ledger.Remaining("team-fc"); got != 1 {
		t.Errorf("remaining = %d, want the slot created", got)
	}
	ledger.SetRemaining("team-photo", -3)
	if got := ledger.Remaining("team-photo"); got != 0 {
		t.Errorf("remaining = %d, want the negative clamped to 0", got)
	}
}
