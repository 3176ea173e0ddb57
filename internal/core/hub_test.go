package core

import (
	"context"
	"testing"
	"time"
)

func TestHubPlaceRequiresAuthentication(t *testing.T) {
	st := newFakeStore()
	hub, _ := startHub(t, st)

	alice := NewSession("a")
	bob := NewSession("b")
	hub.RegisterSession(alice)
	hub.RegisterSession(bob)

	hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: 0, Y: 0, Color: "#FF0000"})

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotAuthenticated {
		t.Fatalf("expected not_authenticated error, got %+v", ev)
	}

	// Nothing broadcast, nothing persisted, grid untouched.
	mustNoEvent(t, bob.Events)
	if cells := st.savedCells(); len(cells) != 0 {
		t.Fatalf("unexpected persisted cells: %+v", cells)
	}

	hub.Submit(&Command{Kind: CommandRequestGrid, Session: bob})
	snap := mustEvent(t, bob.Events, EventGridSnapshot)
	if snap.Grid[0][0] != "#FFFFFF" {
		t.Fatalf("grid changed by unauthenticated placement: %q", snap.Grid[0][0])
	}
}

func TestHubAcceptedPlacementBroadcastsAndAcks(t *testing.T) {
	st := newFakeStore()
	hub, clock := startHub(t, st)

	alice := authedSession(t, hub, "a", "user-1")
	bob := NewSession("b")
	hub.RegisterSession(bob)

	hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: 2, Y: 1, Color: "#FF0000"})

	update := mustEvent(t, bob.Events, EventPixelUpdate)
	if update.X != 2 || update.Y != 1 || update.Color != "#FF0000" {
		t.Fatalf("unexpected broadcast: %+v", update)
	}

	// The submitter sees the broadcast and a private ack with the cooldown end.
	mustEvent(t, alice.Events, EventPixelUpdate)
	ack := mustEvent(t, alice.Events, EventPixelPlaced)
	wantEnds := clock.Now().Add(time.Second).UnixMilli()
	if ack.CooldownEnds != wantEnds {
		t.Fatalf("cooldownEnds = %d, want %d", ack.CooldownEnds, wantEnds)
	}

	// The ack is private: bob only ever saw the broadcast.
	mustNoEvent(t, bob.Events)

	st.waitForSave(t)
	cells := st.savedCells()
	if len(cells) != 1 || cells[0] != (savedCell{x: 2, y: 1, color: "#FF0000"}) {
		t.Fatalf("unexpected persisted cells: %+v", cells)
	}
}

func TestHubCooldownScenario(t *testing.T) {
	hub, clock := startHub(t, nil)

	alice := authedSession(t, hub, "a", "user-1")

	// t=0: accepted.
	hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: 0, Y: 0, Color: "#FF0000"})
	mustEvent(t, alice.Events, EventPixelPlaced)

	// t=500ms: rejected with the remaining wait.
	clock.Advance(500 * time.Millisecond)
	hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: 1, Y: 1, Color: "#00FF00"})
	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeRateLimited {
		t.Fatalf("expected rate_limited error, got %+v", ev)
	}
	if ev.Error.RetryAfter != 500*time.Millisecond {
		t.Fatalf("unexpected retry-after: %v", ev.Error.RetryAfter)
	}

	// t=1000ms exactly: accepted again.
	clock.Advance(500 * time.Millisecond)
	hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: 1, Y: 1, Color: "#00FF00"})
	mustEvent(t, alice.Events, EventPixelPlaced)

	hub.Submit(&Command{Kind: CommandRequestGrid, Session: alice})
	snap := mustEvent(t, alice.Events, EventGridSnapshot)
	if snap.Grid[0][0] != "#FF0000" || snap.Grid[1][1] != "#00FF00" {
		t.Fatalf("unexpected final grid: %q %q", snap.Grid[0][0], snap.Grid[1][1])
	}
}

func TestHubRejectedPlacementsLeaveStateUntouched(t *testing.T) {
	st := newFakeStore()
	hub, _ := startHub(t, st)

	alice := authedSession(t, hub, "a", "user-1")
	bob := NewSession("b")
	hub.RegisterSession(bob)

	hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: 1, Y: 1, Color: "red"})
	if ev := mustEvent(t, alice.Events, EventError); ev.Error.Code != ErrCodeBadColor {
		t.Fatalf("expected bad_color, got %+v", ev.Error)
	}

	hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: 4, Y: 0, Color: "#000000"})
	if ev := mustEvent(t, alice.Events, EventError); ev.Error.Code != ErrCodeOutOfBounds {
		t.Fatalf("expected out_of_bounds, got %+v", ev.Error)
	}

	mustNoEvent(t, bob.Events)
	if cells := st.savedCells(); len(cells) != 0 {
		t.Fatalf("rejected placements were persisted: %+v", cells)
	}

	// Rejections must not consume the cooldown: a valid placement right after
	// is still accepted.
	hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: 1, Y: 1, Color: "#123456"})
	mustEvent(t, alice.Events, EventPixelPlaced)
}

func TestHubStoreFailureDoesNotRevertPlacement(t *testing.T) {
	st := newFakeStore()
	st.failSaves = true
	hub, _ := startHub(t, st)

	alice := authedSession(t, hub, "a", "user-1")

	hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: 0, Y: 3, Color: "#AA00BB"})
	mustEvent(t, alice.Events, EventPixelUpdate)
	mustEvent(t, alice.Events, EventPixelPlaced)
	st.waitForSave(t)

	hub.Submit(&Command{Kind: CommandRequestGrid, Session: alice})
	snap := mustEvent(t, alice.Events, EventGridSnapshot)
	if snap.Grid[3][0] != "#AA00BB" {
		t.Fatalf("in-memory state rolled back after store failure: %q", snap.Grid[3][0])
	}
}

func TestHubReauthenticationReplacesIdentity(t *testing.T) {
	hub, _ := startHub(t, nil)

	alice := authedSession(t, hub, "a", "user-1")

	hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: 0, Y: 0, Color: "#FF0000"})
	mustEvent(t, alice.Events, EventPixelPlaced)

	// Re-authenticating as a different user swaps the cooldown key, so the
	// next placement is not throttled by user-1's window.
	hub.Submit(&Command{Kind: CommandAttachIdentity, Session: alice, Identity: testIdentity("user-2")})
	mustEvent(t, alice.Events, EventAuthResult)

	hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: 1, Y: 0, Color: "#00FF00"})
	mustEvent(t, alice.Events, EventPixelPlaced)
}

func TestHubLastWriteWinsPerCell(t *testing.T) {
	hub, clock := startHub(t, nil)

	alice := authedSession(t, hub, "a", "user-1")

	colors := []string{"#111111", "#222222", "#333333"}
	for _, color := range colors {
		hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: 2, Y: 2, Color: color})
		mustEvent(t, alice.Events, EventPixelPlaced)
		clock.Advance(time.Second)
	}

	hub.Submit(&Command{Kind: CommandRequestGrid, Session: alice})
	snap := mustEvent(t, alice.Events, EventGridSnapshot)
	if snap.Grid[2][2] != "#333333" {
		t.Fatalf("cell holds %q, want last accepted color", snap.Grid[2][2])
	}
}

func TestHubUnregisterStopsBroadcasts(t *testing.T) {
	hub, _ := startHub(t, nil)

	alice := authedSession(t, hub, "a", "user-1")
	bob := NewSession("b")
	hub.RegisterSession(bob)
	hub.UnregisterSession(bob)

	hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: 0, Y: 0, Color: "#FF0000"})
	mustEvent(t, alice.Events, EventPixelPlaced)

	mustNoEvent(t, bob.Events)
	if bob.State != StateDisconnected {
		t.Fatalf("unregistered session state = %v, want disconnected", bob.State)
	}
}

func TestHubDiscardsSessionWhenReplyOverflows(t *testing.T) {
	hub, clock := startHub(t, nil)

	alice := authedSession(t, hub, "a", "user-1")

	// bob never drains his events, so broadcasts saturate his buffer.
	bob := NewSession("b")
	hub.RegisterSession(bob)

	for i := 0; i < cap(bob.Events); i++ {
		hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: i % 4, Y: (i / 4) % 4, Color: "#123456"})
		mustEvent(t, alice.Events, EventPixelPlaced)
		clock.Advance(time.Second)
	}

	// A snapshot requested now cannot fit. It must not vanish silently: the
	// hub cuts the session off so the writer observes the failure.
	hub.Submit(&Command{Kind: CommandRequestGrid, Session: bob})

	// Barrier: once alice's next ack arrives, bob's request was processed.
	hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: 0, Y: 0, Color: "#654321"})
	mustEvent(t, alice.Events, EventPixelPlaced)

	select {
	case <-bob.Closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("session with overflowed reply buffer was not discarded")
	}
	if bob.State != StateDisconnected {
		t.Fatalf("discarded session state = %v, want disconnected", bob.State)
	}

	// Only the broadcasts that fit are queued; the barrier placement after the
	// discard never reached bob.
	for len(bob.Events) > 0 {
		if ev := <-bob.Events; ev.Kind != EventPixelUpdate || ev.Color != "#123456" {
			t.Fatalf("unexpected queued event: %+v", ev)
		}
	}
}

func TestHubReplyDeliveredToDrainingSession(t *testing.T) {
	hub, clock := startHub(t, nil)

	alice := authedSession(t, hub, "a", "user-1")
	bob := NewSession("b")
	hub.RegisterSession(bob)

	// bob keeps up with the broadcast stream, so his snapshot request must be
	// answered rather than dropped.
	for i := 0; i < 40; i++ {
		hub.Submit(&Command{Kind: CommandPlacePixel, Session: alice, X: i % 4, Y: (i / 4) % 4, Color: "#00AAFF"})
		mustEvent(t, alice.Events, EventPixelPlaced)
		mustEvent(t, bob.Events, EventPixelUpdate)
		clock.Advance(time.Second)
	}

	hub.Submit(&Command{Kind: CommandRequestGrid, Session: bob})
	snap := mustEvent(t, bob.Events, EventGridSnapshot)
	if snap.Grid[0][0] != "#00AAFF" {
		t.Fatalf("unexpected snapshot cell: %q", snap.Grid[0][0])
	}

	select {
	case <-bob.Closed:
		t.Fatalf("draining session was discarded")
	default:
	}
}

func TestHubFlushesSnapshotOnStop(t *testing.T) {
	st := newFakeStore()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(NewGrid(4, "#FFFFFF"), NewCooldownTracker(time.Second), st, nil)
	go hub.Run(ctx)

	cancel()
	select {
	case <-hub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	if n := st.snapshotCount(); n != 1 {
		t.Fatalf("snapshot saved %d times, want 1", n)
	}
}
