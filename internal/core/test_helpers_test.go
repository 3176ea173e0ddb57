package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/identity"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got kind %v", ev.Kind)
	case <-time.After(100 * time.Millisecond):
	}
}

// fakeStore records saves and optionally fails them.
type fakeStore struct {
	mu        sync.Mutex
	cells     []savedCell
	snapshots int
	failSaves bool
	saved     chan struct{}
}

type savedCell struct {
	x, y  int
	color string
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(chan struct{}, 16)}
}

func (f *fakeStore) LoadSnapshot(context.Context) ([][]string, error) {
	return nil, errNotFoundForTest
}

func (f *fakeStore) SaveSnapshot(_ context.Context, _ [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots++
	return nil
}

func (f *fakeStore) SaveCell(_ context.Context, x, y int, color string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { f.saved <- struct{}{} }()
	if f.failSaves {
		return errSaveFailedForTest
	}
	f.cells = append(f.cells, savedCell{x: x, y: y, color: color})
	return nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) savedCells() []savedCell {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]savedCell, len(f.cells))
	copy(out, f.cells)
	return out
}

func (f *fakeStore) snapshotCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshots
}

func (f *fakeStore) waitForSave(t *testing.T) {
	t.Helper()
	select {
	case <-f.saved:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a cell save")
	}
}

var (
	errNotFoundForTest   = errForTest("not found")
	errSaveFailedForTest = errForTest("save failed")
)

type errForTest string

func (e errForTest) Error() string { return string(e) }

// fakeClock lets tests advance the hub's notion of now between commands.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{t: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testIdentity(sub string) *identity.Identity {
	return &identity.Identity{Subject: sub, Name: "user " + sub}
}

// startHub runs a hub over a fresh 4×4 white grid with a 1s cooldown.
func startHub(t *testing.T, st *fakeStore) (*Hub, *fakeClock) {
	t.Helper()

	clock := newFakeClock(time.Unix(1_700_000_000, 0))
	grid := NewGrid(4, "#FFFFFF")
	hub := NewHub(grid, NewCooldownTracker(time.Second), storeOrNil(st), nil)
	hub.now = clock.Now

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return hub, clock
}

// storeOrNil avoids handing the hub a typed-nil interface value.
func storeOrNil(st *fakeStore) store.Store {
	if st == nil {
		return nil
	}
	return st
}

func authedSession(t *testing.T, hub *Hub, id, userID string) *Session {
	t.Helper()

	sess := NewSession(id)
	hub.RegisterSession(sess)
	hub.Submit(&Command{Kind: CommandAttachIdentity, Session: sess, Identity: testIdentity(userID)})
	ev := mustEvent(t, sess.Events, EventAuthResult)
	if ev.Error != nil {
		t.Fatalf("unexpected auth failure: %+v", ev.Error)
	}
	return sess
}
