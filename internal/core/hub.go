package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/store"
)

const saveTimeout = 5 * time.Second

// Hub is the single serialization point for canvas mutations. One goroutine
// (Run) owns the grid, the cooldown map, and the session registry, so the
// validate, cooldown-check, apply and broadcast steps of a placement never
// interleave with another placement, and every session observes broadcasts in
// apply order.
//
// Identity verification does not go through the hub; the transport verifies
// tokens concurrently and only sends the resulting identity here.
type Hub struct {
	grid      *Grid
	cooldowns *CooldownTracker
	store     store.Store
	log       *zerolog.Logger

	register   chan *Session
	unregister chan *Session
	commands   chan *Command

	sessions map[*Session]struct{}
	done     chan struct{}

	// now is swappable in tests.
	now func() time.Time
}

// NewHub constructs a hub owning the given grid. A nil store disables
// persistence; a nil logger disables logging.
func NewHub(grid *Grid, cooldowns *CooldownTracker, st store.Store, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		grid:       grid,
		cooldowns:  cooldowns,
		store:      st,
		log:        logger,
		// Registration channels are unbuffered so a caller's register and
		// unregister are processed in the order they were sent.
		register:   make(chan *Session),
		unregister: make(chan *Session),
		commands:   make(chan *Command, 64),
		sessions:   make(map[*Session]struct{}),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// RegisterSession adds a session to the broadcast registry.
func (h *Hub) RegisterSession(s *Session) {
	select {
	case h.register <- s:
	case <-h.done:
	}
}

// UnregisterSession removes a session; it stops receiving broadcasts and its
// state becomes terminal. Never blocks on other sessions' in-flight work.
func (h *Hub) UnregisterSession(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Submit queues a command for the hub goroutine.
func (h *Hub) Submit(cmd *Command) {
	select {
	case h.commands <- cmd:
	case <-h.done:
	}
}

// Done is closed once Run has flushed and returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run processes registrations and commands until ctx is cancelled, then
// flushes a final snapshot.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case s := <-h.register:
			h.sessions[s] = struct{}{}
			h.log.Debug().Str("session_id", s.ID).Msg("session registered")
		case s := <-h.unregister:
			h.discard(s)
			h.log.Debug().Str("session_id", s.ID).Msg("session unregistered")
		case cmd := <-h.commands:
			h.handle(cmd)
		case <-ctx.Done():
			h.flush()
			return
		}
	}
}

func (h *Hub) handle(cmd *Command) {
	switch cmd.Kind {
	case CommandAttachIdentity:
		h.handleAttachIdentity(cmd)
	case CommandRequestGrid:
		h.reply(cmd.Session, &Event{Kind: EventGridSnapshot, Grid: h.grid.Snapshot()})
	case CommandPlacePixel:
		h.handlePlacePixel(cmd)
	}
}

// reply delivers a direct response (snapshot, ack, error, auth result) to one
// session. Unlike broadcasts these are never silently dropped: a session too
// backed up to take its own reply is discarded so its writer observes the
// failure and closes the connection.
func (h *Hub) reply(s *Session, ev *Event) {
	if s.trySend(ev) {
		return
	}
	h.log.Warn().Str("session_id", s.ID).Msg("reply buffer overflow, discarding session")
	h.discard(s)
}

// discard removes a session from the registry and closes it. Safe to call
// more than once for the same session; only the hub goroutine calls it.
func (h *Hub) discard(s *Session) {
	if s.State == StateDisconnected {
		return
	}
	s.State = StateDisconnected
	delete(h.sessions, s)
	close(s.Closed)
}

// handleAttachIdentity transitions the session to authenticated.
// Re-authentication simply replaces the stored identity.
func (h *Hub) handleAttachIdentity(cmd *Command) {
	sess := cmd.Session
	sess.Identity = cmd.Identity
	sess.State = StateAuthenticated
	h.reply(sess, &Event{Kind: EventAuthResult})
	h.log.Info().
		Str("session_id", sess.ID).
		Str("user_id", cmd.Identity.Subject).
		Msg("session authenticated")
}

func (h *Hub) handlePlacePixel(cmd *Command) {
	sess := cmd.Session

	if sess.State != StateAuthenticated || sess.Identity == nil {
		h.reply(sess, &Event{Kind: EventError, Error: coreError(
			ErrCodeNotAuthenticated, "not authenticated, please log in")})
		return
	}

	if cerr := ValidatePlacement(cmd.X, cmd.Y, h.grid.Size(), cmd.Color); cerr != nil {
		h.reply(sess, &Event{Kind: EventError, Error: cerr})
		return
	}

	now := h.now()
	userID := sess.Identity.Subject

	allowed, wait := h.cooldowns.Check(userID, now)
	if !allowed {
		cerr := coreError(ErrCodeRateLimited,
			fmt.Sprintf("rate limit exceeded, wait %dms", wait.Milliseconds()))
		cerr.RetryAfter = wait
		h.reply(sess, &Event{Kind: EventError, Error: cerr})
		return
	}

	prev, err := h.grid.Apply(cmd.X, cmd.Y, cmd.Color)
	if err != nil {
		h.reply(sess, &Event{Kind: EventError, Error: coreError(ErrCodeOutOfBounds, err.Error())})
		return
	}
	h.cooldowns.Record(userID, now)

	// Durability is best-effort per placement; a failed save never rolls back
	// the in-memory cell or the broadcast.
	if h.store != nil {
		go func(x, y int, color string) {
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			defer cancel()
			if err := h.store.SaveCell(ctx, x, y, color); err != nil {
				h.log.Error().Err(err).Int("x", x).Int("y", y).Msg("save cell failed")
			}
		}(cmd.X, cmd.Y, cmd.Color)
	}

	update := &Event{Kind: EventPixelUpdate, X: cmd.X, Y: cmd.Y, Color: cmd.Color}
	for s := range h.sessions {
		// Broadcasts tolerate slow consumers; their own direct replies do not.
		s.trySend(update)
	}
	h.reply(sess, &Event{
		Kind:         EventPixelPlaced,
		CooldownEnds: now.Add(h.cooldowns.Interval()).UnixMilli(),
	})

	h.log.Debug().
		Str("user_id", userID).
		Int("x", cmd.X).
		Int("y", cmd.Y).
		Str("color", cmd.Color).
		Str("prev", prev).
		Msg("pixel placed")
}

// flush persists a final full snapshot on shutdown.
func (h *Hub) flush() {
	if h.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := h.store.SaveSnapshot(ctx, h.grid.Snapshot()); err != nil {
		h.log.Error().Err(err).Msg("flush snapshot failed")
		return
	}
	h.log.Info().Msg("canvas snapshot flushed")
}
