package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"slices"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/core"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/identity"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/proto"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to core.Session.
type WSHandler struct {
	hub      *core.Hub
	verifier identity.Verifier
	origins  []string
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, verifier identity.Verifier, origins []string, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, verifier: verifier, origins: origins, log: logger}
}

func (h *WSHandler) acceptOptions() *websocket.AcceptOptions {
	if slices.Contains(h.origins, "*") {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return &websocket.AcceptOptions{OriginPatterns: h.origins}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	session := core.NewSession(utils.NewID())
	h.hub.RegisterSession(session)
	defer h.hub.UnregisterSession(session)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	if errors.Is(err, errSessionDiscarded) {
		h.log.Warn().Str("session_id", session.ID).Msg("session too slow, closing")
		conn.Close(websocket.StatusTryAgainLater, "event backlog overflow")
		return
	}

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			h.log.Debug().Err(err).Str("session_id", session.ID).Msg("read ws inbound")
			return err
		}

		if inbound.Type == proto.InboundTypeAuthenticate {
			if err := h.handleAuthenticate(ctx, session, inbound.Data); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr := inboundToCommand(session, inbound)
		if protoErr != nil {
			if err := queueEvent(session, &core.Event{
				Kind:  core.EventError,
				Error: &core.CoreError{Code: protoErr.Code, Message: protoErr.Message},
			}); err != nil {
				return err
			}
			continue
		}
		h.hub.Submit(cmd)
	}
}

// handleAuthenticate verifies the token on the connection's own goroutine, so
// many sessions can authenticate in parallel without touching the hub. Only a
// successful verification is forwarded to the hub; failures are reported to
// this session alone and leave its state untouched.
func (h *WSHandler) handleAuthenticate(ctx context.Context, session *core.Session, data json.RawMessage) error {
	var auth proto.AuthenticateData
	if err := json.Unmarshal(data, &auth); err != nil || auth.Token == "" {
		return queueEvent(session, authFailure(core.ErrCodeBadRequest, "token is required"))
	}

	id, err := h.verifier.Verify(ctx, auth.Token)
	if err != nil {
		h.log.Debug().Err(err).Str("session_id", session.ID).Msg("socket token verification failed")
		if errors.Is(err, identity.ErrMissingConfig) {
			return queueEvent(session, authFailure(core.ErrCodeConfigError, "configuration error"))
		}
		return queueEvent(session, authFailure(core.ErrCodeInvalidToken, "invalid token"))
	}

	h.hub.Submit(&core.Command{
		Kind:     core.CommandAttachIdentity,
		Session:  session,
		Identity: id,
	})
	return nil
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		select {
		case event, ok := <-session.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("session_id", session.ID).Msg("write ws event")
				return err
			}
		case <-session.Closed:
			// The hub discarded the session; drain what was already queued so
			// a final reply is not lost, then close.
			for {
				select {
				case event := <-session.Events:
					if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
						return err
					}
				default:
					return errSessionDiscarded
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// errSessionDiscarded is returned by the loops when the hub cut the session
// off because it could not take a direct reply.
var errSessionDiscarded = errors.New("session event backlog overflow")

func authFailure(code, msg string) *core.Event {
	return &core.Event{
		Kind:  core.EventAuthResult,
		Error: &core.CoreError{Code: code, Message: msg},
	}
}

// queueEvent hands a locally generated reply to the session's writer without
// blocking the read loop. Replies are never silently dropped: a full buffer
// fails the connection instead.
func queueEvent(session *core.Session, ev *core.Event) error {
	select {
	case session.Events <- ev:
		return nil
	default:
		return errSessionDiscarded
	}
}
