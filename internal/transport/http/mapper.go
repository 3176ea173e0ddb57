package http

import (
	"encoding/json"

	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/core"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/proto"
)

// inboundToCommand maps a decoded envelope to a hub command. A non-nil
// proto.Error means the message must be rejected back to the sender without
// reaching the hub; authenticateSocket is handled by the websocket handler
// before this point because it needs the verifier.
func inboundToCommand(session *core.Session, inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeGetGrid:
		return &core.Command{
			Kind:    core.CommandRequestGrid,
			Session: session,
		}, nil
	case proto.InboundTypePlacePixel:
		var place proto.PlacePixelData
		if err := json.Unmarshal(inbound.Data, &place); err != nil {
			// Wrong field types land here; the placement is discarded.
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Message: "malformed placePixel payload"}
		}
		return &core.Command{
			Kind:    core.CommandPlacePixel,
			Session: session,
			X:       place.X,
			Y:       place.Y,
			Color:   place.Color,
		}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Message: "unknown message type"}
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventAuthResult:
		result := proto.AuthResult{Success: event.Error == nil}
		if event.Error != nil {
			result.Error = event.Error.Message
		}
		return proto.Outbound{
			Type: proto.OutboundTypeAuthResult,
			Data: result,
		}
	case core.EventGridSnapshot:
		return proto.Outbound{
			Type: proto.OutboundTypeInitialGrid,
			Data: proto.InitialGrid{Grid: event.Grid},
		}
	case core.EventPixelUpdate:
		return proto.Outbound{
			Type: proto.OutboundTypePixelUpdate,
			Data: proto.PixelUpdate{X: event.X, Y: event.Y, Color: event.Color},
		}
	case core.EventPixelPlaced:
		return proto.Outbound{
			Type: proto.OutboundTypePixelPlaced,
			Data: proto.PixelPlaced{CooldownEnds: event.CooldownEnds},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: "unknown", Message: "unknown error"},
			}
		}
		return proto.Outbound{
			Type: proto.OutboundTypeError,
			Error: &proto.Error{
				Code:         event.Error.Code,
				Message:      event.Error.Message,
				RetryAfterMs: event.Error.RetryAfter.Milliseconds(),
			},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Message: "unknown event"}}
	}
}
