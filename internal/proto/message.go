package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Message type names as they appear on the wire.
const (
	InboundTypeAuthenticate = "authenticateSocket"
	InboundTypeGetGrid      = "getInitialGrid"
	InboundTypePlacePixel   = "placePixel"

	OutboundTypeAuthResult  = "authResult"
	OutboundTypeInitialGrid = "initialGrid"
	OutboundTypePixelUpdate = "pixelUpdate"
	OutboundTypePixelPlaced = "pixelPlacedSuccessfully"
	OutboundTypeError       = "error"
)

// AuthenticateData carries the opaque identity token.
type AuthenticateData struct {
	Token string `json:"token"`
}

// PlacePixelData is a single-cell placement request.
type PlacePixelData struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// AuthResult reports the outcome of an authentication attempt.
type AuthResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// InitialGrid delivers the full canvas to one client.
type InitialGrid struct {
	Grid [][]string `json:"grid"`
}

// PixelUpdate is broadcast to every client for each accepted placement.
type PixelUpdate struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

// PixelPlaced privately acknowledges the submitter's placement.
// CooldownEnds is epoch milliseconds.
type PixelPlaced struct {
	CooldownEnds int64 `json:"cooldownEnds"`
}

// Error describes a rejection delivered to the submitter only.
type Error struct {
	Code         string `json:"code,omitempty"`
	Message      string `json:"message"`
	RetryAfterMs int64  `json:"retryAfterMs,omitempty"`
}
