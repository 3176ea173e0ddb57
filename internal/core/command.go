package core

import "github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/identity"

// CommandKind describes what the session wants the hub to do.
type CommandKind int

const (
	// CommandAttachIdentity attaches an already-verified identity to the
	// session and marks it authenticated.
	CommandAttachIdentity CommandKind = iota
	// CommandRequestGrid asks for a full snapshot of the canvas.
	CommandRequestGrid
	// CommandPlacePixel requests a single-cell color change.
	CommandPlacePixel
)

// Command represents an action requested on behalf of a session.
type Command struct {
	Kind    CommandKind
	Session *Session

	// Identity carries the verified identity for CommandAttachIdentity.
	Identity *identity.Identity

	// Placement payload for CommandPlacePixel.
	X     int
	Y     int
	Color string
}
