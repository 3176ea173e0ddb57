package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/identity"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3001/ws", "WebSocket address")
	secret := flag.String("secret", "", "auth secret used to mint a test token")
	audience := flag.String("audience", "", "token audience (client id)")
	issuer := flag.String("issuer", "", "token issuer")
	subject := flag.String("subject", "smoke-tester", "user id to place as")
	x := flag.Int("x", 0, "pixel x coordinate")
	y := flag.Int("y", 0, "pixel y coordinate")
	color := flag.String("color", "#FF0000", "pixel color")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *secret == "" || *audience == "" {
		return fmt.Errorf("-secret and -audience are required")
	}

	token, err := identity.SignToken([]byte(*secret), *audience, *issuer, *subject, "smoke tester", time.Minute)
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(msgType string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", msgType, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", msgType, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: token}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeGetGrid, struct{}{}); err != nil {
		return err
	}
	if err := send(proto.InboundTypePlacePixel, proto.PlacePixelData{X: *x, Y: *y, Color: *color}); err != nil {
		return err
	}

	// Expect authResult, initialGrid, pixelUpdate, pixelPlacedSuccessfully.
	for i := 0; i < 4; i++ {
		var outbound struct {
			Type  string          `json:"type"`
			Data  json.RawMessage `json:"data"`
			Error json.RawMessage `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read reply: %w", err)
		}
		if outbound.Type == proto.OutboundTypeInitialGrid {
			fmt.Printf("<- %s (%d bytes)\n", outbound.Type, len(outbound.Data))
			continue
		}
		body := outbound.Data
		if len(body) == 0 {
			body = outbound.Error
		}
		fmt.Printf("<- %s %s\n", outbound.Type, body)
	}

	return nil
}
