// Command passbot is a reference punter that never claims anything,
// grounded in the original reference implementation's always-pass bot. It
// is the runner's default smoke-test player (spec.md §4.6).
package main

import (
	"flag"
	"os"

	json "github.com/goccy/go-json"

	"github.com/gennai/arena/internal/codec"
)

func main() {
	// Accepted for CLI compatibility with the runner's argv convention
	// (spec.md §4.4); the handshake loop below already re-does a handshake
	// before every exchange regardless of mode, so there's nothing to
	// branch on here.
	flag.Bool("persistent", false, "accepted, has no effect on this bot's behavior")
	flag.Parse()

	enc := codec.NewEncoder(os.Stdout)
	dec := codec.NewDecoder(os.Stdin)

	for {
		if err := enc.Encode(map[string]any{"me": "passbot", "features": []string{"gennai-persistent"}}); err != nil {
			return
		}
		var you map[string]any
		if err := dec.Decode(&you); err != nil {
			return
		}

		var req map[string]json.RawMessage
		if err := dec.Decode(&req); err != nil {
			return
		}

		var reply map[string]any
		if _, isSetup := req["punter"]; isSetup {
			reply = onSetup(req)
		} else {
			reply = onMove(req)
		}
		if err := enc.Encode(reply); err != nil {
			return
		}
	}
}

// onSetup answers a setup prompt with "ready", carrying the punter id
// forward in the opaque state so a later one-shot move process (spawned
// fresh, with no memory of setup) can recover it.
func onSetup(req map[string]json.RawMessage) map[string]any {
	var punterID int
	_ = json.Unmarshal(req["punter"], &punterID)

	state := map[string]any{"punter_id": punterID}
	return map[string]any{"ready": punterID, "state": state}
}

// onMove always passes, replaying its state unchanged.
func onMove(req map[string]json.RawMessage) map[string]any {
	var state map[string]any
	_ = json.Unmarshal(req["state"], &state)

	punterID := 0
	if v, ok := state["punter_id"]; ok {
		if f, ok := v.(float64); ok {
			punterID = int(f)
		}
	}
	return map[string]any{"pass": map[string]any{"punter": punterID}, "state": state}
}
