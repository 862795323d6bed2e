package punter

import (
	json "github.com/goccy/go-json"
)

// meMessage is a child's handshake greeting: {"me": "<name>"}. Features is a
// SPEC_FULL addition (spec.md §6's --feature_negotiation): a child that
// supports staying alive across exchanges advertises "gennai-persistent"
// here.
type meMessage struct {
	Me       string   `json:"me"`
	Features []string `json:"features,omitempty"`
}

// featurePersistent is the capability string a child advertises in its "me"
// message to opt into persistent mode under --feature_negotiation.
const featurePersistent = "gennai-persistent"

func hasFeature(features []string, want string) bool {
	for _, f := range features {
		if f == want {
			return true
		}
	}
	return false
}

// youMessage is the referee's handshake reply: {"you": "<name>"}.
type youMessage struct {
	You string `json:"you"`
}

// SetupPrompt is the payload sent to a punter during setup (spec.md §6).
type SetupPrompt struct {
	Punter   int            `json:"punter"`
	Punters  int            `json:"punters"`
	Map      json.RawMessage `json:"map"`
	Settings map[string]any `json:"settings"`
}

// wireFuture mirrors one element of a setup response's "futures" array.
type wireFuture struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// setupReply is a child's setup response.
type setupReply struct {
	Ready   *int            `json:"ready"`
	State   json.RawMessage `json:"state,omitempty"`
	Futures []wireFuture    `json:"futures,omitempty"`
}

// ClaimBody is the body of a claim move.
type ClaimBody struct {
	Punter int `json:"punter"`
	Source int `json:"source"`
	Target int `json:"target"`
}

// PassBody is the body of a pass move.
type PassBody struct {
	Punter int `json:"punter"`
}

// WireMove is the canonical stripped move form exchanged on the wire and
// stored in the rolling moves ring / all-moves log (spec.md §4.5).
type WireMove struct {
	Claim *ClaimBody `json:"claim,omitempty"`
	Pass  *PassBody  `json:"pass,omitempty"`
}

// IsClaim reports whether this move is a claim.
func (m WireMove) IsClaim() bool { return m.Claim != nil }

// Punter returns the acting punter id, regardless of move kind.
func (m WireMove) Punter() int {
	if m.Claim != nil {
		return m.Claim.Punter
	}
	if m.Pass != nil {
		return m.Pass.Punter
	}
	return -1
}

// Pass builds a canonical pass move for punter p.
func Pass(p int) WireMove { return WireMove{Pass: &PassBody{Punter: p}} }

// Claim builds a canonical claim move.
func Claim(p, source, target int) WireMove {
	return WireMove{Claim: &ClaimBody{Punter: p, Source: source, Target: target}}
}

// moveWrapper is the "move" field of a move prompt: {"moves": [...]}.
type moveWrapper struct {
	Moves []WireMove `json:"moves"`
}

// MovePrompt is the payload sent to a punter on its turn (spec.md §6).
type MovePrompt struct {
	Move  moveWrapper     `json:"move"`
	State json.RawMessage `json:"state,omitempty"`
}

// NewMovePrompt builds a move prompt from a ring snapshot; state is spliced
// in by the host immediately before writing (spec.md §4.4).
func NewMovePrompt(moves []WireMove) MovePrompt {
	return MovePrompt{Move: moveWrapper{Moves: moves}}
}

// moveReply is a child's move response: either embeds a claim or a pass,
// plus an optional carried state.
type moveReply struct {
	Claim *ClaimBody      `json:"claim,omitempty"`
	Pass  *PassBody       `json:"pass,omitempty"`
	State json.RawMessage `json:"state,omitempty"`
}
