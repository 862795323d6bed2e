// Package punter implements the per-punter host (spec.md §4.4): it wraps
// one child process, handling handshake, setup, and per-move request and
// response, in either persistent or one-shot flavor.
package punter

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/gennai/arena/internal/arenaerr"
	"github.com/gennai/arena/internal/childproc"
	"github.com/gennai/arena/internal/codec"
	"github.com/gennai/arena/internal/score"
)

// Config configures one punter host.
type Config struct {
	Argv       []string
	Persistent bool
	// FeatureNegotiation downgrades Persistent to one-shot for a child that
	// doesn't advertise "gennai-persistent" in its handshake (spec.md §6).
	FeatureNegotiation bool
	Launcher           childproc.Launcher
	Logger             zerolog.Logger
}

// Host drives one punter's child process through its full lifecycle:
// Constructed -> Handshaked -> Setup -> (Move)* -> Done.
type Host struct {
	cfg Config
	id  int
	log zerolog.Logger

	name  string
	state json.RawMessage // opaque, replayed verbatim (spec.md §9)

	proc   childproc.Process // live across exchanges only when persistentActive
	active childproc.Process // the process driving the in-flight exchange

	// enc/dec are cached alongside proc: built once per spawned process, not
	// once per exchange. A persistent child's *bufio.Reader must survive
	// across exchanges, or bytes it writes ahead of a read (its next "me"
	// greeting, sent right after a reply) get buffered and then discarded
	// when a fresh codec.Decoder is built on top of the same raw pipe.
	enc *codec.Encoder
	dec *codec.Decoder

	// persistentActive is the effective persistence mode, initialized from
	// cfg.Persistent and possibly downgraded to false after the first
	// handshake's feature negotiation.
	persistentActive bool
	negotiated       bool
}

// NewHost constructs a host for the given config. The punter id is assigned
// by the caller in join order (spec.md §4.4's "join(arena) -> punter_id"),
// via SetID, before the host is handed to the arena.
func NewHost(cfg Config) *Host {
	if cfg.Launcher == nil {
		cfg.Launcher = childproc.ExecLauncher{}
	}
	return &Host{cfg: cfg, log: cfg.Logger, persistentActive: cfg.Persistent}
}

// SetID assigns this host's punter id.
func (h *Host) SetID(id int) { h.id = id }

// ID returns this host's punter id.
func (h *Host) ID() int { return h.id }

// Name returns the name the child reported at its last handshake ("" before
// the first successful handshake).
func (h *Host) Name() string { return h.name }

// SetupResult is what the arena learns from a successful setup round.
type SetupResult struct {
	Futures []score.Future
	Elapsed time.Duration
}

// MoveResult is what the arena learns from a successful move round.
type MoveResult struct {
	Move    WireMove
	Elapsed time.Duration
	// StrippedRaw is the child's full response JSON with the "state" key
	// removed, used for the log when --include_state is set (spec.md §4.5).
	StrippedRaw json.RawMessage
}

// PromptSetup sends the setup payload and awaits the child's readiness
// response, storing its carried state and returning its declared futures.
// Move application (there is none for setup) stays out of this function;
// the arena is the only place river ownership changes (spec.md §4.5).
func (h *Host) PromptSetup(payload SetupPrompt) (SetupResult, error) {
	start := time.Now()
	enc, dec, err := h.beginExchange()
	if err != nil {
		return SetupResult{}, err
	}
	defer h.endExchange()

	if err := enc.Encode(payload); err != nil {
		return SetupResult{}, errors.Wrap(err, "punter: write setup payload")
	}

	var reply setupReply
	if err := dec.Decode(&reply); err != nil {
		return SetupResult{}, err
	}
	if reply.Ready == nil || *reply.Ready != h.id {
		return SetupResult{}, arenaerr.New(arenaerr.KindBadReady, "ready=%v want=%d", reply.Ready, h.id)
	}
	h.state = reply.State

	futures := make([]score.Future, 0, len(reply.Futures))
	for _, f := range reply.Futures {
		futures = append(futures, score.Future{Source: f.Source, Target: f.Target})
	}
	return SetupResult{Futures: futures, Elapsed: time.Since(start)}, nil
}

// PromptMove sends the move payload (splicing in the host's carried state)
// and awaits the child's claim-or-pass response, storing its new state.
func (h *Host) PromptMove(moves []WireMove) (MoveResult, error) {
	start := time.Now()
	enc, dec, err := h.beginExchange()
	if err != nil {
		return MoveResult{}, err
	}
	defer h.endExchange()

	payload := NewMovePrompt(moves)
	if len(h.state) > 0 && string(h.state) != "null" {
		payload.State = h.state
	}
	if err := enc.Encode(payload); err != nil {
		return MoveResult{}, errors.Wrap(err, "punter: write move payload")
	}

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return MoveResult{}, err
	}
	var reply moveReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return MoveResult{}, arenaerr.New(arenaerr.KindBadJSON, "move reply: %v", err)
	}

	move, err := h.validateMoveReply(reply)
	if err != nil {
		return MoveResult{}, err
	}
	h.state = reply.State
	return MoveResult{Move: move, Elapsed: time.Since(start), StrippedRaw: stripState(raw)}, nil
}

// stripState removes the "state" key from a raw JSON object, returning the
// original bytes unchanged if they aren't a JSON object.
func stripState(raw json.RawMessage) json.RawMessage {
	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return raw
	}
	delete(asMap, "state")
	out, err := json.Marshal(asMap)
	if err != nil {
		return raw
	}
	return out
}

func (h *Host) validateMoveReply(reply moveReply) (WireMove, error) {
	switch {
	case reply.Claim != nil && reply.Pass != nil:
		return WireMove{}, arenaerr.New(arenaerr.KindBadMove, "both claim and pass present")
	case reply.Claim != nil:
		if reply.Claim.Punter != h.id {
			return WireMove{}, arenaerr.New(arenaerr.KindBadMove, "claim punter=%d want=%d", reply.Claim.Punter, h.id)
		}
		return WireMove{Claim: reply.Claim}, nil
	case reply.Pass != nil:
		if reply.Pass.Punter != h.id {
			return WireMove{}, arenaerr.New(arenaerr.KindBadMove, "pass punter=%d want=%d", reply.Pass.Punter, h.id)
		}
		return WireMove{Pass: reply.Pass}, nil
	default:
		return WireMove{}, arenaerr.New(arenaerr.KindBadMove, "neither claim nor pass present")
	}
}

// Close kills any live child: the persistent process, if one is running, or
// (for a one-shot host) a no-op, since one-shot children are killed
// immediately after each exchange by endExchange.
func (h *Host) Close() error {
	if h.proc != nil {
		err := h.proc.Kill()
		h.proc = nil
		h.active = nil
		h.enc = nil
		h.dec = nil
		return err
	}
	return nil
}

// beginExchange ensures a live child and stream, performs the handshake
// round required before every payload (spec.md §6 / Scenario E), and
// returns the framed encoder/decoder over its stdio. For a persistent child
// the same pair is reused across every exchange of the match; only a freshly
// spawned process gets a freshly built one (see the enc/dec field comment).
// Under --feature_negotiation, the first handshake also decides whether this
// host stays persistent.
func (h *Host) beginExchange() (*codec.Encoder, *codec.Decoder, error) {
	for {
		proc, enc, dec, err := h.ensureChild()
		if err != nil {
			return nil, nil, err
		}
		h.active = proc

		var hello meMessage
		if err := dec.Decode(&hello); err != nil {
			h.endExchange()
			return nil, nil, arenaerr.New(arenaerr.KindBadHandshake, "read me: %v", err)
		}
		h.name = hello.Me

		if h.cfg.FeatureNegotiation && !h.negotiated {
			h.negotiated = true
			if h.persistentActive && !hasFeature(hello.Features, featurePersistent) {
				h.log.Debug().Str("name", h.name).Msg("child does not advertise gennai-persistent, downgrading to one-shot")
				_ = proc.Kill()
				h.proc = nil
				h.active = nil
				h.enc = nil
				h.dec = nil
				h.persistentActive = false
				continue
			}
		}

		if err := enc.Encode(youMessage{You: hello.Me}); err != nil {
			h.endExchange()
			return nil, nil, errors.Wrap(err, "punter: write you")
		}
		return enc, dec, nil
	}
}

// endExchange kills a one-shot child's process after its single exchange.
// A persistent child's process, and its cached encoder/decoder, are left
// alive for the next exchange.
func (h *Host) endExchange() {
	if !h.persistentActive && h.active != nil {
		_ = h.active.Kill()
		h.active = nil
		h.enc = nil
		h.dec = nil
	}
}

// ensureChild returns a live process along with its encoder/decoder pair,
// spawning a new child only when there is no persistent process to reuse.
// The encoder/decoder are built exactly once per spawned process and cached
// on the host for a persistent child, so the same *bufio.Reader backs every
// exchange of a persistent match instead of being discarded and rebuilt.
func (h *Host) ensureChild() (childproc.Process, *codec.Encoder, *codec.Decoder, error) {
	if h.persistentActive && h.proc != nil {
		return h.proc, h.enc, h.dec, nil
	}
	argv := h.cfg.Argv
	if h.persistentActive {
		argv = append(append([]string{}, argv...), "--persistent")
	}
	proc, err := h.cfg.Launcher.Launch(argv)
	if err != nil {
		return nil, nil, nil, err
	}
	enc := codec.NewEncoder(proc.Stdin())
	dec := codec.NewDecoder(proc.Stdout())
	if h.persistentActive {
		h.proc = proc
	}
	h.enc = enc
	h.dec = dec
	return proc, enc, dec, nil
}
