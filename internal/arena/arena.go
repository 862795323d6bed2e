// Package arena implements the match driver (spec.md §4.5): setup phase,
// turn loop, authoritative move application, conflict handling, and the
// end-of-game report.
package arena

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/gennai/arena/internal/arenaerr"
	"github.com/gennai/arena/internal/mapmodel"
	"github.com/gennai/arena/internal/punter"
	"github.com/gennai/arena/internal/score"
)

// Options are the behavioral flags the runner passes through (spec.md §6).
type Options struct {
	IncludeState      bool
	IncludeTime       bool
	IncludeCause      bool
	LogScoreEveryStep bool
}

// Arena drives one match, start to finish. It is single-use: construct,
// call Run once, discard.
type Arena struct {
	mapModel *mapmodel.Map
	hosts    []*punter.Host
	opts     Options
	log      zerolog.Logger

	futures [][]score.Future // per-punter declared futures, indexed by id

	ring      []punter.WireMove
	allMoves  []logEntry
	step      int
}

// New constructs an Arena over the given map and already-ID-assigned hosts.
func New(m *mapmodel.Map, hosts []*punter.Host, opts Options, log zerolog.Logger) *Arena {
	matchID := uuid.New()
	return &Arena{
		mapModel: m,
		hosts:    hosts,
		opts:     opts,
		log:      log.With().Str("match_id", matchID.String()).Logger(),
		futures:  make([][]score.Future, len(hosts)),
	}
}

// logEntry is one element of the all-moves log (spec.md §4.5).
type logEntry struct {
	Move        punter.WireMove
	Cause       *punter.ClaimBody // original claim, on conflict, if IncludeCause
	ElapsedMS   int64
	HaveElapsed bool
	Raw         json.RawMessage // IncludeState's "full message minus state", if set
}

// MarshalJSON renders the entry the way the final report wants it: the
// stripped move (or raw message, if IncludeState was requested), optionally
// annotated with "time" and/or "cause".
func (e logEntry) MarshalJSON() ([]byte, error) {
	var base map[string]json.RawMessage
	if len(e.Raw) > 0 {
		if err := json.Unmarshal(e.Raw, &base); err != nil {
			base = nil
		}
	}
	if base == nil {
		b, err := json.Marshal(e.Move)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &base); err != nil {
			return nil, err
		}
	}
	if e.HaveElapsed {
		b, _ := json.Marshal(e.ElapsedMS)
		base["time"] = b
	}
	if e.Cause != nil {
		b, err := json.Marshal(e.Cause)
		if err != nil {
			return nil, err
		}
		base["cause"] = b
	}
	return json.Marshal(base)
}

// Report is the final JSON document printed to standard output (spec.md §6).
type Report struct {
	Moves  []logEntry `json:"moves"`
	Scores []int64    `json:"scores"`
}

// Run drives the whole match: Joining is assumed already done (hosts carry
// their ids); this executes Setup, Playing, and Done (spec.md §4.5's state
// machine), returning the final report.
func (a *Arena) Run() (Report, error) {
	if err := a.setupPhase(); err != nil {
		return Report{}, err
	}
	a.initRing()
	if err := a.playPhase(); err != nil {
		return Report{}, err
	}
	return a.finalReport(), nil
}

func (a *Arena) numPunters() int { return len(a.hosts) }

func (a *Arena) initRing() {
	a.ring = make([]punter.WireMove, a.numPunters())
	for i := range a.ring {
		a.ring[i] = punter.Pass(i)
	}
}

func (a *Arena) setupPhase() error {
	n := a.numPunters()
	for _, h := range a.hosts {
		settings := map[string]any{"futures": true}
		payload := punter.SetupPrompt{
			Punter:   h.ID(),
			Punters:  n,
			Map:      a.mapModel.Raw,
			Settings: settings,
		}
		res, err := h.PromptSetup(payload)
		if err != nil {
			if arenaerr.Is(err, arenaerr.KindChildSpawnFailed) {
				return errors.Wrap(err, "cannot form roster")
			}
			a.handleError(h, err)
			continue
		}
		a.futures[h.ID()] = res.Futures
		a.log.Debug().Int("punter", h.ID()).Str("name", h.Name()).Msg("setup complete")
	}
	return nil
}

func (a *Arena) playPhase() error {
	n := a.numPunters()
	total := a.mapModel.NumRivers()
	for a.step < total {
		p := a.step % n
		host := a.hosts[p]

		res, err := host.PromptMove(a.snapshotRing())
		if err != nil {
			if arenaerr.Is(err, arenaerr.KindChildSpawnFailed) {
				return errors.Wrap(err, "cannot respawn one-shot punter")
			}
			a.handleError(host, err)
			a.applyMove(punter.Pass(p), nil, 0, false)
		} else {
			a.applyMove(res.Move, res.StrippedRaw, res.Elapsed, true)
		}

		if a.opts.LogScoreEveryStep {
			a.logProvisional(p)
		}
		a.step++
	}
	return nil
}

// snapshotRing returns a copy of the rolling moves ring (spec.md §3:
// mutating the returned slice must never affect arena state).
func (a *Arena) snapshotRing() []punter.WireMove {
	out := make([]punter.WireMove, len(a.ring))
	copy(out, a.ring)
	return out
}

// applyMove is the sole place river ownership changes (spec.md §4.5).
func (a *Arena) applyMove(move punter.WireMove, raw json.RawMessage, elapsed time.Duration, haveElapsed bool) {
	p := move.Punter()
	entry := logEntry{HaveElapsed: a.opts.IncludeTime && haveElapsed}
	if entry.HaveElapsed {
		entry.ElapsedMS = elapsed.Milliseconds()
	}
	if a.opts.IncludeState {
		entry.Raw = raw
	}

	final := move
	if move.IsClaim() {
		claim := move.Claim
		if a.mapModel.Claim(claim.Source, claim.Target, p) {
			a.log.Info().Int("punter", p).Int("source", claim.Source).Int("target", claim.Target).Msg("claim")
		} else {
			// Conflict: first writer wins, conflicting claimer passes.
			final = punter.Pass(p)
			entry.Raw = nil // the synthesized pass has no "full message" to retain
			if a.opts.IncludeCause {
				entry.Cause = claim
			}
			a.log.Warn().Int("punter", p).Int("source", claim.Source).Int("target", claim.Target).Msg("conflict: already claimed")
		}
	}
	entry.Move = final
	a.pushMove(final)
	a.allMoves = append(a.allMoves, entry)
}

// pushMove appends to the ring and pops its head, keeping its length fixed
// at N (spec.md invariant P4).
func (a *Arena) pushMove(m punter.WireMove) {
	n := len(a.ring)
	copy(a.ring[0:n-1], a.ring[1:n])
	a.ring[n-1] = m
}

// handleError logs a punter failure; the caller substitutes a pass for this
// turn (spec.md §7's propagation policy). The punter's game_state is left
// untouched since the host only overwrites it on a successful exchange.
func (a *Arena) handleError(h *punter.Host, err error) {
	a.log.Error().Int("punter", h.ID()).Err(err).Msg("punter error, substituting pass")
}

func (a *Arena) logProvisional(p int) {
	res := score.Provisional(a.mapModel, p, a.futures[p])
	a.log.Debug().Int("punter", p).Int64("score", res.Score).Int64("potential", res.PotentialChange).Msg("provisional score")
}

func (a *Arena) finalReport() Report {
	scores := make([]int64, a.numPunters())
	for _, h := range a.hosts {
		scores[h.ID()] = score.Compute(a.mapModel, h.ID(), a.futures[h.ID()])
	}
	for _, h := range a.hosts {
		_ = h.Close()
	}
	return Report{Moves: a.allMoves, Scores: scores}
}
