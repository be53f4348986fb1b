package cull

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"photocull/internal/catalog"
	"photocull/internal/fileutil"
	"photocull/internal/match"
)

// Mode selects what a cull pass does with non-keeper files.
type Mode string

const (
	// ModeDryRun reports planned operations without touching the file
	// system and writes no history record.
	ModeDryRun Mode = "dry-run"
	// ModeMove relocates non-keepers into the target directory.
	ModeMove Mode = "move"
	// ModeDelete permanently removes non-keepers.
	ModeDelete Mode = "delete"
)

// ErrCullInProgress is returned when another cull holds the collection lock.
var ErrCullInProgress = errors.New("another cull is already in progress for this collection")

// FileOp is one planned or executed operation on a non-keeper file.
type FileOp struct {
	Source string
	Dest   string // empty for deletes and dry-run deletes
	Err    error  // non-nil when the operation failed
}

// Outcome reports a cull pass over one group. Failed operations do not
// appear in the history record; the pass continues past them.
type Outcome struct {
	Keeper    *catalog.Asset
	Ops       []FileOp
	Succeeded int
	Failed    int
}

// DecisionRecorder persists keep/remove decisions. Implemented by the
// catalog store.
type DecisionRecorder interface {
	UpsertDecision(catalog.Decision) error
}

// DecisionSource looks up prior keep/remove decisions. Implemented by the
// catalog store.
type DecisionSource interface {
	GetDecision(assetID string) (*catalog.Decision, error)
}

// Culler executes cull passes for one collection. At most one cull may run
// per collection at a time, enforced with a file lock next to the history
// log.
type Culler struct {
	targetDir string
	ledger    *Ledger
	logger    *slog.Logger
	decisions DecisionRecorder
	overrides DecisionSource
	lock      *flock.Flock
}

// CullerOption configures a Culler.
type CullerOption func(*Culler)

// WithDecisionRecorder persists a keep decision for the keeper and remove
// decisions for culled files on every non-dry-run pass.
func WithDecisionRecorder(r DecisionRecorder) CullerOption {
	return func(c *Culler) { c.decisions = r }
}

// WithDecisionSource makes prior decisions override the strategy: assets
// explicitly marked keep are never culled, assets marked remove always are.
func WithDecisionSource(src DecisionSource) CullerOption {
	return func(c *Culler) { c.overrides = src }
}

// WithCullLogger sets the logger.
func WithCullLogger(logger *slog.Logger) CullerOption {
	return func(c *Culler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCuller creates a Culler moving files into targetDir and recording
// history in ledger.
func NewCuller(targetDir string, ledger *Ledger, opts ...CullerOption) *Culler {
	c := &Culler{
		targetDir: targetDir,
		ledger:    ledger,
		logger:    slog.Default(),
		lock:      flock.New(ledger.Path() + ".lock"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TargetDir returns the directory non-keepers are moved into.
func (c *Culler) TargetDir() string { return c.targetDir }

// Cull computes the keeper for the group under the strategy and applies
// mode to every other member. Move and Delete passes append exactly one
// history record per group, listing only the files actually moved or
// deleted. Per-file failures are logged and counted; they never abort the
// pass.
func (c *Culler) Cull(group *catalog.Group, strategy match.Strategy, mode Mode) (*Outcome, error) {
	if len(group.Members) < 2 {
		return nil, fmt.Errorf("group %s has fewer than two members", group.ID)
	}

	keeper, others := c.partition(group, strategy)
	outcome := &Outcome{Keeper: keeper}

	if mode == ModeDryRun {
		for _, a := range others {
			outcome.Ops = append(outcome.Ops, FileOp{Source: a.Path, Dest: c.targetDir})
			outcome.Succeeded++
		}
		return outcome, nil
	}

	// The target directory holds the lock file and the history log; on a
	// first cull it does not exist yet.
	if err := os.MkdirAll(filepath.Dir(c.ledger.Path()), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create target directory: %w", err)
	}

	locked, err := c.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire cull lock: %w", err)
	}
	if !locked {
		return nil, ErrCullInProgress
	}
	defer c.lock.Unlock()

	var culled []string
	for _, a := range others {
		op := FileOp{Source: a.Path}

		switch mode {
		case ModeMove:
			dest, err := fileutil.MoveFile(a.Path, c.targetDir)
			op.Dest = dest
			op.Err = err
		case ModeDelete:
			op.Err = os.Remove(a.Path)
		default:
			return nil, fmt.Errorf("unknown cull mode %q", mode)
		}

		outcome.Ops = append(outcome.Ops, op)
		if op.Err != nil {
			outcome.Failed++
			c.logger.Warn("cull operation failed", "file", a.Path, "error", op.Err)
			continue
		}
		outcome.Succeeded++
		culled = append(culled, a.Path)
		c.recordDecision(a.ID, catalog.StateRemove, removeReason(group.Kind))
	}

	if len(culled) > 0 {
		action := ActionMoved
		if mode == ModeDelete {
			action = ActionDeleted
		}
		rec := Record{
			Timestamp: time.Now().UTC(),
			Retained:  keeper.Path,
			Culled:    culled,
			Action:    action,
		}
		if err := c.ledger.Append(rec); err != nil {
			return outcome, err
		}
		c.recordDecision(keeper.ID, catalog.StateKeep, keepReason(strategy))
	}

	return outcome, nil
}

// partition splits the group into the retained asset and the cull targets.
// The strategy orders members; prior keep/remove decisions override it.
// The keeper is the first member in strategy order without a remove
// decision, so a group can never lose all of its members.
func (c *Culler) partition(group *catalog.Group, strategy match.Strategy) (*catalog.Asset, []*catalog.Asset) {
	sorted := strategy.Sort(group.Members)

	keeper := sorted[0]
	for _, a := range sorted {
		if c.decisionState(a.ID) != catalog.StateRemove {
			keeper = a
			break
		}
	}

	var others []*catalog.Asset
	for _, a := range sorted {
		if a.ID == keeper.ID || c.decisionState(a.ID) == catalog.StateKeep {
			continue
		}
		others = append(others, a)
	}
	return keeper, others
}

func (c *Culler) decisionState(assetID string) catalog.DecisionState {
	if c.overrides == nil {
		return catalog.StateUndecided
	}
	d, err := c.overrides.GetDecision(assetID)
	if err != nil || d == nil {
		return catalog.StateUndecided
	}
	return d.State
}

func (c *Culler) recordDecision(assetID string, state catalog.DecisionState, reason catalog.ReasonCode) {
	if c.decisions == nil {
		return
	}
	err := c.decisions.UpsertDecision(catalog.Decision{
		AssetID:   assetID,
		State:     state,
		Reason:    reason,
		DecidedAt: time.Now().UTC(),
	})
	if err != nil {
		c.logger.Warn("failed to record decision", "asset", assetID, "error", err)
	}
}

func removeReason(kind catalog.GroupKind) catalog.ReasonCode {
	if kind == catalog.KindExact {
		return catalog.ReasonExactDuplicate
	}
	return catalog.ReasonNearDuplicate
}

// keepReason maps the selection strategy to the reason recorded with the
// keeper's keep decision.
func keepReason(strategy match.Strategy) catalog.ReasonCode {
	switch strategy {
	case match.StrategyNewest:
		return catalog.ReasonNewerTimestamp
	case match.StrategyLargest:
		return catalog.ReasonLargerFilesize
	default:
		return catalog.ReasonManual
	}
}
