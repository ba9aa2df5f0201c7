// Package parentlink implements the parenting wand: a ball that, thrown at
// two entities in turn, makes the first a child of the second.
//
// The first hit selects the child. The child is detached from any previous
// parent and frozen so the link geometry is stable. The second hit selects the
// parent and links the pair. The wand then cools down and resets itself. Every
// step is reported on the wand's prompt texture and with a sound; nothing is
// ever returned as an error.
package parentlink

import (
	"log/slog"
	"time"

	"example.com/parentator/audio"
	"example.com/parentator/world/entities"
)

const (
	DefaultResetDelay = 5000 * time.Millisecond
	DefaultVolume     = 0.3
)

type SoundLoader interface {
	Load(url string) *audio.Sound
}

type SoundPlayer interface {
	Play(s *audio.Sound, opts audio.PlayOptions) bool
}

type AssetResolver interface {
	Resolve(relative string) string
}

type Deps struct {
	Host   entities.Host
	Sounds SoundLoader
	Audio  SoundPlayer
	Assets AssetResolver
}

type Options struct {
	ResetDelay time.Duration
	Volume     float64
	Logger     *slog.Logger
}

type State int

const (
	StateIdle State = iota
	StateAwaitingParent
	StateLinking
	StateCooldown
)

// StateAwaitingChild is the same phase as StateIdle: the child slot is empty.
const StateAwaitingChild = StateIdle

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingParent:
		return "awaiting_parent"
	case StateLinking:
		return "linking"
	case StateCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// Outcome is what the last handled event amounted to.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeReady
	OutcomePermissionDenied
	OutcomeTargetLocked
	OutcomeTargetMissing
	OutcomeDuplicateSelection
	OutcomeChildSelected
	OutcomeLinked
	OutcomeCoolingDown
	OutcomeReset
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeReady:
		return "ready"
	case OutcomePermissionDenied:
		return "permission_denied"
	case OutcomeTargetLocked:
		return "target_locked"
	case OutcomeTargetMissing:
		return "target_missing"
	case OutcomeDuplicateSelection:
		return "duplicate_selection"
	case OutcomeChildSelected:
		return "child_selected"
	case OutcomeLinked:
		return "linked"
	case OutcomeCoolingDown:
		return "cooling_down"
	case OutcomeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Tool is one wand. It is not safe for concurrent use; the host calls it
// from a single event loop.
type Tool struct {
	host       entities.Host
	sounds     SoundLoader
	feedback   *presenter
	resetDelay time.Duration
	logger     *slog.Logger

	self   entities.ID
	state  State
	child  entities.ID
	parent entities.ID
	last   Outcome

	cancelReset func() bool
	tornDown    bool
}

var _ entities.Script = (*Tool)(nil)

func New(deps Deps, opts Options) *Tool {
	if opts.ResetDelay <= 0 {
		opts.ResetDelay = DefaultResetDelay
	}
	if opts.Volume <= 0 {
		opts.Volume = DefaultVolume
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Tool{
		host:       deps.Host,
		sounds:     deps.Sounds,
		feedback:   newPresenter(deps.Host, deps.Audio, deps.Assets, opts.Volume),
		resetDelay: opts.ResetDelay,
		logger:     opts.Logger,
		child:      entities.NilID,
		parent:     entities.NilID,
	}
}

func (t *Tool) State() State { return t.state }

func (t *Tool) LastOutcome() Outcome { return t.last }

// Child returns the selected child, if any.
func (t *Tool) Child() (entities.ID, bool) { return t.child, t.child != entities.NilID }

// Parent returns the selected parent, if any.
func (t *Tool) Parent() (entities.ID, bool) { return t.parent, t.parent != entities.NilID }

func (t *Tool) Initialize(self entities.ID) {
	t.self = self
	t.logger = t.logger.With("tool", self)
	t.feedback.load(self, t.sounds)
}

// OnPrimaryAction shows whether the actor may use the wand. It never touches
// the selection.
func (t *Tool) OnPrimaryAction(actor entities.ID) {
	if t.tornDown {
		return
	}

	if t.host.CanCreateObjects(actor) {
		t.feedback.present(TextureStart, CueSelect1)
		t.record(OutcomeReady, "actor", actor)
		return
	}

	t.feedback.present(TextureNoPermission, CueError)
	t.record(OutcomePermissionDenied, "actor", actor)
}

func (t *Tool) OnCollision(other entities.ID, _ entities.Collision) {
	if t.tornDown {
		return
	}

	if t.state == StateCooldown {
		t.record(OutcomeCoolingDown, "other", other)
		return
	}

	// a bounce off the child re-delivers the same contact
	if other == t.child {
		t.record(OutcomeDuplicateSelection, "other", other)
		return
	}

	props, ok := t.host.GetProperties(other)
	if !ok {
		t.record(OutcomeTargetMissing, "other", other)
		return
	}

	if props.Locked {
		t.feedback.present(TextureRetry, CueError)
		t.record(OutcomeTargetLocked, "other", other, "name", props.Name)
		return
	}

	if t.child == entities.NilID {
		t.selectChild(props)
		return
	}

	t.parent = other
	t.link()
}

func (t *Tool) selectChild(props entities.Properties) {
	t.child = props.ID

	if props.HasParent() {
		t.host.EditProperties(props.ID, entities.Edit{ParentID: entities.Ref(entities.NilID)})
	}
	if props.Dynamic {
		t.host.EditProperties(props.ID, entities.Edit{Dynamic: entities.Bool(false)})
	}

	t.feedback.present(TextureAwaitingParent, CueSelect2)
	t.state = StateAwaitingParent
	t.record(OutcomeChildSelected, "child", props.ID, "name", props.Name)
}

func (t *Tool) link() {
	t.state = StateLinking

	t.host.EditProperties(t.child, entities.Edit{ParentID: entities.Ref(t.parent)})
	t.feedback.present(TextureSuccess, CueSuccess)

	t.cancelReset = t.host.After(t.resetDelay, func() {
		if t.tornDown {
			return
		}
		t.reset()
	})

	t.state = StateCooldown
	t.record(OutcomeLinked, "child", t.child, "parent", t.parent)
}

func (t *Tool) reset() {
	t.cancelReset = nil
	t.child = entities.NilID
	t.parent = entities.NilID

	t.feedback.present(TextureStart, CueSuccess)
	t.state = StateIdle
	t.record(OutcomeReset)
}

// Teardown cancels a pending reset and asks the host to delete the wand.
func (t *Tool) Teardown() {
	if t.tornDown {
		return
	}
	t.tornDown = true

	if t.cancelReset != nil {
		t.cancelReset()
		t.cancelReset = nil
	}

	t.host.DeleteEntity(t.self)
	t.logger.Debug("parent tool torn down")
}

func (t *Tool) record(o Outcome, args ...any) {
	t.last = o
	t.logger.Debug("parent tool event", append([]any{"outcome", o.String(), "state", t.state.String()}, args...)...)
}
