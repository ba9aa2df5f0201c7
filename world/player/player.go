package player

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"example.com/parentator/world/entities"
)

var safeNameRegex = regexp.MustCompile(`[^a-zA-Z]+`)

var ErrNothingEquipped = errors.New("nothing equipped")

type Player struct {
	ID      entities.ID
	Name    string
	Pending *PendingAction

	mu           sync.Mutex
	nextActionAt time.Time
	tool         entities.ID
	inbox        chan string
	world        World
}

type World interface {
	GetEntityById(id entities.ID) (*entities.Entity, bool)
	FindByAlias(alias string) []entities.Match
	TopLevel() []*entities.Entity

	Dispatch(ev *entities.Event) error
	EditProperties(id entities.ID, edit entities.Edit)
	SetPermission(actor entities.ID, canRez bool)
	SetListener(pos entities.Vec3)

	Watch(target, watcher entities.ID, inbox chan string)
	Unwatch(watcher entities.ID)
}

func NewPlayer(name string, canRez bool, world World, inbox chan string) *Player {
	p := &Player{
		ID:    entities.NewID(),
		Name:  name,
		tool:  entities.NilID,
		inbox: inbox,
		world: world,
	}
	world.SetPermission(p.ID, canRez)
	return p
}

func NameValidation(name string) string {
	if len(name) == 0 {
		return "Please, speak up! I didn't hear a name.\n"
	} else if len(name) > 20 {
		return "That's much too long to remember!\n"
	}

	testName := safeNameRegex.ReplaceAllString(name, "")

	if testName != name {
		return "I'm no good with numbers or spaces, and I only speak English!\n"
	}

	return ""
}

func (p *Player) CooldownRemaining() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if now.Before(p.nextActionAt) {
		return time.Until(p.nextActionAt)
	}
	return 0
}

func (p *Player) StartCooldown(d time.Duration) {
	p.mu.Lock()
	p.nextActionAt = time.Now().Add(d)
	p.mu.Unlock()
}

func (p *Player) Tool() (entities.ID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tool, p.tool != entities.NilID
}

func (p *Player) Look(alias string) (string, error) {
	if alias == "" {
		var b strings.Builder
		b.WriteString("You see:\n")
		for _, e := range p.world.TopLevel() {
			fmt.Fprintf(&b, "- %s\n", e.Name())
			for _, child := range e.GetChildren() {
				fmt.Fprintf(&b, "    - %s\n", child.Name())
			}
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}

	return p.withTarget(alias, "look at", func(target *entities.Entity) (string, error) {
		return target.Describe(), nil
	})
}

// Equip picks up a scripted entity and uses it, which is the tool's
// primary action.
func (p *Player) Equip(alias string) (string, error) {
	return p.withTarget(alias, "equip", p.equipEntity)
}

func (p *Player) equipEntity(target *entities.Entity) (string, error) {
	if target.Script() == "" {
		return fmt.Sprintf("The %s does nothing in your hands.", target.Name()), nil
	}

	p.mu.Lock()
	p.tool = target.ID()
	p.mu.Unlock()

	p.world.Watch(target.ID(), p.ID, p.inbox)
	// the server hears from where the tool was picked up
	p.world.SetListener(target.Snapshot().Position)

	err := p.world.Dispatch(&entities.Event{
		Type:   entities.EventPrimaryAction,
		Source: target.ID(),
		Actor:  p.ID,
	})
	if err != nil {
		return "", fmt.Errorf("player '%s' equip '%s': %w", p.Name, target.Name(), err)
	}

	return fmt.Sprintf("You grip the %s.", target.Name()), nil
}

// Throw sends the equipped tool at a target. The tool lands where the
// target is before the collision is delivered.
func (p *Player) Throw(alias string) (string, error) {
	toolID, ok := p.Tool()
	if !ok {
		return "", ErrNothingEquipped
	}

	return p.withTarget(alias, "throw at", func(target *entities.Entity) (string, error) {
		return p.throwAt(toolID, target)
	})
}

func (p *Player) throwAt(toolID entities.ID, target *entities.Entity) (string, error) {
	tool, ok := p.world.GetEntityById(toolID)
	if !ok {
		p.Unequip()
		return "Your hands are empty; whatever you held is gone.", nil
	}
	if target.ID() == toolID {
		return fmt.Sprintf("You can't throw the %s at itself.", tool.Name()), nil
	}

	contact := target.Snapshot().Position
	p.world.EditProperties(toolID, entities.Edit{Position: &contact})

	err := p.world.Dispatch(&entities.Event{
		Type:      entities.EventCollision,
		Source:    toolID,
		Target:    target.ID(),
		Collision: entities.Collision{Contact: contact},
	})
	if err != nil {
		return "", fmt.Errorf("player '%s' throw at '%s': %w", p.Name, target.Name(), err)
	}

	return fmt.Sprintf("The %s bounces off the %s.", tool.Name(), target.Name()), nil
}

func (p *Player) Unequip() string {
	p.mu.Lock()
	had := p.tool != entities.NilID
	p.tool = entities.NilID
	p.mu.Unlock()

	p.world.Unwatch(p.ID)

	if !had {
		return "You aren't holding anything."
	}
	return "You let go."
}

// withTarget resolves alias and runs act on the single match, or returns an
// AmbiguityError listing every candidate.
func (p *Player) withTarget(alias, verb string, act func(*entities.Entity) (string, error)) (string, error) {
	matches := p.world.FindByAlias(alias)

	if len(matches) == 0 {
		return fmt.Sprintf("You wish to %s %s, but that's not here.", verb, alias), nil
	} else if len(matches) == 1 {
		return act(matches[0].Entity)
	}

	return "", &AmbiguityError{
		Prompt:  fmt.Sprintf("Which %s do you want to %s?", alias, verb),
		Matches: matches,
		Execute: act,
	}
}
