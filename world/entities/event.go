package entities

import (
	"fmt"
	"time"
)

// Host allows scripts to act on the world without tightly coupling them to a
// specific world implementation.
type Host interface {
	GetProperties(id ID) (Properties, bool)
	EditProperties(id ID, edit Edit)
	DeleteEntity(id ID)
	CanCreateObjects(actor ID) bool
	After(delay time.Duration, fn func()) (cancel func() bool)
}

// Script is the behaviour attached to a scripted entity. Every call happens
// on the host's event loop, one at a time.
type Script interface {
	Initialize(self ID)
	OnPrimaryAction(actor ID)
	OnCollision(other ID, info Collision)
	Teardown()
}

type Collision struct {
	Contact     Vec3
	Penetration Vec3
}

type EventType int

const (
	EventCreate EventType = iota
	EventPrimaryAction
	EventCollision
	EventDestroy
)

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventPrimaryAction:
		return "primary_action"
	case EventCollision:
		return "collision"
	case EventDestroy:
		return "destroy"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

type Event struct {
	Type      EventType
	Source    ID
	Actor     ID
	Target    ID
	Collision Collision
}

// Deliver routes the event to the matching script hook.
func (ev *Event) Deliver(s Script) error {
	switch ev.Type {
	case EventCreate:
		s.Initialize(ev.Source)
	case EventPrimaryAction:
		s.OnPrimaryAction(ev.Actor)
	case EventCollision:
		if ev.Target == NilID {
			return fmt.Errorf("collision event for '%s' has no target", ev.Source)
		}
		s.OnCollision(ev.Target, ev.Collision)
	case EventDestroy:
		s.Teardown()
	default:
		return fmt.Errorf("unknown event type '%s'", ev.Type)
	}
	return nil
}
