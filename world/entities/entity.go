package entities

import (
	"fmt"
	"strings"
	"sync"
)

type Entity struct {
	mu       sync.RWMutex
	props    Properties
	parent   *Entity
	children *Children

	Aliases []string
}

func NewEntity(name string, aliases []string, props Properties) *Entity {
	props.ID = NewID()
	props.Name = name
	props.ParentID = NilID

	if len(aliases) == 0 {
		aliases = []string{strings.ToLower(name)}
	}

	return &Entity{
		props:    props,
		children: NewChildren(),
		Aliases:  aliases,
	}
}

func (e *Entity) ID() ID {
	return e.props.ID
}

func (e *Entity) Name() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.props.Name
}

func (e *Entity) Script() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.props.Script
}

func (e *Entity) Snapshot() Properties {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.props.clone()
}

// Apply writes an edit to the entity. ParentID is ignored here, see SetParent.
func (e *Entity) Apply(edit Edit) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.props.apply(edit)
}

func (e *Entity) Parent() *Entity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.parent
}

// SetParent moves the entity under parent, nil detaches it. Both children
// indexes are kept in sync.
func (e *Entity) SetParent(parent *Entity) error {
	if parent != nil && (parent == e || parent.DescendsFrom(e)) {
		return fmt.Errorf("parent '%s' to '%s': %w", e.Name(), parent.Name(), ErrCircularParent)
	}

	e.mu.Lock()
	old := e.parent
	e.parent = parent
	if parent == nil {
		e.props.ParentID = NilID
	} else {
		e.props.ParentID = parent.ID()
	}
	e.mu.Unlock()

	if old != nil {
		old.children.RemoveChild(e)
	}
	if parent != nil {
		parent.children.AddChild(e)
	}

	return nil
}

// DescendsFrom reports whether ancestor appears anywhere up e's parent chain.
func (e *Entity) DescendsFrom(ancestor *Entity) bool {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

func (e *Entity) GetChildren() []*Entity {
	return e.children.GetChildren()
}

func (e *Entity) GetChildrenByAlias(alias string) []Match {
	return e.children.GetChildrenByAlias(alias)
}

func (e *Entity) Describe() string {
	p := e.Snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", p.Name, strings.Join(e.Aliases, ", "))
	fmt.Fprintf(&b, "  position: %.2f, %.2f, %.2f\n", p.Position.X, p.Position.Y, p.Position.Z)
	fmt.Fprintf(&b, "  locked: %t, dynamic: %t\n", p.Locked, p.Dynamic)

	if parent := e.Parent(); parent != nil {
		fmt.Fprintf(&b, "  parent: %s\n", parent.Name())
	}

	if children := e.GetChildren(); len(children) > 0 {
		names := make([]string, 0, len(children))
		for _, c := range children {
			names = append(names, c.Name())
		}
		fmt.Fprintf(&b, "  children: %s\n", strings.Join(names, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}
