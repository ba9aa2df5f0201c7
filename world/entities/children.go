package entities

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrCircularParent = errors.New("entity cannot be parented to itself or its descendants")

// Match is one candidate for an alias lookup.
type Match struct {
	Text   string
	Entity *Entity
}

type Children struct {
	mu sync.RWMutex

	childrenByAlias map[string][]*Entity
	aliasesByChild  map[*Entity][]string
}

func NewChildren() *Children {
	return &Children{
		childrenByAlias: make(map[string][]*Entity),
		aliasesByChild:  make(map[*Entity][]string),
	}
}

func (c *Children) AddChild(child *Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.aliasesByChild[child]; ok {
		return
	}

	// an entity without aliases is still a child, it just can't be looked up
	c.aliasesByChild[child] = append([]string(nil), child.Aliases...)
	for _, alias := range child.Aliases {
		c.childrenByAlias[alias] = append(c.childrenByAlias[alias], child)
	}
}

func (c *Children) RemoveChild(child *Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	aliases, ok := c.aliasesByChild[child]
	if !ok {
		return
	}

	for _, alias := range aliases {
		old := c.childrenByAlias[alias]
		kept := make([]*Entity, 0, len(old))
		for _, oe := range old {
			if oe != child {
				kept = append(kept, oe)
			}
		}
		if len(kept) == 0 {
			delete(c.childrenByAlias, alias)
		} else {
			c.childrenByAlias[alias] = kept
		}
	}
	delete(c.aliasesByChild, child)
}

// GetChildren returns direct children ordered by name.
func (c *Children) GetChildren() []*Entity {
	c.mu.RLock()
	children := make([]*Entity, 0, len(c.aliasesByChild))
	for child := range c.aliasesByChild {
		children = append(children, child)
	}
	c.mu.RUnlock()

	sort.Slice(children, func(i, j int) bool { return children[i].Name() < children[j].Name() })
	return children
}

// GetChildrenByAlias searches this level and every level below it.
func (c *Children) GetChildrenByAlias(alias string) []Match {
	matches := make([]Match, 0, 4)

	c.mu.RLock()
	direct := append([]*Entity(nil), c.childrenByAlias[alias]...)
	c.mu.RUnlock()

	for _, child := range direct {
		text := child.Name()
		if parent := child.Parent(); parent != nil {
			text = fmt.Sprintf("%s (on %s)", text, parent.Name())
		}
		matches = append(matches, Match{Text: text, Entity: child})
	}

	for _, child := range c.GetChildren() {
		matches = append(matches, child.GetChildrenByAlias(alias)...)
	}

	return matches
}
