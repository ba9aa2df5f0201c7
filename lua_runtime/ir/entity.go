// ir/entity.go
package ir

import (
	"fmt"

	"example.com/parentator/world/entities"
)

type EntityIR struct {
	Name     string
	Aliases  []string
	Script   string
	Locked   bool
	Dynamic  bool
	Position entities.Vec3
	Textures map[string]string
	Children []*EntityIR
}

func (e *EntityIR) Build() (*entities.Entity, error) {
	if e.Name == "" {
		return nil, fmt.Errorf("entity has no name")
	}

	ent := entities.NewEntity(e.Name, e.Aliases, entities.Properties{
		Script:   e.Script,
		Locked:   e.Locked,
		Dynamic:  e.Dynamic,
		Position: e.Position,
		Textures: e.Textures,
	})

	for _, child := range e.Children {
		childEntity, err := child.Build()
		if err != nil {
			return nil, fmt.Errorf("could not build child for entity '%s': %w", e.Name, err)
		}

		if err := childEntity.SetParent(ent); err != nil {
			return nil, fmt.Errorf("could not parent child to entity '%s': %w", e.Name, err)
		}
	}

	return ent, nil
}
