package entities

import (
	"maps"
	"math"

	"github.com/google/uuid"
)

// ID identifies an entity in the world. The zero value (uuid.Nil) is the
// "no entity" sentinel used for an unset parent.
type ID = uuid.UUID

var NilID = uuid.Nil

func NewID() ID { return uuid.New() }

type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

func (v Vec3) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Properties is a read snapshot of an entity. Mutating a snapshot has no
// effect on the entity; use Edit.
type Properties struct {
	ID       ID
	Name     string
	Script   string
	Locked   bool
	Dynamic  bool
	ParentID ID
	Position Vec3
	Textures map[string]string
}

func (p Properties) HasParent() bool { return p.ParentID != NilID }

func (p Properties) clone() Properties {
	p.Textures = maps.Clone(p.Textures)
	return p
}

// Edit is a partial property update. Nil fields are left untouched, texture
// entries are merged key by key. Setting ParentID to NilID detaches.
type Edit struct {
	Locked   *bool
	Dynamic  *bool
	ParentID *ID
	Position *Vec3
	Textures map[string]string
}

func Bool(b bool) *bool { return &b }

func Ref(id ID) *ID { return &id }

func (e Edit) IsEmpty() bool {
	return e.Locked == nil && e.Dynamic == nil && e.ParentID == nil && e.Position == nil && len(e.Textures) == 0
}

// apply writes every field but ParentID, which the world owns because it
// also moves the entity between children indexes.
func (p *Properties) apply(e Edit) {
	if e.Locked != nil {
		p.Locked = *e.Locked
	}
	if e.Dynamic != nil {
		p.Dynamic = *e.Dynamic
	}
	if e.Position != nil {
		p.Position = *e.Position
	}
	if len(e.Textures) > 0 {
		if p.Textures == nil {
			p.Textures = make(map[string]string, len(e.Textures))
		}
		maps.Copy(p.Textures, e.Textures)
	}
}
