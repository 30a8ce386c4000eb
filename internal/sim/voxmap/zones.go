package voxmap

import (
	"fmt"

	"voxedit.ai/internal/sim/edit"
	"voxedit.ai/internal/sim/voxel"
)

// Zone is a protected box. Only its owner may write inside it.
type Zone struct {
	Name  string      `yaml:"name" json:"name"`
	Owner string      `yaml:"owner" json:"owner"`
	Min   voxel.Point `yaml:"min" json:"min"`
	Max   voxel.Point `yaml:"max" json:"max"`
}

func (z Zone) Contains(p voxel.Point) bool {
	return p.X >= z.Min.X && p.X <= z.Max.X &&
		p.Y >= z.Min.Y && p.Y <= z.Max.Y &&
		p.Z >= z.Min.Z && p.Z <= z.Max.Z
}

func (s *Store) SetZones(zones []Zone) {
	s.zones = append([]Zone(nil), zones...)
}

func (s *Store) Zones() []Zone { return s.zones }

// CanWrite reports whether actor may change p, and the zone refusing it.
func (s *Store) CanWrite(actor string, p voxel.Point) (bool, string) {
	for _, z := range s.zones {
		if z.Contains(p) && z.Owner != actor {
			return false, z.Name
		}
	}
	return true, ""
}

// View is the store as seen by one actor.
type View struct {
	s     *Store
	actor string
}

var _ edit.Grid = View{}

func (s *Store) View(actor string) View { return View{s: s, actor: actor} }

func (v View) Cell(p voxel.Point) voxel.Cell { return v.s.Cell(p) }

func (v View) SetColor(p voxel.Point, c voxel.Color) error {
	return v.write(p, voxel.Solid(c))
}

func (v View) Clear(p voxel.Point) error {
	return v.write(p, voxel.Empty())
}

func (v View) write(p voxel.Point, c voxel.Cell) error {
	if ok, zone := v.s.CanWrite(v.actor, p); !ok {
		return fmt.Errorf("%w: %s is inside zone %q", edit.ErrPermissionDenied, p, zone)
	}
	v.s.Put(p, c)
	return nil
}
