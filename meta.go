package spriteatlas

import (
	"fmt"
	"image"
	"slices"
)

// Rect is a rectangle in the output convention: Y up, origin at the bottom.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type FrameMeta struct {
	Sprite         Rect  `json:"sprite"`
	RigidCollider  *Rect `json:"rigid_collider"`
	AttackCollider *Rect `json:"attack_collider"`
}

// AtlasMeta describes atlas.png. Frames of each sprite are ordered by frame
// index.
type AtlasMeta struct {
	Size   [2]int                 `json:"size"`
	Frames map[string][]FrameMeta `json:"frames"`
}

// FlipY converts a row index between the Y-down and Y-up conventions for a
// space of the given height. It is its own inverse.
func FlipY(height, y int) int {
	return height - (y + 1)
}

// SpriteMeta drops the extrusion border of a placed sprite and flips it into
// sheet space of the given height.
func SpriteMeta(p PlacedSprite, sheetH int) Rect {
	return Rect{
		X: p.TL.X + 1,
		Y: FlipY(sheetH, p.TL.Y+1),
		W: p.W() - 2,
		H: p.H() - 2,
	}
}

// ColliderMeta flips c using the height of its sprite, since colliders live in
// sprite-local coordinates.
func ColliderMeta(c *Collider, spriteH int) *Rect {
	if c == nil {
		return nil
	}
	return &Rect{
		X: c.TL.X,
		Y: FlipY(spriteH, c.TL.Y),
		W: c.W,
		H: c.H,
	}
}

func checkOwner(layer string, s PlacedSprite, c *Collider) error {
	if c == nil {
		return nil
	}
	if c.Name != s.Name || c.FrameIdx != s.FrameIdx {
		return fmt.Errorf("%w: %s %s.%d attached to sprite %s.%d",
			ErrInconsistent, layer, c.Name, c.FrameIdx, s.Name, s.FrameIdx)
	}
	return nil
}

// BuildMeta assembles the atlas description for packed frames on a sheet of
// the given size.
func BuildMeta(size image.Point, frames []Frame) (*AtlasMeta, error) {
	type indexed struct {
		idx  int
		meta FrameMeta
	}
	groups := make(map[string][]indexed)
	for _, f := range frames {
		if err := checkOwner(LayerRigidCollider, f.Sprite, f.RigidCollider); err != nil {
			return nil, err
		}
		if err := checkOwner(LayerAttackCollider, f.Sprite, f.AttackCollider); err != nil {
			return nil, err
		}
		spriteH := f.Sprite.H()
		groups[f.Sprite.Name] = append(groups[f.Sprite.Name], indexed{
			idx: f.Sprite.FrameIdx,
			meta: FrameMeta{
				Sprite:         SpriteMeta(f.Sprite, size.Y),
				RigidCollider:  ColliderMeta(f.RigidCollider, spriteH),
				AttackCollider: ColliderMeta(f.AttackCollider, spriteH),
			},
		})
	}

	meta := &AtlasMeta{
		Size:   [2]int{size.X, size.Y},
		Frames: make(map[string][]FrameMeta, len(groups)),
	}
	for name, group := range groups {
		slices.SortStableFunc(group, func(a, b indexed) int {
			return a.idx - b.idx
		})
		out := make([]FrameMeta, len(group))
		for i, g := range group {
			out[i] = g.meta
		}
		meta.Frames[name] = out
	}
	return meta, nil
}
