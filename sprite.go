package spriteatlas

import (
	"errors"
	"image"
)

// Layer names allowed in editor exports.
const (
	LayerSprite         = "sprite"
	LayerRigidCollider  = "rigid_collider"
	LayerAttackCollider = "attack_collider"
)

var (
	ErrMissingLayer   = errors.New("missing required layer")
	ErrUnknownLayer   = errors.New("unknown layer")
	ErrOutOfBounds    = errors.New("frame rectangle exceeds sheet bounds")
	ErrInconsistent   = errors.New("inconsistent frame data")
	ErrBadFrameName   = errors.New("malformed frame name")
	ErrDuplicateFrame = errors.New("duplicate frame")
)

// Sprite is an extracted frame that has not been placed on the atlas yet.
// Image keeps the 1 pixel extrusion border of the source sheet.
type Sprite struct {
	Name     string
	FrameIdx int
	Image    *image.NRGBA
}

func (s Sprite) W() int { return s.Image.Bounds().Dx() }
func (s Sprite) H() int { return s.Image.Bounds().Dy() }

func (s Sprite) area() int { return s.W() * s.H() }

// PlacedSprite is a Sprite with its final top-left corner on the atlas.
type PlacedSprite struct {
	Sprite
	TL image.Point
}

// TR is the top-right pixel of the placed rectangle.
func (p PlacedSprite) TR() image.Point {
	return image.Pt(p.TL.X+p.W()-1, p.TL.Y)
}

// BL is the bottom-left pixel of the placed rectangle.
func (p PlacedSprite) BL() image.Point {
	return image.Pt(p.TL.X, p.TL.Y+p.H()-1)
}

func (p PlacedSprite) Rect() image.Rectangle {
	return image.Rect(p.TL.X, p.TL.Y, p.TL.X+p.W(), p.TL.Y+p.H())
}

// neighborCorners returns the candidate corners produced by this placement:
// one pixel below the bottom-left corner and one pixel right of the top-right one.
func (p PlacedSprite) neighborCorners() []image.Point {
	bl, tr := p.BL(), p.TR()
	return []image.Point{
		image.Pt(bl.X, bl.Y+1),
		image.Pt(tr.X+1, tr.Y),
	}
}

// Collider is a tight bounding box of a collider mask in sprite-local
// coordinates (Y down, relative to the extruded sprite image).
type Collider struct {
	Name     string
	FrameIdx int
	TL       image.Point
	W, H     int
}

// SourceFrame is one animation frame as read from an editor export.
// Nil colliders mean the frame has no collider of that kind.
type SourceFrame struct {
	Sprite         Sprite
	RigidCollider  *Collider
	AttackCollider *Collider
}

// Frame is a SourceFrame after packing.
type Frame struct {
	Sprite         PlacedSprite
	RigidCollider  *Collider
	AttackCollider *Collider
}
