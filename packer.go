package spriteatlas

import (
	"image"
	"slices"

	"golang.org/x/image/draw"
)

// ============ SHEET ============

// sheet is the growable bin used while packing. Pixels and the occupancy
// channel always share the same bounds, anchored at (0, 0).
type sheet struct {
	img      *image.NRGBA
	occupied []bool
}

func newSheet() *sheet {
	return &sheet{img: image.NewNRGBA(image.Rectangle{})}
}

func (s *sheet) size() image.Point {
	return s.img.Bounds().Size()
}

// grow extends the sheet by dw columns and dh rows, keeping existing content
// at its current position.
func (s *sheet) grow(dw, dh int) {
	old := s.size()
	w, h := old.X+dw, old.Y+dh
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, s.img.Bounds(), s.img, image.Point{}, draw.Src)

	occupied := make([]bool, w*h)
	for y := range old.Y {
		copy(occupied[y*w:y*w+old.X], s.occupied[y*old.X:(y+1)*old.X])
	}
	s.img = img
	s.occupied = occupied
}

// fits reports whether r lies inside the sheet and covers no occupied cell.
func (s *sheet) fits(r image.Rectangle) bool {
	if !r.In(s.img.Bounds()) {
		return false
	}
	w := s.size().X
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if s.occupied[y*w+x] {
				return false
			}
		}
	}
	return true
}

func (s *sheet) stamp(p PlacedSprite) {
	r := p.Rect()
	draw.Draw(s.img, r, p.Image, p.Image.Bounds().Min, draw.Src)
	w := s.size().X
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			s.occupied[y*w+x] = true
		}
	}
}

// ============ PACKER ============

type packer struct {
	sheet   *sheet
	corners []image.Point
}

func newPacker() *packer {
	return &packer{
		sheet:   newSheet(),
		corners: []image.Point{{}},
	}
}

// feasibleCorner returns the index of the first candidate corner where s
// fits, or -1.
func (p *packer) feasibleCorner(s Sprite) int {
	size := image.Pt(s.W(), s.H())
	for i, tl := range p.corners {
		if p.sheet.fits(image.Rectangle{Min: tl, Max: tl.Add(size)}) {
			return i
		}
	}
	return -1
}

// place puts s on the first feasible corner, growing the sheet by the
// sprite's own size until one exists. The corner of the sprite with the
// right-most edge always has free space to its right, so growth terminates.
func (p *packer) place(s Sprite) PlacedSprite {
	idx := p.feasibleCorner(s)
	for idx < 0 {
		p.sheet.grow(s.W(), s.H())
		idx = p.feasibleCorner(s)
	}
	placed := PlacedSprite{Sprite: s, TL: p.corners[idx]}
	p.corners = slices.Delete(p.corners, idx, idx+1)
	p.sheet.stamp(placed)
	p.corners = append(p.corners, placed.neighborCorners()...)
	return placed
}

// Pack places every sprite onto a single sheet, largest area first, and
// returns the sheet image together with the placements in input order.
func Pack(sprites []Sprite) (*image.NRGBA, []PlacedSprite) {
	order := make([]int, len(sprites))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return sprites[b].area() - sprites[a].area()
	})

	p := newPacker()
	placed := make([]PlacedSprite, len(sprites))
	for _, i := range order {
		placed[i] = p.place(sprites[i])
	}
	return p.sheet.img, placed
}

// PackFrames packs the sprites of frames and carries their colliders along.
func PackFrames(frames []SourceFrame) (*image.NRGBA, []Frame) {
	sprites := make([]Sprite, len(frames))
	for i, f := range frames {
		sprites[i] = f.Sprite
	}
	img, placed := Pack(sprites)
	out := make([]Frame, len(frames))
	for i, f := range frames {
		out[i] = Frame{
			Sprite:         placed[i],
			RigidCollider:  f.RigidCollider,
			AttackCollider: f.AttackCollider,
		}
	}
	return img, out
}
