package spriteatlas

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ============ FRAME EXTRACTOR ============

// ExtractSprite slices the sprite layer frame r out of sheet. r refers to an
// extruded frame, so the slice is grown by one pixel on every side to keep
// the extrusion border.
func ExtractSprite(sheet image.Image, name string, frameIdx int, r image.Rectangle) (Sprite, error) {
	img, err := subImage(sheet, r.Inset(-1))
	if err != nil {
		return Sprite{}, fmt.Errorf("sprite %s.%d: %w", name, frameIdx, err)
	}
	return Sprite{Name: name, FrameIdx: frameIdx, Image: img}, nil
}

// ExtractColliderMask slices r out of sheet exactly as given and returns its
// single channel mask: the maximum over the colour and alpha channels.
func ExtractColliderMask(sheet image.Image, r image.Rectangle) (*mat.Dense, error) {
	img, err := subImage(sheet, r)
	if err != nil {
		return nil, err
	}
	return ColliderMask(img), nil
}

// subImage copies r, given relative to the sheet origin, into a new image
// anchored at (0, 0).
func subImage(sheet image.Image, r image.Rectangle) (*image.NRGBA, error) {
	b := sheet.Bounds()
	abs := r.Add(b.Min)
	if r.Min.X < 0 || r.Min.Y < 0 || !abs.In(b) {
		return nil, fmt.Errorf("%w: %v not in %v", ErrOutOfBounds, r, b.Sub(b.Min))
	}
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), sheet, abs.Min, draw.Src)
	return dst, nil
}

// ColliderMask returns the per-pixel maximum of R, G, B and A (non
// premultiplied) as a rows x cols matrix, or nil for an empty image.
func ColliderMask(img image.Image) *mat.Dense {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	m := mat.NewDense(b.Dy(), b.Dx(), nil)
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := range b.Dy() {
			for x := range b.Dx() {
				off := nrgba.PixOffset(b.Min.X+x, b.Min.Y+y)
				px := nrgba.Pix[off : off+4 : off+4]
				m.Set(y, x, float64(max(px[0], px[1], px[2], px[3])))
			}
		}
		return m
	}
	for y := range b.Dy() {
		for x := range b.Dx() {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			m.Set(y, x, float64(max(c.R, c.G, c.B, c.A)))
		}
	}
	return m
}

// ============ COLLIDER DETECTOR ============

// DetectCollider returns the bounding box of the nonzero cells of mask, or
// nil when there are none. Top and bottom are shifted down by one pixel to
// line up with the extruded sprite; left and right are not.
func DetectCollider(name string, frameIdx int, mask *mat.Dense) *Collider {
	if mask == nil {
		return nil
	}
	rows, cols := mask.Dims()

	rowMax := make([]float64, rows)
	for i := range rows {
		rowMax[i] = floats.Max(mask.RawRowView(i))
	}
	if floats.Max(rowMax) == 0 {
		return nil
	}
	colMax := make([]float64, cols)
	col := make([]float64, rows)
	for j := range cols {
		colMax[j] = floats.Max(mat.Col(col, j, mask))
	}

	left, right := firstNonzero(colMax), lastNonzero(colMax)
	top, bottom := firstNonzero(rowMax), lastNonzero(rowMax)
	top++
	bottom++

	return &Collider{
		Name:     name,
		FrameIdx: frameIdx,
		TL:       image.Pt(left, top),
		W:        right - left + 1,
		H:        bottom - top + 1,
	}
}

func firstNonzero(v []float64) int {
	for i, x := range v {
		if x != 0 {
			return i
		}
	}
	return -1
}

func lastNonzero(v []float64) int {
	for i := len(v) - 1; i >= 0; i-- {
		if v[i] != 0 {
			return i
		}
	}
	return -1
}
