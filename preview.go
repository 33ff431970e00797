package spriteatlas

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/setanarut/spriteatlas/utils"
	"golang.org/x/image/draw"
)

var previewBackground = color.NRGBA{R: 24, G: 24, B: 28, A: 255}

// RenderPreview draws the atlas over an opaque background, upscaled, with
// every sprite rectangle and collider outlined.
func RenderPreview(atlas *Atlas, opt PreviewOptions) *image.NRGBA {
	scale := max(opt.Scale, 1)
	b := atlas.Image.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	if b.Empty() {
		return out
	}

	base := image.NewNRGBA(b)
	draw.Draw(base, b, &image.Uniform{C: previewBackground}, image.Point{}, draw.Src)
	draw.Draw(base, b, atlas.Image, b.Min, draw.Over)
	draw.NearestNeighbor.Scale(out, out.Bounds(), base, b, draw.Src, nil)

	spriteCol, rigidCol, attackCol := outlineColors(base, opt)
	for _, f := range atlas.Frames {
		s := f.Sprite
		strokeRect(out, scaleRect(s.Rect().Inset(1), scale), spriteCol)
		if c := f.RigidCollider; c != nil {
			strokeRect(out, scaleRect(colliderRect(s, c), scale), rigidCol)
		}
		if c := f.AttackCollider; c != nil {
			strokeRect(out, scaleRect(colliderRect(s, c), scale), attackCol)
		}
	}
	return out
}

func outlineColors(base image.Image, opt PreviewOptions) (sprite, rigid, attack color.RGBA) {
	method, err := utils.ParsePaletteMethod(opt.PaletteMethod)
	if err != nil {
		method = utils.PaletteMethodDominantColor
	}
	palette := utils.ExtractPalette(base, opt.PaletteSize, method)
	utils.SortPaletteByBrightness(palette)

	cols := utils.ContrastColors(palette, 3)
	fallback := []colorful.Color{
		{R: 1, G: 1, B: 1},
		{R: 0, G: 1, B: 0},
		{R: 1, G: 0, B: 0},
	}
	for len(cols) < 3 {
		cols = append(cols, fallback[len(cols)])
	}
	return utils.RGBA(cols[0]), utils.RGBA(cols[1]), utils.RGBA(cols[2])
}

// colliderRect places a sprite-local collider box on the atlas.
func colliderRect(s PlacedSprite, c *Collider) image.Rectangle {
	tl := s.TL.Add(c.TL)
	return image.Rect(tl.X, tl.Y, tl.X+c.W, tl.Y+c.H)
}

func scaleRect(r image.Rectangle, scale int) image.Rectangle {
	return image.Rectangle{Min: r.Min.Mul(scale), Max: r.Max.Mul(scale)}
}

// strokeRect draws a one pixel outline just inside r.
func strokeRect(dst draw.Image, r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	src := &image.Uniform{C: c}
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}
