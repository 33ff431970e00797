package utils

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch s {
	case "", "dominantcolor":
		return PaletteMethodDominantColor, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	}
	return 0, fmt.Errorf("unknown palette method %q", s)
}

type weightedColor struct {
	Col    colorful.Color
	Weight float64
}

// SortPaletteByBrightness orders colors from darkest to brightest.
func SortPaletteByBrightness(palette []colorful.Color) {
	slices.SortFunc(palette, func(a, b colorful.Color) int {
		ya, yb := luminance(a), luminance(b)
		if ya < yb {
			return -1
		}
		if ya > yb {
			return 1
		}
		return 0
	})
}

func luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ExtractPalette returns up to k representative colors of img.
func ExtractPalette(img image.Image, k int, method PaletteMethod) []colorful.Color {
	if method == PaletteMethodKMeans {
		if p := ExtractKMeansPalette(img, k); len(p) != 0 {
			return p
		}
		log.Println("palette: kmeans returned empty palette, falling back to dominantcolor")
	}
	return ExtractDominantPalette(img, k)
}

func ExtractDominantPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}
	candidates := dominantcolor.FindWeight(img, max(24, k*8))
	if len(candidates) == 0 {
		return nil
	}
	weighted := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		weighted = append(weighted, weightedColor{Col: col.Clamped(), Weight: c.Weight})
	}
	return selectDiverseWeighted(weighted, k)
}

func ExtractKMeansPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// Subsample large sheets.
	maxSamples := 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	cc, err := kmeans.New().Partition(dataset, min(max(k*4, k+2), len(dataset)))
	if err != nil || len(cc) == 0 {
		return nil
	}
	weighted := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		weighted = append(weighted, weightedColor{Col: col, Weight: float64(len(c.Observations))})
	}
	return selectDiverseWeighted(weighted, k)
}

// selectDiverseWeighted seeds with the heaviest color and then repeatedly
// adds the candidate farthest (in Lab) from the current selection, favoring
// heavier candidates.
func selectDiverseWeighted(cands []weightedColor, k int) []colorful.Color {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	maxW := 0.0
	seed := 0
	for i, c := range cands {
		if c.Weight > maxW {
			maxW = c.Weight
			seed = i
		}
	}
	if maxW <= 0 {
		maxW = 1
	}
	cols := make([]colorful.Color, len(cands))
	for i, c := range cands {
		cols[i] = c.Col
	}
	picked := farthestFirst(cols, []colorful.Color{cols[seed]}, min(k, len(cols))-1, func(i int) float64 {
		return 0.55 + 0.45*math.Sqrt(max(cands[i].Weight, 1e-6)/maxW)
	})
	return append([]colorful.Color{cols[seed]}, picked...)
}

// ContrastColors picks n saturated colors that stand out against palette.
func ContrastColors(palette []colorful.Color, n int) []colorful.Color {
	if n <= 0 {
		return nil
	}
	cands := make([]colorful.Color, 0, 74)
	for h := 0; h < 360; h += 10 {
		cands = append(cands, colorful.Hsv(float64(h), 1, 1), colorful.Hsv(float64(h), 0.6, 0.8))
	}
	cands = append(cands, colorful.Color{R: 1, G: 1, B: 1}, colorful.Color{})
	return farthestFirst(cands, palette, n, nil)
}

// farthestFirst greedily picks n candidates maximizing the (optionally
// weighted) Lab distance to everything already taken, starting from taken.
func farthestFirst(cands, taken []colorful.Color, n int, weight func(i int) float64) []colorful.Color {
	selected := slices.Clone(taken)
	used := make([]bool, len(cands))
	out := make([]colorful.Color, 0, n)
	for len(out) < n {
		bestIdx := -1
		bestScore := -1.0
		for i, c := range cands {
			if used[i] || slices.Contains(selected, c) {
				continue
			}
			minD := math.MaxFloat64
			for _, s := range selected {
				minD = min(minD, c.DistanceLab(s))
			}
			score := minD
			if weight != nil {
				score *= weight(i)
			}
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		used[bestIdx] = true
		selected = append(selected, cands[bestIdx])
		out = append(out, cands[bestIdx])
	}
	return out
}

// RGBA converts c to an opaque 8-bit color.
func RGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
