package spriteatlas

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/setanarut/spriteatlas/utils"
)

type testFrame struct {
	name string
	r    image.Rectangle
}

func writeExport(t *testing.T, dir, base string, sheet image.Image, layers []string, frames []testFrame) {
	t.Helper()
	data, err := utils.EncodePNG(sheet)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, base+".png"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	sb.WriteString(`{"frames": [`)
	for i, f := range frames {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"filename": %q, "frame": {"x": %d, "y": %d, "w": %d, "h": %d}}`,
			f.name, f.r.Min.X, f.r.Min.Y, f.r.Dx(), f.r.Dy())
	}
	fmt.Fprintf(&sb, `], "meta": {"image": %q, "layers": [`, base+".png")
	for i, l := range layers {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"name": %q}`, l)
	}
	sb.WriteString("]}}")
	if err := os.WriteFile(filepath.Join(dir, base+".json"), []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

// knightSheet holds one extruded 8x8 sprite frame at (1,1) and its rigid
// collider frame at (11,1) with a 3x3 box at local (2,3).
func knightSheet() *image.NRGBA {
	sheet := solid(20, 10, color.NRGBA{})
	for y := range 10 {
		for x := range 10 {
			sheet.SetNRGBA(x, y, color.NRGBA{R: 200, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	for y := 4; y <= 6; y++ {
		for x := 13; x <= 15; x++ {
			sheet.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	return sheet
}

func testOptions(root string) Options {
	opt := DefaultOptions()
	return opt.Resolve(root)
}

func TestImportEndToEnd(t *testing.T) {
	root := t.TempDir()
	opt := testOptions(root)
	if err := os.MkdirAll(opt.SourceDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeExport(t, opt.SourceDir, "knight", knightSheet(),
		[]string{LayerSprite, LayerRigidCollider},
		[]testFrame{
			{"knight.sprite.0", image.Rect(1, 1, 9, 9)},
			{"knight.rigid_collider.0", image.Rect(11, 1, 19, 9)},
		})

	if err := Import(opt); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(opt.OutputDir, "atlas.json"))
	if err != nil {
		t.Fatal(err)
	}
	var meta AtlasMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatal(err)
	}
	if meta.Size != [2]int{10, 10} {
		t.Errorf("size = %v, want [10 10]", meta.Size)
	}
	frames := meta.Frames["knight"]
	if len(frames) != 1 {
		t.Fatalf("knight has %d frames", len(frames))
	}
	if frames[0].Sprite != (Rect{X: 1, Y: 8, W: 8, H: 8}) {
		t.Errorf("sprite = %+v", frames[0].Sprite)
	}
	if rc := frames[0].RigidCollider; rc == nil || *rc != (Rect{X: 2, Y: 5, W: 3, H: 3}) {
		t.Errorf("rigid collider = %+v", rc)
	}
	if frames[0].AttackCollider != nil {
		t.Errorf("attack collider = %+v, want null", frames[0].AttackCollider)
	}

	atlas, err := utils.ReadImage(filepath.Join(opt.OutputDir, "atlas.png"))
	if err != nil {
		t.Fatal(err)
	}
	if got := atlas.Bounds().Size(); got != image.Pt(10, 10) {
		t.Errorf("atlas.png is %v", got)
	}
	r, g, b, _ := atlas.At(3, 4).RGBA()
	if r>>8 != 200 || g>>8 != 3 || b>>8 != 4 {
		t.Errorf("atlas pixel (3,4) = %d,%d,%d", r>>8, g>>8, b>>8)
	}
	if _, err := os.Stat(filepath.Join(opt.OutputDir, "atlas.preview.png")); !errors.Is(err, os.ErrNotExist) {
		t.Error("preview written although disabled")
	}
}

func TestImportWithPreview(t *testing.T) {
	root := t.TempDir()
	opt := testOptions(root)
	opt.Preview.Enabled = true
	opt.Preview.Scale = 3
	opt.Preview.PaletteSize = 0
	if err := os.MkdirAll(opt.SourceDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeExport(t, opt.SourceDir, "knight", knightSheet(), []string{LayerSprite},
		[]testFrame{{"knight.sprite.0", image.Rect(1, 1, 9, 9)}})

	if err := Import(opt); err != nil {
		t.Fatal(err)
	}
	preview, err := utils.ReadImage(filepath.Join(opt.OutputDir, "atlas.preview.png"))
	if err != nil {
		t.Fatal(err)
	}
	if got := preview.Bounds().Size(); got != image.Pt(30, 30) {
		t.Errorf("preview is %v, want 30x30", got)
	}
}

func TestImportFailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name   string
		layers []string
		frames []testFrame
		want   error
	}{
		{
			name:   "frame outside sheet",
			layers: []string{LayerSprite},
			frames: []testFrame{{"knight.sprite.0", image.Rect(15, 1, 23, 9)}},
			want:   ErrOutOfBounds,
		},
		{
			name:   "collider outside sheet",
			layers: []string{LayerSprite, LayerAttackCollider},
			frames: []testFrame{
				{"knight.sprite.0", image.Rect(1, 1, 9, 9)},
				{"knight.attack_collider.0", image.Rect(11, 5, 19, 13)},
			},
			want: ErrOutOfBounds,
		},
		{
			name:   "missing sprite layer",
			layers: []string{LayerRigidCollider},
			frames: []testFrame{{"knight.rigid_collider.0", image.Rect(11, 1, 19, 9)}},
			want:   ErrMissingLayer,
		},
		{
			name:   "unknown layer",
			layers: []string{LayerSprite, "shadow"},
			frames: []testFrame{
				{"knight.sprite.0", image.Rect(1, 1, 9, 9)},
				{"knight.shadow.0", image.Rect(11, 1, 19, 9)},
			},
			want: ErrUnknownLayer,
		},
		{
			name:   "collider without sprite frame",
			layers: []string{LayerSprite, LayerRigidCollider},
			frames: []testFrame{
				{"knight.sprite.0", image.Rect(1, 1, 9, 9)},
				{"knight.rigid_collider.1", image.Rect(11, 1, 19, 9)},
			},
			want: ErrInconsistent,
		},
		{
			name:   "duplicate frame",
			layers: []string{LayerSprite},
			frames: []testFrame{
				{"knight.sprite.0", image.Rect(1, 1, 9, 9)},
				{"knight.sprite.00", image.Rect(1, 1, 9, 9)},
			},
			want: ErrDuplicateFrame,
		},
		{
			name:   "bad frame name",
			layers: []string{LayerSprite},
			frames: []testFrame{{"knight-0", image.Rect(1, 1, 9, 9)}},
			want:   ErrBadFrameName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			opt := testOptions(root)
			if err := os.MkdirAll(opt.SourceDir, 0o755); err != nil {
				t.Fatal(err)
			}
			writeExport(t, opt.SourceDir, "knight", knightSheet(), tt.layers, tt.frames)

			err := Import(opt)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			entries, err := os.ReadDir(opt.OutputDir)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				t.Fatal(err)
			}
			if len(entries) != 0 {
				t.Errorf("output dir has %d entries after a failed run", len(entries))
			}
		})
	}
}

func TestImportDirDuplicateAcrossExports(t *testing.T) {
	dir := t.TempDir()
	for _, base := range []string{"a", "b"} {
		writeExport(t, dir, base, knightSheet(), []string{LayerSprite},
			[]testFrame{{"knight.sprite.0", image.Rect(1, 1, 9, 9)}})
	}
	if _, err := ImportDir(dir); !errors.Is(err, ErrDuplicateFrame) {
		t.Errorf("got %v, want ErrDuplicateFrame", err)
	}
}

func TestBuildAtlasSourceOrder(t *testing.T) {
	frames := []SourceFrame{
		{Sprite: Sprite{Name: "rat", FrameIdx: 1, Image: gradient(6, 6, 1)}},
		{Sprite: Sprite{Name: "rat", FrameIdx: 0, Image: gradient(12, 12, 2)}},
	}
	atlas, err := BuildAtlas(frames)
	if err != nil {
		t.Fatal(err)
	}
	if len(atlas.Frames) != 2 || atlas.Frames[0].Sprite.FrameIdx != 1 {
		t.Fatalf("frames reordered: %+v", atlas.Frames)
	}
	rat := atlas.Meta.Frames["rat"]
	if len(rat) != 2 || rat[0].Sprite.W != 10 || rat[1].Sprite.W != 4 {
		t.Errorf("rat frames = %+v", rat)
	}
}

func TestSourceFramesUndeclaredColliderLayer(t *testing.T) {
	e := &Export{
		Frames: []ExportFrame{
			{Filename: "knight.sprite.0", Frame: ExportRect{X: 1, Y: 1, W: 8, H: 8}},
			{Filename: "knight.rigid_collider.0", Frame: ExportRect{X: 11, Y: 1, W: 8, H: 8}},
		},
		Meta: ExportMeta{Layers: []ExportLayer{{Name: LayerSprite}}},
	}
	frames, err := SourceFrames(e, knightSheet())
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 || frames[0].RigidCollider != nil {
		t.Errorf("frames = %+v, want one frame without collider", frames)
	}
}
