package spriteatlas

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/setanarut/spriteatlas/utils"
)

type frameKey struct {
	name string
	idx  int
}

// SourceFrames extracts sprite images and colliders from one editor export.
// Frames are returned in order of first appearance of their (name, index).
func SourceFrames(e *Export, sheet image.Image) ([]SourceFrame, error) {
	if !e.HasLayer(LayerSprite) {
		return nil, fmt.Errorf("%w: %q", ErrMissingLayer, LayerSprite)
	}

	var order []frameKey
	entries := make(map[frameKey]*SourceFrame)
	hasSprite := make(map[frameKey]bool)
	type layerKey struct {
		frameKey
		layer string
	}
	seen := make(map[layerKey]bool)

	for _, f := range e.Frames {
		name, layer, idx, err := ParseFrameName(f.Filename)
		if err != nil {
			return nil, err
		}
		if !isAllowedLayer(layer) {
			return nil, fmt.Errorf("%w: frame %s has layer %q, only %s, %s and %s are allowed",
				ErrUnknownLayer, f.Filename, layer, LayerSprite, LayerRigidCollider, LayerAttackCollider)
		}
		k := frameKey{name, idx}
		if seen[layerKey{k, layer}] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFrame, f.Filename)
		}
		seen[layerKey{k, layer}] = true
		if f.Frame.W < 0 || f.Frame.H < 0 {
			return nil, fmt.Errorf("%w: frame %s has negative size", ErrOutOfBounds, f.Filename)
		}

		entry, ok := entries[k]
		if !ok {
			entry = &SourceFrame{}
			entries[k] = entry
			order = append(order, k)
		}

		r := f.Frame.Rectangle()
		switch layer {
		case LayerSprite:
			sp, err := ExtractSprite(sheet, name, idx, r)
			if err != nil {
				return nil, err
			}
			entry.Sprite = sp
			hasSprite[k] = true
		case LayerRigidCollider, LayerAttackCollider:
			// Colliders of layers the export does not declare stay absent.
			if !e.HasLayer(layer) {
				continue
			}
			mask, err := ExtractColliderMask(sheet, r)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Filename, err)
			}
			c := DetectCollider(name, idx, mask)
			if layer == LayerRigidCollider {
				entry.RigidCollider = c
			} else {
				entry.AttackCollider = c
			}
		}
	}

	frames := make([]SourceFrame, 0, len(order))
	for _, k := range order {
		if !hasSprite[k] {
			return nil, fmt.Errorf("%w: collider frames of %s.%d have no %s frame",
				ErrInconsistent, k.name, k.idx, LayerSprite)
		}
		frames = append(frames, *entries[k])
	}
	return frames, nil
}

// ImportDir extracts the frames of every export JSON in dir, in file name
// order. (name, index) pairs must be unique across all exports.
func ImportDir(dir string) ([]SourceFrame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var frames []SourceFrame
	owner := make(map[frameKey]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		e, sheet, err := LoadExport(path)
		if err != nil {
			return nil, err
		}
		fs, err := SourceFrames(e, sheet)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, f := range fs {
			k := frameKey{f.Sprite.Name, f.Sprite.FrameIdx}
			if prev, ok := owner[k]; ok {
				return nil, fmt.Errorf("%w: %s.%d in %s and %s",
					ErrDuplicateFrame, k.name, k.idx, prev, path)
			}
			owner[k] = path
		}
		log.Printf("import: %s (%d frames)", path, len(fs))
		frames = append(frames, fs...)
	}
	return frames, nil
}

// Atlas is a packed sheet and its description.
type Atlas struct {
	Image  *image.NRGBA
	Meta   *AtlasMeta
	Frames []Frame
}

func BuildAtlas(frames []SourceFrame) (*Atlas, error) {
	img, packed := PackFrames(frames)
	meta, err := BuildMeta(img.Bounds().Size(), packed)
	if err != nil {
		return nil, err
	}
	return &Atlas{Image: img, Meta: meta, Frames: packed}, nil
}

// Import runs the legacy pipeline: every export under opt.SourceDir is packed
// into <AtlasName>.png and <AtlasName>.json in opt.OutputDir. Nothing is
// written unless every step succeeds.
func Import(opt Options) error {
	frames, err := ImportDir(opt.SourceDir)
	if err != nil {
		return err
	}
	atlas, err := BuildAtlas(frames)
	if err != nil {
		return err
	}

	png, err := utils.EncodePNG(atlas.Image)
	if err != nil {
		return err
	}
	meta, err := utils.EncodeJSON(atlas.Meta, opt.JSONIndent)
	if err != nil {
		return err
	}
	files := []utils.File{
		{Name: opt.AtlasName + ".png", Data: png},
		{Name: opt.AtlasName + ".json", Data: meta},
	}
	if opt.Preview.Enabled {
		preview, err := utils.EncodePNG(RenderPreview(atlas, opt.Preview))
		if err != nil {
			return err
		}
		files = append(files, utils.File{Name: opt.AtlasName + ".preview.png", Data: preview})
	}

	if err := utils.WriteFiles(opt.OutputDir, files...); err != nil {
		return err
	}
	size := atlas.Image.Bounds().Size()
	log.Printf("import: wrote %s (%dx%d, %d frames)",
		filepath.Join(opt.OutputDir, opt.AtlasName+".png"), size.X, size.Y, len(frames))
	return nil
}
