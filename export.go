package spriteatlas

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/setanarut/spriteatlas/utils"
)

// Export is a sprite sheet JSON export as written by the editor.
type Export struct {
	Frames []ExportFrame
	Meta   ExportMeta
}

type ExportRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func (r ExportRect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

type ExportFrame struct {
	Filename string     `json:"filename"`
	Frame    ExportRect `json:"frame"`
}

type ExportLayer struct {
	Name string `json:"name"`
}

type ExportMeta struct {
	Image string `json:"image"`
	Size  struct {
		W int `json:"w"`
		H int `json:"h"`
	} `json:"size"`
	Layers []ExportLayer `json:"layers"`
}

// UnmarshalJSON accepts frames both as an array and as an object keyed by
// filename. Object entries are ordered by key.
func (e *Export) UnmarshalJSON(data []byte) error {
	var raw struct {
		Frames json.RawMessage `json:"frames"`
		Meta   ExportMeta      `json:"meta"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Meta = raw.Meta
	e.Frames = nil

	frames := bytes.TrimSpace(raw.Frames)
	if len(frames) == 0 || bytes.Equal(frames, []byte("null")) {
		return nil
	}
	switch frames[0] {
	case '[':
		return json.Unmarshal(frames, &e.Frames)
	case '{':
		byName := map[string]ExportFrame{}
		if err := json.Unmarshal(frames, &byName); err != nil {
			return err
		}
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			f := byName[name]
			if f.Filename == "" {
				f.Filename = name
			}
			e.Frames = append(e.Frames, f)
		}
		return nil
	}
	return errors.New("frames must be an array or an object")
}

func (e *Export) HasLayer(name string) bool {
	return slices.ContainsFunc(e.Meta.Layers, func(l ExportLayer) bool {
		return l.Name == name
	})
}

// LoadExport reads the export JSON at path and the sheet image it refers to.
func LoadExport(path string) (*Export, image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var e Export
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if e.Meta.Image == "" {
		return nil, nil, fmt.Errorf("%s: meta.image is empty", path)
	}
	sheet, err := utils.ReadImage(filepath.Join(filepath.Dir(path), e.Meta.Image))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return &e, sheet, nil
}

// ParseFrameName splits "<sprite>.<layer>.<index>".
func ParseFrameName(s string) (sprite, layer string, frameIdx int, err error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 || parts[0] == "" {
		return "", "", 0, fmt.Errorf("%w: %q, want <sprite>.<layer>.<index>", ErrBadFrameName, s)
	}
	frameIdx, err = strconv.Atoi(parts[2])
	if err != nil || frameIdx < 0 {
		return "", "", 0, fmt.Errorf("%w: %q has a bad frame index", ErrBadFrameName, s)
	}
	return parts[0], parts[1], frameIdx, nil
}

// parseSequenceName splits "<sprite>.<index>" or a bare "<sprite>".
func parseSequenceName(s string) (string, error) {
	name, idx, ok := strings.Cut(s, ".")
	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrBadFrameName, s)
	}
	if !ok {
		return name, nil
	}
	if n, err := strconv.Atoi(idx); err != nil || n < 0 {
		return "", fmt.Errorf("%w: %q, want <sprite>.<index>", ErrBadFrameName, s)
	}
	return name, nil
}

func isAllowedLayer(layer string) bool {
	switch layer {
	case LayerSprite, LayerRigidCollider, LayerAttackCollider:
		return true
	}
	return false
}
