package spriteatlas

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/setanarut/spriteatlas/utils"
	"gopkg.in/yaml.v3"
)

type Options struct {
	// Directory scanned for editor exports: <name>.json next to its sheet image.
	SourceDir string `yaml:"source_dir"`
	// Directory receiving every generated file.
	OutputDir string `yaml:"output_dir"`
	// Base name of the packed outputs, <AtlasName>.png and <AtlasName>.json.
	AtlasName string `yaml:"atlas_name"`
	// Spaces per JSON indentation level. 0 writes compact JSON.
	JSONIndent int            `yaml:"json_indent"`
	Merge      MergeOptions   `yaml:"merge"`
	Preview    PreviewOptions `yaml:"preview"`
}

type MergeOptions struct {
	// Pre-packed atlas exports, stacked top to bottom in this order.
	Inputs []string `yaml:"inputs"`
	// Base name of the merged outputs.
	OutputName string `yaml:"output_name"`
}

type PreviewOptions struct {
	Enabled bool `yaml:"enabled"`
	// Nearest-neighbour upscale factor.
	Scale int `yaml:"scale"`
	// Number of atlas colors the outline colors must stand out from.
	PaletteSize int `yaml:"palette_size"`
	// "dominantcolor" or "kmeans".
	PaletteMethod string `yaml:"palette_method"`
}

func DefaultOptions() Options {
	return Options{
		SourceDir:  "aseprite",
		OutputDir:  filepath.Join("assets", "sprites"),
		AtlasName:  "atlas",
		JSONIndent: 4,
		Merge: MergeOptions{
			OutputName: "sprite_atlas",
		},
		Preview: PreviewOptions{
			Scale:         2,
			PaletteSize:   6,
			PaletteMethod: utils.PaletteMethodDominantColor.String(),
		},
	}
}

// LoadOptions reads a YAML config over DefaultOptions. A missing file yields
// the defaults.
func LoadOptions(path string) (Options, error) {
	opt := DefaultOptions()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return opt, nil
	}
	if err != nil {
		return opt, fmt.Errorf("config: load %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opt); err != nil {
		return opt, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if err := opt.Validate(); err != nil {
		return opt, fmt.Errorf("config: %s: %w", path, err)
	}
	return opt, nil
}

func (o Options) Validate() error {
	switch {
	case o.SourceDir == "":
		return errors.New("source_dir is empty")
	case o.OutputDir == "":
		return errors.New("output_dir is empty")
	case o.AtlasName == "":
		return errors.New("atlas_name is empty")
	case o.Merge.OutputName == "":
		return errors.New("merge.output_name is empty")
	case o.JSONIndent < 0:
		return fmt.Errorf("json_indent must not be negative, got %d", o.JSONIndent)
	case o.Preview.Scale <= 0:
		return fmt.Errorf("preview.scale must be positive, got %d", o.Preview.Scale)
	case o.Preview.PaletteSize < 0:
		return fmt.Errorf("preview.palette_size must not be negative, got %d", o.Preview.PaletteSize)
	}
	_, err := utils.ParsePaletteMethod(o.Preview.PaletteMethod)
	return err
}

// Resolve returns a copy of o with relative paths joined onto root.
func (o Options) Resolve(root string) Options {
	join := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	o.SourceDir = join(o.SourceDir)
	o.OutputDir = join(o.OutputDir)
	inputs := make([]string, len(o.Merge.Inputs))
	for i, in := range o.Merge.Inputs {
		inputs[i] = join(in)
	}
	o.Merge.Inputs = inputs
	return o
}
