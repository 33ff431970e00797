package spriteatlas

import (
	"errors"
	"fmt"
	"image"
	"log"
	"path/filepath"

	"github.com/setanarut/spriteatlas/utils"
	"golang.org/x/image/draw"
)

// UV is a frame rectangle on the merged sheet, top-left origin.
type UV struct {
	U int `json:"u"`
	V int `json:"v"`
	W int `json:"w"`
	H int `json:"h"`
}

type MergedMeta struct {
	FileName string          `json:"file_name"`
	Size     [2]int          `json:"size"`
	Sprites  map[string][]UV `json:"sprites"`
}

// PackedSheet is a sheet that was already packed by an external tool.
type PackedSheet struct {
	Source string
	Export *Export
	Image  image.Image
}

// Merge stacks sheets vertically in order. The result is as wide as the
// widest sheet and as tall as all of them together; frames of each sheet are
// shifted down by the heights of the sheets above it.
func Merge(sheets []PackedSheet, fileName string) (*image.NRGBA, *MergedMeta, error) {
	var size image.Point
	for _, s := range sheets {
		b := s.Image.Bounds()
		size.X = max(size.X, b.Dx())
		size.Y += b.Dy()
	}

	img := image.NewNRGBA(image.Rectangle{Max: size})
	meta := &MergedMeta{
		FileName: fileName,
		Size:     [2]int{size.X, size.Y},
		Sprites:  make(map[string][]UV),
	}

	offset := 0
	for _, s := range sheets {
		b := s.Image.Bounds()
		local := image.Rectangle{Max: b.Size()}
		for _, f := range s.Export.Frames {
			name, err := parseSequenceName(f.Filename)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", s.Source, err)
			}
			if f.Frame.W < 0 || f.Frame.H < 0 || !f.Frame.Rectangle().In(local) {
				return nil, nil, fmt.Errorf("%s: frame %s: %w", s.Source, f.Filename, ErrOutOfBounds)
			}
			meta.Sprites[name] = append(meta.Sprites[name], UV{
				U: f.Frame.X,
				V: f.Frame.Y + offset,
				W: f.Frame.W,
				H: f.Frame.H,
			})
		}
		draw.Draw(img, local.Add(image.Pt(0, offset)), s.Image, b.Min, draw.Src)
		offset += b.Dy()
	}
	return img, meta, nil
}

// MergeFiles runs the merge pipeline over opt.Merge.Inputs and writes
// <OutputName>.png and <OutputName>.json into opt.OutputDir.
func MergeFiles(opt Options) error {
	if len(opt.Merge.Inputs) == 0 {
		return errors.New("merge: no inputs configured")
	}
	sheets := make([]PackedSheet, 0, len(opt.Merge.Inputs))
	for _, path := range opt.Merge.Inputs {
		e, img, err := LoadExport(path)
		if err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		sheets = append(sheets, PackedSheet{Source: path, Export: e, Image: img})
	}

	imageName := opt.Merge.OutputName + ".png"
	img, meta, err := Merge(sheets, imageName)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	png, err := utils.EncodePNG(img)
	if err != nil {
		return err
	}
	data, err := utils.EncodeJSON(meta, opt.JSONIndent)
	if err != nil {
		return err
	}
	if err := utils.WriteFiles(opt.OutputDir,
		utils.File{Name: imageName, Data: png},
		utils.File{Name: opt.Merge.OutputName + ".json", Data: data},
	); err != nil {
		return err
	}
	log.Printf("merge: wrote %s (%dx%d, %d sheets)",
		filepath.Join(opt.OutputDir, imageName), meta.Size[0], meta.Size[1], len(sheets))
	return nil
}
