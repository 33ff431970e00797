package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
)

// ReadImage decodes the image at path. PNG and BMP are registered.
func ReadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeJSON marshals v indented by indent spaces. indent <= 0 gives compact
// output.
func EncodeJSON(v any, indent int) ([]byte, error) {
	if indent <= 0 {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", strings.Repeat(" ", indent))
}

// File is a named output blob.
type File struct {
	Name string
	Data []byte
}

// WriteFiles writes all files into dir or none of them. Every file is
// staged as a temp file in dir first and only renamed into place once all
// of them were written.
func WriteFiles(dir string, files ...File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	staged := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	for _, f := range files {
		tmp, err := os.CreateTemp(dir, "."+f.Name+".*.tmp")
		if err != nil {
			cleanup()
			return err
		}
		staged = append(staged, tmp.Name())
		if err := tmp.Chmod(0o644); err != nil {
			tmp.Close()
			cleanup()
			return err
		}
		if _, err := tmp.Write(f.Data); err != nil {
			tmp.Close()
			cleanup()
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}

	for i, f := range files {
		if err := os.Rename(staged[i], filepath.Join(dir, f.Name)); err != nil {
			cleanup()
			return fmt.Errorf("commit %s: %w", f.Name, err)
		}
	}
	return nil
}
