package main

import (
	"log"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/setanarut/spriteatlas"
)

const desc = `Packs editor sprite sheet exports into a single atlas image plus a JSON frame description.`

var cli struct {
	Root   string `default:"." type:"existingdir" help:"Project root all configured paths are relative to."`
	Config string `default:"atlaspack.yaml" help:"Config file, relative to the project root. Missing means defaults."`

	Import struct{} `cmd:"" default:"1" help:"Pack every export under source_dir into one atlas (default)."`
	Merge  struct{} `cmd:"" help:"Stack the pre-packed atlases listed in merge.inputs vertically."`
}

func main() {
	log.SetFlags(0)
	ctx := kong.Parse(
		&cli,
		kong.Name("atlaspack"),
		kong.Description(desc),
	)

	cfgPath := cli.Config
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(cli.Root, cfgPath)
	}
	opt, err := spriteatlas.LoadOptions(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	opt = opt.Resolve(cli.Root)

	switch ctx.Command() {
	case "merge":
		err = spriteatlas.MergeFiles(opt)
	default:
		err = spriteatlas.Import(opt)
	}
	if err != nil {
		log.Fatalf("%s: %v", ctx.Command(), err)
	}
}
