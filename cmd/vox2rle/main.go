package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/bodgit/vox2rle"
	"github.com/bodgit/vox2rle/cache"
	"github.com/bodgit/vox2rle/config"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// loadConfig reads the configuration file, if any, and applies flag overrides
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if file := c.String("config"); file != "" {
		var err error
		if cfg, err = config.Load(file); err != nil {
			return config.Config{}, err
		}
	}

	if c.IsSet("namespace") {
		cfg.Artifact.Namespace = c.String("namespace")
	}
	if c.IsSet("struct") {
		cfg.Artifact.Struct = c.String("struct")
	}
	if c.IsSet("generator-version") {
		cfg.Artifact.Version = c.Int("generator-version")
	}
	if c.IsSet("max-colors") {
		cfg.MaxColors = c.Int("max-colors")
	}
	if c.IsSet("cache") {
		cfg.Cache = c.String("cache")
	}

	return cfg, cfg.Validate()
}

func newImporter(c *cli.Context, cfg config.Config) (*vox2rle.Importer, func() error, error) {
	var err error
	var db *cache.DB
	closer := func() error { return nil }
	if cfg.Cache != "" {
		if db, err = cache.Open(cfg.Cache); err != nil {
			return nil, nil, err
		}
		closer = db.Close
	}

	return vox2rle.New(cfg, db, newLogger(c)), closer, nil
}

func generate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	var input, header, source string
	switch {
	case c.NArg() == 3:
		input, header, source = config.Resolve(c.String("base"), c.Args().Get(0)), c.Args().Get(1), c.Args().Get(2)
	case c.NArg() == 2 && cfg.Vox != "":
		input, header, source = cfg.Vox, c.Args().Get(0), c.Args().Get(1)
	default:
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	im, closer, err := newImporter(c, cfg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer closer()

	if _, err := im.Generate(input, header, source, c.Bool("force")); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "vox2rle"
	app.Usage = "MagicaVoxel to run-length encoded data converter"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			EnvVars: []string{config.EnvConfig},
			Usage:   "path to TOML configuration",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.IntFlag{
			Name:  "max-colors",
			Usage: "quantize the palette down to at most `N` entries",
		},
		&cli.StringFlag{
			Name:  "cache",
			Usage: "path to manifest database",
		},
	}

	generateFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "base",
			Usage: "directory the input path is relative to",
		},
		&cli.StringFlag{
			Name:  "namespace",
			Usage: "C++ namespace of the generated code",
		},
		&cli.StringFlag{
			Name:  "struct",
			Usage: "name of the generated struct",
		},
		&cli.IntFlag{
			Name:  "generator-version",
			Usage: "version marker written to the artifacts",
		},
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "regenerate even if up to date",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "generate",
			Usage:       "Generate C++ header and source from a .vox file",
			Description: "INPUT may be omitted if the configuration names a vox file.",
			ArgsUsage:   "[INPUT] HEADER SOURCE",
			Flags:       generateFlags,
			Action:      generate,
		},
		{
			Name:        "scan",
			Usage:       "Generate C++ code next to every .vox file in a directory",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Flags:       generateFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cfg, err := loadConfig(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				im, closer, err := newImporter(c, cfg)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				if err := im.Scan(c.Args().First(), c.Bool("force")); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "pack",
			Usage:       "Write a .vox file as a binary blob",
			Description: "",
			ArgsUsage:   "INPUT OUTPUT",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "compress",
					Aliases: []string{"z"},
					Usage:   "compress the blob with zstd",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cfg, err := loadConfig(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				// The cache only tracks generated code
				im := vox2rle.New(cfg, nil, newLogger(c))

				if err := im.Pack(c.Args().Get(0), c.Args().Get(1), c.Bool("compress")); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "info",
			Usage:       "Print statistics about a .vox file",
			Description: "",
			ArgsUsage:   "INPUT",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				cfg, err := loadConfig(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				r, err := vox2rle.New(cfg, nil, newLogger(c)).Convert(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				voxels := 0
				for _, v := range r.Volume.Voxels {
					if v != 0 {
						voxels++
					}
				}

				fmt.Fprintf(c.App.Writer, "size:    %dx%dx%d\n", r.Volume.X, r.Volume.Y, r.Volume.Z)
				fmt.Fprintf(c.App.Writer, "voxels:  %d of %d\n", voxels, r.Volume.Len())
				fmt.Fprintf(c.App.Writer, "palette: %d entries\n", len(r.Palette))
				fmt.Fprintf(c.App.Writer, "rle:     %d bytes\n", len(r.RLE))

				return nil
			},
		},
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
