package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bodgit/screenpack"
	"github.com/dustin/go-humanize"
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

func options(c *cli.Context) (screenpack.Options, error) {
	opts := screenpack.DefaultOptions()
	opts.Dedup = c.Bool("optimize")
	opts.IgnoreConstraints = c.Bool("force")
	opts.MinImages = c.Int("min-images")
	opts.Colors = c.Int("colors")
	opts.Workers = c.Int("workers")

	opts.MaxSize = 0
	if s := c.String("max-size"); s != "" {
		n, err := humanize.ParseBytes(s)
		if err != nil {
			return opts, fmt.Errorf("bad maximum size: %w", err)
		}
		opts.MaxSize = int64(n)
	}
	return opts, nil
}

func newScreenPack(c *cli.Context) (*screenpack.ScreenPack, func() error, error) {
	logger := newLogger(c)

	opts, err := options(c)
	if err != nil {
		return nil, nil, err
	}

	if c.String("db") == "" {
		return screenpack.New(opts, nil, logger), func() error { return nil }, nil
	}

	catalog, err := screenpack.NewCatalog(c.String("db"))
	if err != nil {
		return nil, nil, err
	}
	return screenpack.New(opts, catalog, logger), catalog.Close, nil
}

func pack(c *cli.Context, src string) error {
	s, done, err := newScreenPack(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer done()

	fmt.Println("Encoding files...")
	result, err := s.Pack(src, c.String("output"))
	if err != nil {
		fmt.Println("Encoding failed")
		return cli.Exit(err, 1)
	}
	fmt.Printf("Encoding finished: %d images, %s\n", len(result.Images), humanize.Bytes(uint64(result.Size)))

	return nil
}

func unpack(c *cli.Context, src string) error {
	s, done, err := newScreenPack(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer done()

	fmt.Println("Decoding files...")
	result, err := s.Unpack(src, c.String("output"))
	if result != nil {
		for _, w := range result.Warnings {
			fmt.Printf("WARNING! %s\n", w)
		}
	}
	if err != nil {
		fmt.Println("Decoding failed")
		return cli.Exit(err, 1)
	}
	fmt.Printf("Decoding finished: %d images\n", result.Written)

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "screenpack"
	app.Usage = "Screen resource packing utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"SCREENPACK_DB"},
			Usage:   "path to catalog database, packing is not recorded if empty",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.IntFlag{
			Name:    "workers",
			EnvVars: []string{"SCREENPACK_WORKERS"},
			Value:   runtime.NumCPU(),
			Usage:   "number of images processed concurrently",
		},
	}

	packFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"d"},
			Value:   filepath.Join(cwd, screenpack.ResourcesDir),
			Usage:   "directory to write resources to",
		},
		&cli.BoolFlag{
			Name:    "optimize",
			Aliases: []string{"o"},
			Usage:   "store identical images only once",
		},
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "ignore identifier and size constraints",
		},
		&cli.IntFlag{
			Name:    "min-images",
			EnvVars: []string{"SCREENPACK_MIN_IMAGES"},
			Value:   screenpack.DefaultMinImages,
			Usage:   "minimum number of images required",
		},
		&cli.StringFlag{
			Name:    "max-size",
			EnvVars: []string{"SCREENPACK_MAX_SIZE"},
			Value:   humanize.IBytes(screenpack.DefaultMaxSize),
			Usage:   "size the image data must stay below, empty for no limit",
		},
		&cli.IntFlag{
			Name:  "colors",
			Usage: "reduce each image to at most this many colors, 0 to disable",
		},
	}

	unpackFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"d"},
			Value:   filepath.Join(cwd, screenpack.BitmapsDir),
			Usage:   "directory to write bitmaps to",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "pack",
			Usage:       "Encode a directory of bitmaps",
			Description: "Bitmaps must be named <id>_<anything>.bmp",
			ArgsUsage:   "DIRECTORY",
			Flags:       packFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				return pack(c, c.Args().First())
			},
		},
		{
			Name:        "unpack",
			Usage:       "Decode resources back into bitmaps",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Flags:       unpackFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				return unpack(c, c.Args().First())
			},
		},
		{
			Name:        "auto",
			Usage:       "Pack or unpack depending on the directory contents",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Flags:       packFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				dir := c.Args().First()
				role, err := screenpack.Detect(dir)
				if err != nil {
					return cli.Exit(err, 1)
				}

				switch role {
				case screenpack.RolePack:
					return pack(c, dir)
				case screenpack.RoleUnpack:
					if !c.IsSet("output") {
						if err := c.Set("output", filepath.Join(cwd, screenpack.BitmapsDir)); err != nil {
							return cli.Exit(err, 1)
						}
					}
					return unpack(c, dir)
				default:
					return cli.Exit(fmt.Sprintf("don't know what to do with directory \"%s\", it should contain only bitmaps or %s and %s", dir, "BMPDATA.BIN", "TABLE.BIN"), 1)
				}
			},
		},
		{
			Name:        "list",
			Usage:       "List the images recorded for a resources directory",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				if c.String("db") == "" {
					return cli.Exit("no catalog database given", 1)
				}

				catalog, err := screenpack.NewCatalog(c.String("db"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer catalog.Close()

				images, err := catalog.Images(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				for _, m := range images {
					shared := ""
					if m.Shared {
						shared = " (shared)"
					}
					fmt.Printf("%s %s %s%s\n", m.Entry, m.Name, m.SHA1, shared)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
