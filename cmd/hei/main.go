package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/oldtimes-software/hei"
	"github.com/oldtimes-software/hei/image"
	"github.com/urfave/cli/v2"
)

const defaultDB = "hei.db"

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

func loadConfig(c *cli.Context) (*hei.Config, error) {
	if c.String("config") == "" {
		return nil, nil
	}
	return hei.LoadConfig(c.String("config"))
}

func newCatalog(c *cli.Context) (*hei.Catalog, *hei.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}

	catalog := hei.New(nil, newLogger(c))
	if err := catalog.Configure(cfg); err != nil {
		return nil, nil, err
	}
	return catalog, cfg, nil
}

func openDB(c *cli.Context, cfg *hei.Config) (*hei.AssetDB, error) {
	file := c.String("db")
	if !c.IsSet("db") && cfg != nil && cfg.Database != "" {
		file = cfg.Database
	}
	return hei.NewAssetDB(file)
}

func requireArgs(c *cli.Context, n int) {
	if c.NArg() < n {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "hei"
	app.Usage = "Game package and image utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"HEI_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to asset database",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{"HEI_CONFIG"},
			Usage:   "path to YAML configuration",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "ls",
			Usage:     "List the entries of a package",
			ArgsUsage: "PACKAGE",
			Action: func(c *cli.Context) error {
				requireArgs(c, 1)

				catalog, _, err := newCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer catalog.Close()

				pkg, err := catalog.LoadPackage(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer pkg.Destroy()

				w := tabwriter.NewWriter(c.App.Writer, 0, 8, 1, ' ', tabwriter.AlignRight)
				for i, idx := range pkg.Table {
					fmt.Fprintf(w, "%d\t%d\t%d\t %s\n", i, idx.Offset, idx.Size, idx.Name)
				}
				return w.Flush()
			},
		},
		{
			Name:      "extract",
			Usage:     "Extract every entry of a package",
			ArgsUsage: "PACKAGE DIRECTORY",
			Action: func(c *cli.Context) error {
				requireArgs(c, 2)

				catalog, _, err := newCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer catalog.Close()

				pkg, err := catalog.LoadPackage(c.Args().Get(0))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer pkg.Destroy()

				if err := catalog.Extract(c.Context, pkg, c.Args().Get(1)); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "convert",
			Usage:     "Convert an image to another file format",
			ArgsUsage: "INPUT OUTPUT",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "flip",
					Usage: "flip the image vertically",
				},
				&cli.BoolFlag{
					Name:  "invert",
					Usage: "invert the colour channels",
				},
			},
			Action: func(c *cli.Context) error {
				requireArgs(c, 2)

				catalog, _, err := newCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer catalog.Close()

				img, err := catalog.LoadImage(c.Args().Get(0))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer img.Destroy()

				switch img.Format {
				case image.FormatRGB8, image.FormatRGB5A1:
					if err := image.Convert(img, image.FormatRGBA8); err != nil {
						return cli.Exit(err, 1)
					}
				}

				if c.Bool("flip") {
					if err := image.FlipVertical(img); err != nil {
						return cli.Exit(err, 1)
					}
				}

				if c.Bool("invert") {
					if err := image.InvertColour(img); err != nil {
						return cli.Exit(err, 1)
					}
				}

				if err := catalog.WriteImage(img, c.Args().Get(1)); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "info",
			Usage:     "Describe an image",
			ArgsUsage: "IMAGE",
			Action: func(c *cli.Context) error {
				requireArgs(c, 1)

				catalog, _, err := newCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer catalog.Close()

				img, err := catalog.LoadImage(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer img.Destroy()

				fmt.Fprintf(c.App.Writer, "%s: %dx%d, %d level(s), %s/%s, %d bytes\n", img.Path, img.Width, img.Height, img.Levels(), img.Format, img.ColourFormat, img.Size)

				return nil
			},
		},
		{
			Name:      "index",
			Usage:     "Scan a directory and index every package into the database",
			ArgsUsage: "DIRECTORY",
			Action: func(c *cli.Context) error {
				requireArgs(c, 1)

				catalog, cfg, err := newCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer catalog.Close()

				db, err := openDB(c, cfg)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				if err := catalog.Scan(c.Context, db, c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "find",
			Usage:     "Find package entries in the database by name",
			ArgsUsage: "NAME",
			Action: func(c *cli.Context) error {
				requireArgs(c, 1)

				cfg, err := loadConfig(c)
				if err != nil {
					return cli.Exit(err, 1)
				}

				db, err := openDB(c, cfg)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				assets, err := db.FindEntry(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				for _, a := range assets {
					fmt.Fprintf(c.App.Writer, "%s\t%d\t%s\t%d\t%s\n", a.Package, a.Position, a.Name, a.Size, a.Digest)
				}

				return nil
			},
		},
		{
			Name:  "formats",
			Usage: "List the supported image and package formats",
			Action: func(c *cli.Context) error {
				catalog, _, err := newCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer catalog.Close()

				fmt.Fprintf(c.App.Writer, "images:   %v\n", catalog.SupportedImageFormats())
				fmt.Fprintf(c.App.Writer, "packages: %v\n", catalog.SupportedPackageFormats())

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
