package hei

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config selects the standard loaders to register and where the asset
// database lives. An empty format list enables every format.
//
//	database: assets.db
//	images: [png, tga, 3df]
//	packages: [wad, zip]
type Config struct {
	Database string   `yaml:"database"`
	Images   []string `yaml:"images"`
	Packages []string `yaml:"packages"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(file string) (*Config, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, err
	}
	return &cfg, nil
}

// ImageFormats returns the image formats the configuration enables.
func (cfg *Config) ImageFormats() (ImageFormat, error) {
	if cfg == nil || len(cfg.Images) == 0 {
		return ImageAll, nil
	}
	return ParseImageFormats(cfg.Images)
}

// PackageFormats returns the package formats the configuration enables.
func (cfg *Config) PackageFormats() (PackageFormat, error) {
	if cfg == nil || len(cfg.Packages) == 0 {
		return PackageAll, nil
	}
	return ParsePackageFormats(cfg.Packages)
}

// Configure registers the standard loaders enabled by cfg with c. A nil
// cfg enables everything.
func (c *Catalog) Configure(cfg *Config) error {
	images, err := cfg.ImageFormats()
	if err != nil {
		return err
	}
	packages, err := cfg.PackageFormats()
	if err != nil {
		return err
	}

	if err := c.RegisterStandardImageLoaders(images); err != nil {
		return err
	}
	return c.RegisterStandardPackageLoaders(packages)
}
