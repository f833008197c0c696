package imagedb

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ThierrySt-Arnaud/ImageHashSearch/phash"
)

const (
	DefaultHashBits   = 64
	DefaultImageWidth = 256
)

// Config describes the images accepted by a DB and the hashes built from them.
type Config struct {
	// HashBits is the hash length, a perfect square of at least 4.
	HashBits int `yaml:"hash_bits"`
	// ImageWidth is the side of the square images; ImageWidth^2 must be a
	// power of two larger than HashBits.
	ImageWidth int `yaml:"image_width"`
	// Extensions lists the file name suffixes picked up from a directory.
	Extensions []string `yaml:"extensions"`
	// Workers bounds the number of images decoded and hashed concurrently.
	Workers int `yaml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		HashBits:   DefaultHashBits,
		ImageWidth: DefaultImageWidth,
		Extensions: []string{".pgm"},
		Workers:    runtime.NumCPU(),
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig and validates it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}

	return cfg, cfg.Validate()
}

// ImageSize returns the number of samples in an accepted image.
func (cfg Config) ImageSize() int {
	return cfg.ImageWidth * cfg.ImageWidth
}

// Validate checks the hash and image sizes against the hashing rules.
func (cfg Config) Validate() error {
	if err := phash.ValidateHashLength(cfg.HashBits); err != nil {
		return err
	}

	if err := phash.ValidateImageLength(cfg.ImageSize(), cfg.HashBits); err != nil {
		return err
	}

	if len(cfg.Extensions) == 0 {
		return errors.New("imagedb: no image extensions configured")
	}

	if cfg.Workers < 1 {
		return errors.Errorf("imagedb: invalid number of workers %d", cfg.Workers)
	}

	return nil
}

// Images lists the files of dir with an accepted extension, sorted by name.
// Subdirectories are not visited.
func (cfg Config) Images(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "list images")
	}

	var paths []string

	for _, entry := range entries {
		if entry.Type().IsRegular() && cfg.accepts(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	return paths, nil
}

func (cfg Config) accepts(name string) bool {
	name = strings.ToLower(name)

	for _, ext := range cfg.Extensions {
		if strings.HasSuffix(name, strings.ToLower(ext)) {
			return true
		}
	}

	return false
}
