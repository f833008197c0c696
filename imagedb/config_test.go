package imagedb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThierrySt-Arnaud/ImageHashSearch/phash"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 64, cfg.HashBits)
	assert.Equal(t, 65536, cfg.ImageSize())
	assert.True(t, cfg.accepts("photo.pgm"))
	assert.True(t, cfg.accepts("PHOTO.PGM"))
	assert.False(t, cfg.accepts("photo.png"))
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	for _, tcase := range []*struct {
		Name   string
		Data   string
		Exp    Config
		ExpErr error
	}{
		{
			Name: "overrides",
			Data: "hash_bits: 16\nimage_width: 64\nextensions: [.pgm, .pnm]\nworkers: 3\n",
			Exp:  Config{HashBits: 16, ImageWidth: 64, Extensions: []string{".pgm", ".pnm"}, Workers: 3},
		},
		{
			Name: "partial",
			Data: "hash_bits: 256\nworkers: 1\n",
			Exp:  Config{HashBits: 256, ImageWidth: DefaultImageWidth, Extensions: []string{".pgm"}, Workers: 1},
		},
		{
			Name:   "bad hash length",
			Data:   "hash_bits: 60\n",
			ExpErr: phash.ErrInvalidHashLength,
		},
		{
			Name:   "image too small",
			Data:   "hash_bits: 64\nimage_width: 8\n",
			ExpErr: phash.ErrInvalidImage,
		},
	} {
		tcase := tcase

		t.Run(tcase.Name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tcase.Data), 0o644))

			cfg, err := LoadConfig(path)

			if tcase.ExpErr != nil {
				assert.True(t, errors.Is(err, tcase.ExpErr), "%v", err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tcase.Exp, cfg)
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hash_bits: [1, 2\n"), 0o644))

	_, err = LoadConfig(path)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Extensions = nil
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Workers = 0
	assert.Error(t, cfg.Validate())
}
