// Package imagedb indexes a directory of grey-scale images by perceptual hash
// and finds the images similar to a given one.
package imagedb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ThierrySt-Arnaud/ImageHashSearch/bitkey"
	"github.com/ThierrySt-Arnaud/ImageHashSearch/capillary"
	"github.com/ThierrySt-Arnaud/ImageHashSearch/pgm"
	"github.com/ThierrySt-Arnaud/ImageHashSearch/phash"
)

var (
	// ErrImageSize is returned for images that are not ImageWidth pixels square.
	ErrImageSize = errors.New("imagedb: invalid image size")

	// ErrTolerance is returned for tolerances outside [0, 100] percent.
	ErrTolerance = errors.New("imagedb: tolerance must be between 0 and 100 percent")
)

// ItemError reports a file that could not be added or matched. It never
// aborts a batch.
type ItemError struct {
	Path string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Match is the outcome of a similarity search.
type Match struct {
	Path      string
	Key       bitkey.Key
	Tolerance int      // percent of the hash length
	Matches   []string // sorted paths
	HashTime  time.Duration
	Search    time.Duration
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used to report progress and skipped files.
func WithLogger(log zerolog.Logger) Option {
	return func(db *DB) {
		db.log = log
	}
}

// WithInsertionLog records the duration of every insertion.
func WithInsertionLog(tl *TimingLog) Option {
	return func(db *DB) {
		db.timings = tl
	}
}

// DB maps image paths to their perceptual hashes.
//
// Images are decoded and hashed concurrently but inserted by a single
// goroutine, so a DB must not be modified concurrently.
type DB struct {
	cfg     Config
	hasher  *phash.Hasher
	index   *capillary.Index[string]
	log     zerolog.Logger
	timings *TimingLog
}

// New returns an empty DB for the given configuration.
func New(cfg Config, opts ...Option) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher, err := phash.NewHasher(cfg.HashBits, cfg.ImageSize())
	if err != nil {
		return nil, err
	}

	db := &DB{
		cfg:    cfg,
		hasher: hasher,
		index:  capillary.New[string](cfg.HashBits),
		log:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(db)
	}

	return db, nil
}

// Len returns the number of indexed images.
func (db *DB) Len() int {
	return db.index.Len()
}

// Stats returns the shape of the underlying index.
func (db *DB) Stats() capillary.Stats {
	return db.index.Stats()
}

// Paths returns every indexed path, sorted.
func (db *DB) Paths() []string {
	paths := db.index.Values()
	sort.Strings(paths)

	return paths
}

// Images lists the files of dir with an accepted extension, sorted by name.
// Subdirectories are not visited.
func (db *DB) Images(dir string) ([]string, error) {
	return db.cfg.Images(dir)
}

// HashFile decodes an image file and returns its perceptual hash.
func (db *DB) HashFile(path string) (bitkey.Key, error) {
	img, err := db.load(path)
	if err != nil {
		return bitkey.Key{}, err
	}

	return db.hasher.Hash(img.Pix)
}

// load decodes an image file once its header shows the configured size.
func (db *DB) load(path string) (*pgm.Image, error) {
	hdr, err := pgm.ReadFileConfig(path)
	if err != nil {
		return nil, err
	}

	if hdr.Width != db.cfg.ImageWidth || hdr.Height != db.cfg.ImageWidth {
		return nil, errors.Wrapf(ErrImageSize, "%dx%d, expected %dx%d",
			hdr.Width, hdr.Height, db.cfg.ImageWidth, db.cfg.ImageWidth)
	}

	return pgm.ReadFile(path)
}

// Insert adds a path under an already computed key.
func (db *DB) Insert(path string, key bitkey.Key) {
	start := time.Now()
	db.index.Insert(path, key)
	elapsed := time.Since(start)

	if db.timings != nil {
		if err := db.timings.Insertion(elapsed); err != nil {
			db.log.Warn().Err(err).Msg("cannot record insertion time")
		}
	}

	db.log.Debug().Str("path", path).Stringer("key", key).Dur("elapsed", elapsed).Msg("inserted")
}

// Add hashes an image file and inserts it.
func (db *DB) Add(path string) error {
	key, err := db.HashFile(path)
	if err != nil {
		return &ItemError{Path: path, Err: err}
	}

	db.Insert(path, key)

	return nil
}

// AddAll hashes the given files concurrently and inserts them in order.
// Files that cannot be hashed are skipped and reported; the returned error is
// only set when ctx is done.
func (db *DB) AddAll(ctx context.Context, paths []string) ([]*ItemError, error) {
	var (
		keys = make([]bitkey.Key, len(paths))
		errs = make([]error, len(paths))
		g    errgroup.Group
	)

	g.SetLimit(db.cfg.Workers)

	for i, path := range paths {
		i, path := i, path

		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if ctx.Err() == nil {
				keys[i], errs[i] = db.HashFile(path)
			}
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var skipped []*ItemError

	for i, path := range paths {
		if errs[i] != nil {
			item := &ItemError{Path: path, Err: errs[i]}
			skipped = append(skipped, item)

			db.log.Warn().Err(errs[i]).Str("path", path).Msg("skipping image")

			continue
		}

		db.Insert(path, keys[i])
	}

	return skipped, nil
}

// Build adds every image of dir.
func (db *DB) Build(ctx context.Context, dir string) ([]*ItemError, error) {
	paths, err := db.Images(dir)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	skipped, err := db.AddAll(ctx, paths)
	if err != nil {
		return skipped, err
	}

	st := db.Stats()

	db.log.Info().
		Str("dir", dir).
		Int("images", len(paths)).
		Int("skipped", len(skipped)).
		Int("keys", st.Keys).
		Int("branches", st.Branches).
		Int("max_depth", st.MaxDepth).
		Int("max_chain", st.MaxChain).
		Dur("elapsed", time.Since(start)).
		Msg("database prepared")

	return skipped, nil
}

// Search returns the sorted paths whose hash is within percent of the key.
func (db *DB) Search(key bitkey.Key, percent int) ([]string, error) {
	if percent < 0 || percent > 100 {
		return nil, errors.Wrapf(ErrTolerance, "got %d", percent)
	}

	res := db.index.SearchPercent(key, percent)
	sort.Strings(res)

	return res, nil
}

// Match hashes an image file and searches for similar images.
func (db *DB) Match(path string, percent int) (*Match, error) {
	if percent < 0 || percent > 100 {
		return nil, errors.Wrapf(ErrTolerance, "got %d", percent)
	}

	img, err := db.load(path)
	if err != nil {
		return nil, &ItemError{Path: path, Err: err}
	}

	start := time.Now()

	key, err := db.hasher.Hash(img.Pix)
	if err != nil {
		return nil, &ItemError{Path: path, Err: err}
	}

	m := &Match{
		Path:      path,
		Key:       key,
		Tolerance: percent,
		HashTime:  time.Since(start),
	}

	start = time.Now()
	m.Matches = db.index.SearchPercent(key, percent)
	m.Search = time.Since(start)

	sort.Strings(m.Matches)

	db.log.Debug().
		Str("path", path).
		Int("tolerance", percent).
		Int("hits", len(m.Matches)).
		Dur("hash", m.HashTime).
		Dur("search", m.Search).
		Msg("matched")

	return m, nil
}
