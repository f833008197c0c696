package imagedb

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// TimingLog writes CSV timing records: one header row describing the run,
// then one row per insertion or search. Durations are in nanoseconds.
type TimingLog struct {
	w *csv.Writer
}

// NewInsertionLog starts a log of insertion times for a batch of images.
func NewInsertionLog(w io.Writer, cfg Config, images int) (*TimingLog, error) {
	return newTimingLog(w, cfg, images,
		"Insertion Time",
	)
}

// NewSearchLog starts a log of hashing and search times against a database
// of the given size.
func NewSearchLog(w io.Writer, cfg Config, size int) (*TimingLog, error) {
	return newTimingLog(w, cfg, size,
		"Hashing Time", "Searching Time", "Tolerance", "Hits",
	)
}

func newTimingLog(w io.Writer, cfg Config, images int, columns ...string) (*TimingLog, error) {
	tl := &TimingLog{w: csv.NewWriter(w)}

	header := append(columns,
		fmt.Sprintf("Hash length = %d", cfg.HashBits),
		fmt.Sprintf("Image size = %d", cfg.ImageSize()),
		fmt.Sprintf("Number of images = %d", images),
	)

	if err := tl.write(header...); err != nil {
		return nil, err
	}

	return tl, nil
}

// Insertion records the duration of one insertion.
func (tl *TimingLog) Insertion(d time.Duration) error {
	return tl.write(strconv.FormatInt(d.Nanoseconds(), 10))
}

// Search records the timings and hit count of one match.
func (tl *TimingLog) Search(m *Match) error {
	return tl.write(
		strconv.FormatInt(m.HashTime.Nanoseconds(), 10),
		strconv.FormatInt(m.Search.Nanoseconds(), 10),
		strconv.Itoa(m.Tolerance),
		strconv.Itoa(len(m.Matches)),
	)
}

func (tl *TimingLog) write(record ...string) error {
	if err := tl.w.Write(record); err != nil {
		return err
	}

	tl.w.Flush()

	return tl.w.Error()
}
