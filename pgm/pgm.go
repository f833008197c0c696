// Package pgm decodes binary ("P5") portable graymap images into float64
// samples ready for perceptual hashing.
package pgm

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

const (
	magic     = "P5"
	maxMaxVal = 65535
)

var (
	// ErrFormat is returned for input that is not a binary PGM image.
	ErrFormat = errors.New("pgm: invalid format")

	// ErrShortRaster is returned when the raster holds fewer samples than
	// announced by the header.
	ErrShortRaster = errors.New("pgm: short raster")
)

// Image is a decoded grey-scale image. Pix holds Width*Height samples in
// row-major order, each in [0, MaxVal].
type Image struct {
	Width  int
	Height int
	MaxVal int
	Pix    []float64
}

// Header holds the values announced before the raster.
type Header struct {
	Width  int
	Height int
	MaxVal int
}

// Decode reads a binary PGM image.
func Decode(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)

	hdr, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	depth := 1
	if hdr.MaxVal > 255 {
		depth = 2 // big-endian
	}

	// read what is there before allocating what the header claims
	need := int64(hdr.Width) * int64(hdr.Height) * int64(depth)

	raster, err := io.ReadAll(io.LimitReader(br, need))
	if err != nil {
		return nil, errors.Wrap(err, "read raster")
	}

	if int64(len(raster)) < need {
		return nil, errors.Wrapf(ErrShortRaster, "read %d of %d bytes", len(raster), need)
	}

	img := &Image{
		Width:  hdr.Width,
		Height: hdr.Height,
		MaxVal: hdr.MaxVal,
		Pix:    make([]float64, hdr.Width*hdr.Height),
	}

	for i := range img.Pix {
		if depth == 1 {
			img.Pix[i] = float64(raster[i])
		} else {
			img.Pix[i] = float64(uint16(raster[2*i])<<8 | uint16(raster[2*i+1]))
		}
	}

	return img, nil
}

// DecodeConfig reads only the header of a binary PGM image.
func DecodeConfig(r io.Reader) (Header, error) {
	return readHeader(bufio.NewReader(r))
}

// ReadFile opens and decodes a binary PGM file.
func ReadFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}

	return img, nil
}

// ReadFileConfig reads only the header of a binary PGM file.
func ReadFileConfig(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()

	hdr, err := DecodeConfig(f)
	if err != nil {
		return hdr, errors.Wrap(err, path)
	}

	return hdr, nil
}

func readHeader(br *bufio.Reader) (Header, error) {
	var hdr Header

	buf := make([]byte, len(magic))
	if _, err := io.ReadFull(br, buf); err != nil || string(buf) != magic {
		return hdr, errors.Wrap(ErrFormat, "not a raw PGM image")
	}

	for _, field := range []*struct {
		name string
		dst  *int
		max  int
	}{
		{"width", &hdr.Width, 1 << 16},
		{"height", &hdr.Height, 1 << 16},
		{"maxval", &hdr.MaxVal, maxMaxVal},
	} {
		val, err := readNumber(br)
		if err != nil {
			return hdr, errors.Wrapf(err, "reading %s", field.name)
		}

		if val < 1 || val > field.max {
			return hdr, errors.Wrapf(ErrFormat, "%s %d out of range", field.name, val)
		}

		*field.dst = val
	}

	// a single whitespace separates the header from the raster
	ch, err := br.ReadByte()
	if err != nil || !isSpace(ch) {
		return hdr, errors.Wrap(ErrFormat, "no separator before raster")
	}

	return hdr, nil
}

// readNumber skips whitespace and comments and reads an ASCII decimal.
func readNumber(br *bufio.Reader) (int, error) {
	var ch byte
	var err error

	for {
		if ch, err = br.ReadByte(); err != nil {
			return 0, errors.Wrap(ErrFormat, "truncated header")
		}

		if ch == '#' {
			if _, err = br.ReadString('\n'); err != nil {
				return 0, errors.Wrap(ErrFormat, "truncated comment")
			}
			continue
		}

		if !isSpace(ch) {
			break
		}
	}

	val, digits := 0, 0

	for ; ch >= '0' && ch <= '9'; digits++ {
		val = val*10 + int(ch-'0')
		if val > maxMaxVal*2 {
			return 0, errors.Wrap(ErrFormat, "number too large")
		}

		if ch, err = br.ReadByte(); err != nil {
			return 0, errors.Wrap(ErrFormat, "truncated header")
		}
	}

	if digits == 0 {
		return 0, errors.Wrapf(ErrFormat, "unexpected %q", ch)
	}

	// the byte after a number is whitespace and belongs to the header
	if err = br.UnreadByte(); err != nil {
		return 0, err
	}

	return val, nil
}

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}

	return false
}

// Encode writes img as a binary PGM image. Samples are rounded and clamped to
// [0, MaxVal].
func Encode(w io.Writer, img *Image) error {
	if img.MaxVal < 1 || img.MaxVal > maxMaxVal || len(img.Pix) != img.Width*img.Height {
		return errors.Wrapf(ErrFormat, "cannot encode %dx%d image with maxval %d and %d samples",
			img.Width, img.Height, img.MaxVal, len(img.Pix))
	}

	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n%d\n", magic, img.Width, img.Height, img.MaxVal); err != nil {
		return err
	}

	for _, s := range img.Pix {
		v := int(math.Round(s))
		if v < 0 {
			v = 0
		} else if v > img.MaxVal {
			v = img.MaxVal
		}

		if img.MaxVal > 255 {
			bw.WriteByte(byte(v >> 8))
		}
		bw.WriteByte(byte(v))
	}

	return bw.Flush()
}
