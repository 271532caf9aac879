// Package imageconv re-encodes bitmap sprites as PNG. Pixel data is copied as
// decoded; palette remapping is out of scope. Protected bitmaps and PNG
// inputs are copied unchanged.
package imageconv

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/cortexmods/modconvert/internal/defs"
	"github.com/cortexmods/modconvert/internal/fsutil"
)

// ErrNotImage indicates a file that is neither a bitmap nor a PNG.
var ErrNotImage = errors.New("imageconv: not an image")

// IsImage reports whether name is an image the converter handles.
func IsImage(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case defs.ExtBMP, defs.ExtPNG:
		return true
	}
	return false
}

// Converter converts images. Names for which protected returns true keep
// their format.
type Converter struct {
	protected func(name string) bool
	encoder   png.Encoder
}

// New returns a Converter. protected may be nil.
func New(protected func(name string) bool) *Converter {
	if protected == nil {
		protected = func(string) bool { return false }
	}
	return &Converter{
		protected: protected,
		encoder:   png.Encoder{CompressionLevel: png.BestCompression},
	}
}

// OutputName returns the file name an image is written under.
func (c *Converter) OutputName(name string) string {
	if c.reencodes(name) {
		return strings.TrimSuffix(name, path.Ext(name)) + defs.ExtPNG
	}
	return name
}

func (c *Converter) reencodes(name string) bool {
	return strings.EqualFold(path.Ext(name), defs.ExtBMP) && !c.protected(path.Base(name))
}

// Convert writes src to dst: bitmaps are decoded and encoded as PNG, other
// images are copied.
func (c *Converter) Convert(src, dst string) error {
	name := path.Base(strings.ReplaceAll(src, `\`, "/"))
	if !IsImage(name) {
		return fmt.Errorf("%w: %s", ErrNotImage, src)
	}
	if !c.reencodes(name) {
		return fsutil.CopyFile(src, dst)
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	img, err := bmp.Decode(f)
	if err != nil {
		return fmt.Errorf("decode bitmap %s: %w", src, err)
	}
	return fsutil.WriteAtomic(dst, func(w io.Writer) error {
		if err := c.encoder.Encode(w, img); err != nil {
			return fmt.Errorf("encode png %s: %w", dst, err)
		}
		return nil
	})
}
