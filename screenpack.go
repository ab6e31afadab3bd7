/*
Package screenpack is a library for converting between directories of bitmap
images and the packed screen resources used by the device firmware: a blob of
run-length encoded images and a descriptor table locating each one.
*/
package screenpack

import (
	"log"
	"runtime"
)

const (
	// DefaultMinImages is the number of images the firmware expects
	DefaultMinImages = 603

	// DefaultMaxSize is the size the blob must stay below
	DefaultMaxSize = 16 << (10 * 2)

	// BitmapsDir is the default directory unpacked images are written to
	BitmapsDir = "Bitmaps"

	// ResourcesDir is the default directory packed resources are written to
	ResourcesDir = "Resources"
)

// Options controls packing and unpacking
type Options struct {
	// Dedup stores identical images only once
	Dedup bool

	// IgnoreConstraints skips the identifier and blob size checks
	IgnoreConstraints bool

	// MinImages is the minimum number of identifiers required
	MinImages int

	// MaxSize is the size in bytes the blob must stay below, zero for no
	// limit
	MaxSize int64

	// Colors reduces each image to at most this many colors before packing,
	// zero leaves them alone
	Colors int

	// Workers is the number of images loaded or written concurrently
	Workers int
}

// DefaultOptions returns the options matching the firmware's expectations
func DefaultOptions() Options {
	return Options{
		MinImages: DefaultMinImages,
		MaxSize:   DefaultMaxSize,
		Workers:   runtime.NumCPU(),
	}
}

type ScreenPack struct {
	opts    Options
	catalog *Catalog
	logger  *log.Logger
}

// New returns a ScreenPack. catalog may be nil in which case nothing is
// recorded after packing.
func New(opts Options, catalog *Catalog, logger *log.Logger) *ScreenPack {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &ScreenPack{
		opts:    opts,
		catalog: catalog,
		logger:  logger,
	}
}
