package screenpack

import (
	"bufio"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/bodgit/screenpack/blob"
	"github.com/bodgit/screenpack/rgb565"
	"github.com/bodgit/screenpack/table"
	"github.com/dustin/go-humanize"
	"github.com/jsummers/gobmp"
	"github.com/remeh/sizedwaitgroup"
)

var sourcePattern = regexp.MustCompile(`(?i)^(\d+)_.*\.bmp$`)

// ErrBadIdentifier is returned when a bitmap filename starts with a number
// that doesn't fit in 16 bits
var ErrBadIdentifier = errors.New("bad identifier")

type source struct {
	path string
	id   uint16
}

type loaded struct {
	image *rgb565.Image
	sha1  string
	err   error
}

// PackedImage describes one image written by Pack
type PackedImage struct {
	table.Entry
	Name   string
	SHA1   string
	Shared bool
}

// PackResult summarises a successful Pack
type PackResult struct {
	Dir    string
	Images []PackedImage
	Shared int
	Size   int64
}

func findSources(dir string) ([]source, error) {
	d, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	files, err := d.Readdirnames(0)
	if err != nil {
		return nil, err
	}

	var sources []source
	for _, file := range files {
		m := sourcePattern.FindStringSubmatch(file)
		if m == nil {
			continue
		}
		id, err := strconv.ParseUint(m[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", file, ErrBadIdentifier, err)
		}
		sources = append(sources, source{
			path: filepath.Join(dir, file),
			id:   uint16(id),
		})
	}

	// The firmware expects each identifier to match its index
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].id < sources[j].id })

	return sources, nil
}

func (s *ScreenPack) loadImage(file string) (*rgb565.Image, string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	h := sha1.New()
	m, err := gobmp.Decode(io.TeeReader(f, h))
	if err != nil {
		return nil, "", err
	}

	return rgb565.Convert(rgb565.Quantize(m, s.opts.Colors)), fmt.Sprintf("%X", h.Sum(nil)), nil
}

// loadImages decodes every source concurrently, results are returned in the
// same order as sources
func (s *ScreenPack) loadImages(sources []source) []loaded {
	results := make([]loaded, len(sources))

	wg := sizedwaitgroup.New(s.opts.Workers)
	for i := range sources {
		wg.Add()
		go func(i int) {
			defer wg.Done()
			m, sum, err := s.loadImage(sources[i].path)
			results[i] = loaded{image: m, sha1: sum, err: err}
		}(i)
	}
	wg.Wait()

	return results
}

func removeOutput(files ...string) {
	for _, file := range files {
		_ = os.Remove(file)
	}
}

// Pack encodes every <id>_*.bmp file in src and writes the blob and table to
// dst. Either both files are written and a result returned, or an error is
// returned and neither file exists.
func (s *ScreenPack) Pack(src, dst string) (*PackResult, error) {
	const op = "pack"

	sources, err := findSources(src)
	if err != nil {
		kind := KindIO
		if errors.Is(err, ErrBadIdentifier) {
			kind = KindValidation
		}
		return nil, &Error{Op: op, Kind: kind, Path: src, ID: noID, Err: err}
	}

	if !s.opts.IgnoreConstraints {
		ids := make([]uint16, len(sources))
		for i := range sources {
			ids[i] = sources[i].id
		}
		if err := blob.ValidateIDs(ids, s.opts.MinImages); err != nil {
			return nil, &Error{Op: op, Kind: KindValidation, Path: src, ID: noID, Err: err}
		}
	}

	s.logger.Printf("Loading %d images from \"%s\"\n", len(sources), src)

	images := s.loadImages(sources)
	for i, m := range images {
		if m.err != nil {
			return nil, &Error{Op: op, Kind: KindEncode, Path: sources[i].path, ID: int(sources[i].id), Err: m.err}
		}
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return nil, &Error{Op: op, Kind: KindIO, Path: dst, ID: noID, Err: err}
	}

	tableFile := filepath.Join(dst, table.Filename)
	blobFile := filepath.Join(dst, blob.Filename)

	result, err := s.pack(sources, images, tableFile, blobFile)
	if err != nil {
		removeOutput(tableFile, blobFile)
		return nil, err
	}
	result.Dir = dst

	s.logger.Printf("Packed %d images (%d shared) into %s\n", len(result.Images), result.Shared, humanize.Bytes(uint64(result.Size)))

	// The output is usable regardless, so a catalog failure is only logged
	if s.catalog != nil {
		if err := s.catalog.Record(result); err != nil {
			s.logger.Printf("Unable to record \"%s\" in catalog: %v\n", dst, err)
		}
	}

	return result, nil
}

func (s *ScreenPack) pack(sources []source, images []loaded, tableFile, blobFile string) (*PackResult, error) {
	const op = "pack"

	f, err := os.Create(blobFile)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindIO, Path: blobFile, ID: noID, Err: err}
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	var maxSize int64
	if !s.opts.IgnoreConstraints {
		maxSize = s.opts.MaxSize
	}
	p := blob.New(w, blob.WithDedup(s.opts.Dedup), blob.WithMaxSize(maxSize))

	result := &PackResult{}
	for i, src := range sources {
		m := images[i].image
		entry, shared, err := p.Add(src.id, m.Pixels(), m.Rect.Dx(), m.Rect.Dy())
		if err != nil {
			kind := KindEncode
			var pe *os.PathError
			if errors.As(err, &pe) {
				kind = KindIO
			}
			return nil, &Error{Op: op, Kind: kind, Path: src.path, ID: int(src.id), Err: err}
		}
		if shared {
			result.Shared++
			s.logger.Printf("Image %d is identical to an earlier image at offset %d\n", src.id, entry.Offset)
		}
		result.Images = append(result.Images, PackedImage{
			Entry:  entry,
			Name:   filepath.Base(src.path),
			SHA1:   images[i].sha1,
			Shared: shared,
		})
	}

	if err := w.Flush(); err != nil {
		return nil, &Error{Op: op, Kind: KindIO, Path: blobFile, ID: noID, Err: err}
	}
	if err := f.Close(); err != nil {
		return nil, &Error{Op: op, Kind: KindIO, Path: blobFile, ID: noID, Err: err}
	}
	result.Size = p.Size()

	if err := p.Check(); err != nil {
		return nil, &Error{Op: op, Kind: KindSize, Path: blobFile, ID: noID, Expected: maxSize, Actual: p.Size(), Err: fmt.Errorf("%w (%s)", err, humanize.Bytes(uint64(p.Size())))}
	}

	t, err := os.Create(tableFile)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindIO, Path: tableFile, ID: noID, Err: err}
	}
	defer t.Close()

	if _, err := p.Table().WriteTo(t); err != nil {
		return nil, &Error{Op: op, Kind: KindIO, Path: tableFile, ID: noID, Err: err}
	}
	if err := t.Close(); err != nil {
		return nil, &Error{Op: op, Kind: KindIO, Path: tableFile, ID: noID, Err: err}
	}

	return result, nil
}
