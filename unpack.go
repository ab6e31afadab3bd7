package screenpack

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/bodgit/screenpack/blob"
	"github.com/bodgit/screenpack/rgb565"
	"github.com/bodgit/screenpack/rle"
	"github.com/bodgit/screenpack/table"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/image/bmp"
)

// ErrEmptyImage is returned for a table entry with a zero width or height
var ErrEmptyImage = errors.New("image has no pixels")

// Warning records an image whose run records held more pixels than its
// dimensions allow. The image is still written, truncated to size.
type Warning struct {
	ID       uint16
	Offset   uint32
	Expected int
	Excess   int
}

func (w Warning) String() string {
	return fmt.Sprintf("image %d with expected size %d overruns itself by %d pixels", w.ID, w.Expected, w.Excess)
}

// UnpackResult summarises an Unpack
type UnpackResult struct {
	Dir      string
	Written  int
	Warnings []Warning

	mu sync.Mutex
}

func (r *UnpackResult) written() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Written++
}

func (r *UnpackResult) warn(w Warning) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, w)
}

// Filename returns the name an unpacked image is written as
func Filename(e table.Entry) string {
	return fmt.Sprintf("%d_%dx%d.bmp", e.ID, e.Width, e.Height)
}

func writeImage(file string, m *rgb565.Image) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := bmp.Encode(w, m); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func (s *ScreenPack) unpackEntry(ra io.ReaderAt, dir string, e table.Entry, result *UnpackResult) error {
	if e.Width == 0 || e.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyImage, e.Width, e.Height)
	}

	pixels, excess, err := rle.DecodeAt(ra, int64(e.Offset), e.Pixels())
	if err != nil {
		return err
	}

	if excess > 0 {
		w := Warning{
			ID:       e.ID,
			Offset:   e.Offset,
			Expected: e.Pixels(),
			Excess:   excess,
		}
		s.logger.Printf("WARNING: %s\n", w)
		result.warn(w)
	}

	if err := writeImage(filepath.Join(dir, Filename(e)), rgb565.FromPixels(pixels, int(e.Width), int(e.Height))); err != nil {
		return err
	}
	result.written()

	return nil
}

func emitEntries(t table.Table) <-chan table.Entry {
	out := make(chan table.Entry)
	go func() {
		defer close(out)
		for _, e := range t {
			out <- e
		}
	}()
	return out
}

// unpackWorker reports a failure for each entry it can't unpack but always
// carries on with the next one
func (s *ScreenPack) unpackWorker(ra io.ReaderAt, dir string, in <-chan table.Entry, result *UnpackResult) <-chan error {
	errc := make(chan error)
	go func() {
		defer close(errc)
		for e := range in {
			if err := s.unpackEntry(ra, dir, e, result); err != nil {
				errc <- &Error{Op: "unpack", Kind: KindDecode, Path: Filename(e), ID: int(e.ID), Offset: int64(e.Offset), Err: err}
			}
		}
	}()
	return errc
}

func collectErrors(errs ...<-chan error) error {
	var result *multierror.Error
	for err := range mergeErrors(errs...) {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Unpack reads the table and blob from src and writes every image to dst.
// Images are decoded concurrently; a failure with one image does not stop the
// others and all failures are returned together in a *multierror.Error. The
// result is returned even when some images failed.
func (s *ScreenPack) Unpack(src, dst string) (*UnpackResult, error) {
	const op = "unpack"

	tableFile := filepath.Join(src, table.Filename)
	t, err := table.Load(tableFile)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindIO, Path: tableFile, ID: noID, Err: err}
	}

	blobFile := filepath.Join(src, blob.Filename)
	f, err := os.Open(blobFile)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindIO, Path: blobFile, ID: noID, Err: err}
	}
	defer f.Close()

	if err := os.MkdirAll(dst, 0755); err != nil {
		return nil, &Error{Op: op, Kind: KindIO, Path: dst, ID: noID, Err: err}
	}

	s.logger.Printf("Unpacking %d images from \"%s\"\n", len(t), src)

	result := &UnpackResult{Dir: dst}

	entries := emitEntries(t)

	var errcList []<-chan error
	for i := 0; i < s.opts.Workers; i++ {
		errcList = append(errcList, s.unpackWorker(f, dst, entries, result))
	}

	if err := collectErrors(errcList...); err != nil {
		return result, err
	}

	return result, nil
}
