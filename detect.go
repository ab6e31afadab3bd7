package screenpack

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/screenpack/blob"
	"github.com/bodgit/screenpack/table"
)

// Role describes what a directory can be used for
type Role int

const (
	// RoleInvalid is a directory that can be neither packed nor unpacked
	RoleInvalid Role = iota
	// RolePack is a directory of bitmaps
	RolePack
	// RoleUnpack is a directory holding a blob and its table
	RoleUnpack
)

func (r Role) String() string {
	switch r {
	case RolePack:
		return "pack"
	case RoleUnpack:
		return "unpack"
	default:
		return "invalid"
	}
}

// Detect inspects the files at the top of dir to decide whether it should be
// packed or unpacked
func Detect(dir string) (Role, error) {
	d, err := os.Open(dir)
	if err != nil {
		return RoleInvalid, err
	}
	defer d.Close()

	info, err := d.Stat()
	if err != nil {
		return RoleInvalid, err
	}

	if !info.IsDir() {
		return RoleInvalid, errors.New("not a directory")
	}

	entries, err := d.ReadDir(0)
	if err != nil {
		return RoleInvalid, err
	}

	var files []string
	for _, e := range entries {
		// Follow symlinks, Pack reads through them too
		info, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return RoleInvalid, err
		}
		if info.Mode().IsRegular() {
			files = append(files, strings.ToUpper(e.Name()))
		}
	}

	var hasBlob, hasTable bool
	bitmaps := true
	for _, file := range files {
		switch file {
		case blob.Filename:
			hasBlob = true
		case table.Filename:
			hasTable = true
		}
		if filepath.Ext(file) != ".BMP" {
			bitmaps = false
		}
	}

	switch {
	case hasBlob && hasTable:
		return RoleUnpack, nil
	case len(files) > 0 && bitmaps:
		return RolePack, nil
	default:
		return RoleInvalid, nil
	}
}
