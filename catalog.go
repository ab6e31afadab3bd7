package screenpack

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/bodgit/screenpack/table"
	_ "github.com/mattn/go-sqlite3"
)

// Catalog is a sqlite database recording what was written by each Pack, so
// that the source of any image in a blob can be traced later
type Catalog struct {
	db *sql.DB
}

// NewCatalog opens or creates the catalog at file
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS pack (id INTEGER PRIMARY KEY NOT NULL, dir TEXT NOT NULL UNIQUE, size INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (pack_id INTEGER NOT NULL, position INTEGER NOT NULL, resource INTEGER NOT NULL, name TEXT NOT NULL, sha1 TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, blob_offset INTEGER NOT NULL, shared INTEGER NOT NULL, UNIQUE(pack_id, position), FOREIGN KEY(pack_id) REFERENCES pack(id) ON DELETE CASCADE)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record stores the result of a Pack, replacing anything previously recorded
// for the same directory
func (c *Catalog) Record(result *PackResult) (err error) {
	dir, err := filepath.Abs(result.Dir)
	if err != nil {
		return err
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec("DELETE FROM pack WHERE dir = ?", dir); err != nil {
		return err
	}

	r, err := tx.Exec("INSERT INTO pack (dir, size) VALUES (?, ?)", dir, result.Size)
	if err != nil {
		return err
	}
	id, err := r.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO image (pack_id, position, resource, name, sha1, width, height, blob_offset, shared) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range result.Images {
		if _, err = stmt.Exec(id, i, m.ID, m.Name, m.SHA1, m.Width, m.Height, m.Offset, m.Shared); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func scanImages(rows *sql.Rows) ([]PackedImage, error) {
	defer rows.Close()

	var images []PackedImage
	for rows.Next() {
		var m PackedImage
		if err := rows.Scan(&m.ID, &m.Name, &m.SHA1, &m.Width, &m.Height, &m.Offset, &m.Shared); err != nil {
			return nil, err
		}
		images = append(images, m)
	}
	return images, rows.Err()
}

// Images returns the images recorded for dir in packing order, or nil if
// nothing was recorded
func (c *Catalog) Images(dir string) ([]PackedImage, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.Query("SELECT i.resource, i.name, i.sha1, i.width, i.height, i.blob_offset, i.shared FROM image AS i JOIN pack AS p ON i.pack_id = p.id WHERE p.dir = ? ORDER BY i.position", dir)
	if err != nil {
		return nil, err
	}
	return scanImages(rows)
}

// FindBySHA1 returns the directory and table entry of every packed image
// whose source file had the given SHA-1
func (c *Catalog) FindBySHA1(sha string) (map[string][]table.Entry, error) {
	rows, err := c.db.Query("SELECT p.dir, i.resource, i.width, i.height, i.blob_offset FROM image AS i JOIN pack AS p ON i.pack_id = p.id WHERE i.sha1 = ? ORDER BY p.dir, i.position", sha)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string][]table.Entry)
	for rows.Next() {
		var dir string
		var e table.Entry
		if err := rows.Scan(&dir, &e.ID, &e.Width, &e.Height, &e.Offset); err != nil {
			return nil, err
		}
		found[dir] = append(found[dir], e)
	}
	return found, rows.Err()
}
