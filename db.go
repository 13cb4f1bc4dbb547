package hei

import (
	"database/sql"
	"fmt"
	"io"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oldtimes-software/hei/archive"
	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
	"github.com/zeebo/blake3"
)

// AssetDB is an index of the entries of every package imported into it,
// searchable by entry name or content digest.
type AssetDB struct {
	db *sql.DB
}

// Asset is a single package entry recorded in an AssetDB.
type Asset struct {
	Package  string
	Position int
	Name     string
	Offset   int64
	Size     int64
	Digest   string
}

// NewAssetDB opens, creating if necessary, the database in file.
func NewAssetDB(file string) (*AssetDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS package (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, entries INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS entry (package_id INTEGER NOT NULL, position INTEGER NOT NULL, name TEXT NOT NULL, data_offset INTEGER NOT NULL, size INTEGER NOT NULL, blake3 TEXT NOT NULL, PRIMARY KEY(package_id, position), FOREIGN KEY(package_id) REFERENCES package(id) ON DELETE CASCADE)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE INDEX IF NOT EXISTS entry_name ON entry (name COLLATE NOCASE)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE INDEX IF NOT EXISTS entry_blake3 ON entry (blake3)"); err != nil {
		db.Close()
		return nil, err
	}

	return &AssetDB{
		db: db,
	}, nil
}

func (db *AssetDB) Close() error {
	return db.db.Close()
}

func digestEntry(fsys vfs.FileSystem, pkg *archive.Package, i int) (string, error) {
	rc, err := pkg.Open(fsys, i)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	h := blake3.New()
	if _, err := io.Copy(h, rc); err != nil {
		return "", result.New(result.FileRead, "digest package entry", pkg.Table[i].Name, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// ImportPackage records every entry of pkg, replacing anything previously
// recorded for the same package path. Entry data is read from fsys to
// compute its digest.
func (db *AssetDB) ImportPackage(fsys vfs.FileSystem, pkg *archive.Package) (err error) {
	digests := make([]string, pkg.Len())
	for i := range pkg.Table {
		if digests[i], err = digestEntry(fsys, pkg, i); err != nil {
			return err
		}
	}

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec("DELETE FROM package WHERE path = ?", pkg.Path); err != nil {
		return err
	}

	res, err := tx.Exec("INSERT INTO package (path, entries) VALUES (?, ?)", pkg.Path, pkg.Len())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO entry (package_id, position, name, data_offset, size, blake3) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, idx := range pkg.Table {
		if _, err = stmt.Exec(id, i, idx.Name, idx.Offset, idx.Size, digests[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (db *AssetDB) query(where string, arg interface{}) ([]Asset, error) {
	rows, err := db.db.Query("SELECT p.path, e.position, e.name, e.data_offset, e.size, e.blake3 FROM entry AS e JOIN package AS p ON e.package_id = p.id WHERE "+where+" ORDER BY p.path, e.position", arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.Package, &a.Position, &a.Name, &a.Offset, &a.Size, &a.Digest); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// FindEntry returns every recorded entry called name, ignoring case.
func (db *AssetDB) FindEntry(name string) ([]Asset, error) {
	return db.query("e.name = ? COLLATE NOCASE", name)
}

// FindDigest returns every recorded entry whose contents hash to digest.
func (db *AssetDB) FindDigest(digest string) ([]Asset, error) {
	return db.query("e.blake3 = ?", digest)
}

// Packages returns the path of every recorded package.
func (db *AssetDB) Packages() ([]string, error) {
	rows, err := db.db.Query("SELECT path FROM package ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
