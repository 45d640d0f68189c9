package cache

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"
)

// DB is a manifest of generated artifacts backed by sqlite.
type DB struct {
	db *sql.DB
}

// Open opens or creates the manifest database in file.
func Open(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS input (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, version INTEGER NOT NULL, options TEXT NOT NULL, hash TEXT NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS output (input_id INTEGER NOT NULL, path TEXT NOT NULL UNIQUE, hash TEXT NOT NULL, FOREIGN KEY(input_id) REFERENCES input(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{
		db: db,
	}, nil
}

// Close closes the database
func (db *DB) Close() error {
	return db.db.Close()
}

// HashFile returns the hex encoded xxhash of the contents of file.
func HashFile(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%016X", h.Sum64()), nil
}

// Record stores the current content hashes of input and outputs along with
// the version and settings fingerprint they were generated with, replacing
// anything previously recorded for input.
func (db *DB) Record(version int, fingerprint, input string, outputs []string) error {
	input, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	hash, err := HashFile(input)
	if err != nil {
		return err
	}

	type output struct {
		path, hash string
	}
	var out []output
	for _, file := range outputs {
		path, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		h, err := HashFile(path)
		if err != nil {
			return err
		}
		out = append(out, output{path, h})
	}

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.Exec("DELETE FROM output WHERE input_id IN (SELECT id FROM input WHERE path = ?)", input); err != nil {
		return err
	}

	if _, err = tx.Exec("DELETE FROM input WHERE path = ?", input); err != nil {
		return err
	}

	result, err := tx.Exec("INSERT INTO input (path, version, options, hash) VALUES (?, ?, ?, ?)", input, version, fingerprint, hash)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	for _, o := range out {
		if _, err = tx.Exec("INSERT OR REPLACE INTO output (input_id, path, hash) VALUES (?, ?, ?)", id, o.path, o.hash); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Fresh reports whether input and outputs still match what was last recorded
// for input at the given version and settings fingerprint.
func (db *DB) Fresh(version int, fingerprint, input string, outputs []string) (bool, error) {
	input, err := filepath.Abs(input)
	if err != nil {
		return false, err
	}

	var id int64
	var recordedVersion int
	var recordedOptions, hash string
	switch err := db.db.QueryRow("SELECT id, version, options, hash FROM input WHERE path = ?", input).Scan(&id, &recordedVersion, &recordedOptions, &hash); err {
	case sql.ErrNoRows:
		return false, nil
	case nil:
	default:
		return false, err
	}

	if recordedVersion != version || recordedOptions != fingerprint {
		return false, nil
	}
	if ok, err := matches(input, hash); !ok || err != nil {
		return false, err
	}

	for _, file := range outputs {
		path, err := filepath.Abs(file)
		if err != nil {
			return false, err
		}

		switch err := db.db.QueryRow("SELECT hash FROM output WHERE input_id = ? AND path = ?", id, path).Scan(&hash); err {
		case sql.ErrNoRows:
			return false, nil
		case nil:
		default:
			return false, err
		}

		if ok, err := matches(path, hash); !ok || err != nil {
			return false, err
		}
	}

	return true, nil
}

func matches(file, hash string) (bool, error) {
	h, err := HashFile(file)
	switch {
	case os.IsNotExist(err):
		return false, nil
	case err != nil:
		return false, err
	}
	return h == hash, nil
}
