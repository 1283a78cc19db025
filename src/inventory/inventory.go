// Package inventory keeps a history of topology reports in a sqlite
// database, so scans of the same machine can be compared over time.
package inventory

import "database/sql"
import "fmt"
import "time"

import _ "github.com/mattn/go-sqlite3"

import "github.com/ystk/debian-memtest86/src/report"

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	at          INTEGER NOT NULL,
	source      TEXT NOT NULL,
	found       INTEGER NOT NULL,
	active      INTEGER NOT NULL,
	fingerprint TEXT NOT NULL,
	doc         BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS scans_fp ON scans(fingerprint);
`

type Db_t struct {
	db *sql.DB
}

// Ent_t is one recorded scan.
type Ent_t struct {
	Id     int64
	At     time.Time
	Report *report.Report_t
}

func Open(path string) (*Db_t, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("inventory: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("inventory: schema: %w", err)
	}
	return &Db_t{db: db}, nil
}

func (d *Db_t) Close() error {
	return d.db.Close()
}

// Record stores r as of at and returns its id.
func (d *Db_t) Record(r *report.Report_t, at time.Time) (int64, error) {
	doc, err := report.Marshal(r)
	if err != nil {
		return 0, err
	}
	res, err := d.db.Exec(`INSERT INTO scans
		(at, source, found, active, fingerprint, doc)
		VALUES (?, ?, ?, ?, ?, ?)`,
		at.UnixNano(), r.Source, r.Found, r.Active, r.Fingerprint, doc)
	if err != nil {
		return 0, fmt.Errorf("inventory: record: %w", err)
	}
	return res.LastInsertId()
}

// Last returns up to n scans, newest first.
func (d *Db_t) Last(n int) ([]Ent_t, error) {
	rows, err := d.db.Query(`SELECT id, at, doc FROM scans
		ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("inventory: query: %w", err)
	}
	defer rows.Close()
	var ret []Ent_t
	for rows.Next() {
		var e Ent_t
		var at int64
		var doc []uint8
		if err := rows.Scan(&e.Id, &at, &doc); err != nil {
			return nil, fmt.Errorf("inventory: scan: %w", err)
		}
		if e.Report, err = report.Unmarshal(doc); err != nil {
			return nil, err
		}
		e.At = time.Unix(0, at)
		ret = append(ret, e)
	}
	return ret, rows.Err()
}

// Seen returns how many earlier scans had the fingerprint fp.
func (d *Db_t) Seen(fp string) (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM scans WHERE fingerprint = ?`,
		fp).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("inventory: count: %w", err)
	}
	return n, nil
}
