package journal

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// Delivery is one attempt at writing a submission to the destination board.
// Failed deliveries keep the attempted column set so an operator can redo
// the writes by hand.
type Delivery struct {
	ID      int64     `json:"id"`
	FormID  string    `json:"form_id"`
	BoardID string    `json:"board_id"`
	ItemID  string    `json:"item_id,omitempty"`
	Columns []string  `json:"columns"`
	Status  string    `json:"status"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// Journal records delivery attempts in a local SQLite file. The same file
// backs the admin auth tables.
type Journal struct {
	db *sql.DB
}

func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open journal db")
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "journal pragma")
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate journal db")
	}

	return &Journal{db}, nil
}

// DB exposes the underlying handle for the auth tables.
func (j *Journal) DB() *sql.DB {
	return j.db
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Record(d Delivery) error {
	columnsJson, err := json.Marshal(d.Columns)
	if err != nil {
		return errors.Wrap(err, "marshal columns")
	}

	if d.Time.IsZero() {
		d.Time = time.Now()
	}

	_, err = j.db.Exec(`
		INSERT INTO delivery (form_id, board_id, item_id, columns, status, error, time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.FormID,
		d.BoardID,
		d.ItemID,
		string(columnsJson),
		d.Status,
		d.Error,
		d.Time,
	)
	return errors.Wrap(err, "insert delivery")
}

func (j *Journal) Recent(limit int) ([]Delivery, error) {
	rows, err := j.db.Query(`
		SELECT id, form_id, board_id, item_id, columns, status, error, time
		FROM delivery
		ORDER BY id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query deliveries")
	}
	defer rows.Close()

	deliveries := []Delivery{}
	for rows.Next() {
		var d Delivery
		var columnsJson string
		err = rows.Scan(&d.ID, &d.FormID, &d.BoardID, &d.ItemID, &columnsJson, &d.Status, &d.Error, &d.Time)
		if err != nil {
			return nil, errors.Wrap(err, "scan delivery")
		}
		if columnsJson != "" {
			if err := json.Unmarshal([]byte(columnsJson), &d.Columns); err != nil {
				return nil, errors.Wrapf(err, "parse columns of delivery %d", d.ID)
			}
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}
