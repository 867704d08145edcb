package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

//go:embed schema/plan.sql
var planSchema string

// Store wraps a seat plan: a single SQLite file holding floors, seats,
// participants and seat assignments.
type Store struct {
	db   *sql.DB
	path string
}

// Create makes a new plan file at path named name and imports floors into
// it. Floors that cannot be inserted (e.g. a duplicate level) are skipped;
// any other failure rolls the whole plan back.
func Create(path, name string, floors []Floor) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating plan directory: %w", err)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	if err := initPlan(db, name, floors); err != nil {
		db.Close()
		os.Remove(path)
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

func initPlan(db *sql.DB, name string, floors []Floor) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(planSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO info (key, data) VALUES (?, ?), (?, ?)",
		InfoVersion, strconv.Itoa(CurrentSchemaVersion), InfoName, name); err != nil {
		return fmt.Errorf("writing plan info: %w", err)
	}

	for _, f := range floors {
		if f.Image == nil {
			f.Image = []byte{}
		}
		res, err := tx.Exec("INSERT INTO floor (level, name, image) VALUES (?, ?, ?)", f.Level, f.Name, f.Image)
		if err != nil {
			slog.Warn("skipping floor import", "floor", f.Name, "level", f.Level, "error", err)
			continue
		}
		id, _ := res.LastInsertId()
		slog.Debug("imported floor", "id", id, "floor", f.Name)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing plan: %w", err)
	}
	return nil
}

// Open opens an existing plan file and checks that this build understands
// its schema version.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("opening plan %s: %w", path, ErrNotFound)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, path: path}
	if err := s.checkVersion(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection so the pragmas below apply to every query.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return db, nil
}

func (s *Store) checkVersion() error {
	raw, err := s.Info(InfoVersion)
	if err != nil {
		return fmt.Errorf("%w: %s: reading version: %v", ErrInvalidPlan, s.path, err)
	}
	if _, err := s.Info(InfoName); err != nil {
		return fmt.Errorf("%w: %s: reading name: %v", ErrInvalidPlan, s.path, err)
	}

	version, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: version %q is not a number", ErrInvalidPlan, s.path, raw)
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("%w: %s has version %d, this build supports up to %d",
			ErrUnsupportedVersion, s.path, version, CurrentSchemaVersion)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the plan file location.
func (s *Store) Path() string {
	return s.path
}

// --- Info ---

func (s *Store) Info(key InfoKey) (string, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM info WHERE key = ?", key).Scan(&data)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return data, err
}

// Name returns the plan's display name.
func (s *Store) Name() (string, error) {
	return s.Info(InfoName)
}

// --- Floors ---

// Floors returns all floors ordered by level, without their images.
func (s *Store) Floors() ([]Floor, error) {
	rows, err := s.db.Query("SELECT id, level, name FROM floor ORDER BY level ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var floors []Floor
	for rows.Next() {
		var f Floor
		if err := rows.Scan(&f.ID, &f.Level, &f.Name); err != nil {
			return nil, err
		}
		floors = append(floors, f)
	}
	return floors, rows.Err()
}

func (s *Store) FloorImage(id int64) ([]byte, error) {
	var image []byte
	err := s.db.QueryRow("SELECT image FROM floor WHERE id = ?", id).Scan(&image)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return image, err
}

func (s *Store) AddFloor(f Floor) (int64, error) {
	if f.Image == nil {
		f.Image = []byte{}
	}
	res, err := s.db.Exec("INSERT INTO floor (level, name, image) VALUES (?, ?, ?)", f.Level, f.Name, f.Image)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// --- Seats ---

func (s *Store) Seats(floorID int64) ([]Seat, error) {
	rows, err := s.db.Query(`
		SELECT id, name, capacity, floor_id, lat1, lat2, lng1, lng2
		FROM seat WHERE floor_id = ? ORDER BY id ASC`, floorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []Seat
	for rows.Next() {
		var st Seat
		if err := rows.Scan(&st.ID, &st.Name, &st.Capacity, &st.FloorID, &st.Lat1, &st.Lat2, &st.Lng1, &st.Lng2); err != nil {
			return nil, err
		}
		seats = append(seats, st)
	}
	return seats, rows.Err()
}

func (s *Store) AddSeat(st Seat) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO seat (name, capacity, floor_id, lat1, lat2, lng1, lng2)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.Name, st.Capacity, st.FloorID, st.Lat1, st.Lat2, st.Lng1, st.Lng2,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeleteSeat removes a seat together with its assignments.
func (s *Store) DeleteSeat(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM seat_assignment WHERE seat_id = ?", id); err != nil {
		return err
	}
	res, err := tx.Exec("DELETE FROM seat WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *Store) SeatCount() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM seat").Scan(&n)
	return n, err
}

// --- Participants ---

func (s *Store) AddParticipant(p Participant) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO participant (first_name, last_name, guest_amount, guests_checkedin)
		VALUES (?, ?, ?, ?)`,
		p.FirstName, p.LastName, p.GuestAmount, p.GuestsCheckedIn,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) Participants() ([]Participant, error) {
	rows, err := s.db.Query(`
		SELECT id, first_name, last_name, guest_amount, guests_checkedin
		FROM participant ORDER BY last_name, first_name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.GuestAmount, &p.GuestsCheckedIn); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// --- Assignments ---

func (s *Store) AssignSeat(participantID, seatID int64) error {
	_, err := s.db.Exec(`
		INSERT INTO seat_assignment (participant_id, seat_id) VALUES (?, ?)
		ON CONFLICT(participant_id, seat_id) DO NOTHING`,
		participantID, seatID,
	)
	return err
}

func (s *Store) Assignments() ([]Assignment, error) {
	rows, err := s.db.Query("SELECT participant_id, seat_id FROM seat_assignment ORDER BY seat_id, participant_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ParticipantID, &a.SeatID); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
