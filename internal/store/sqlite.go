package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/i474232898/weather-tracker/internal/weather"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id       TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS tracked_cities (
	user_id  TEXT    NOT NULL REFERENCES users(id),
	city     TEXT    NOT NULL,
	position INTEGER NOT NULL,
	doc      TEXT    NOT NULL,
	PRIMARY KEY (user_id, city)
);
`

// SQLiteStore is a persistent weather.Store backed by SQLite. The tracked
// city record (coordinates plus cached forecast) is kept as a JSON document
// per row; position preserves insertion order within a user.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateUser(u weather.User) error {
	_, err := s.db.Exec(`INSERT INTO users (id, username) VALUES (?, ?)`, u.ID, u.Username)
	if isUniqueViolation(err) {
		return weather.ErrConflict
	}
	return err
}

func (s *SQLiteStore) GetUser(id string) (weather.User, error) {
	var u weather.User
	err := s.db.QueryRow(`SELECT id, username FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.User{}, weather.ErrNotFound
	}
	return u, err
}

func (s *SQLiteStore) AddCity(userID, city string, loc weather.Location) error {
	if _, err := s.GetUser(userID); err != nil {
		return err
	}

	doc, err := json.Marshal(weather.TrackedCity{Name: city, Location: loc})
	if err != nil {
		return err
	}

	// MAX(position)+1 rather than COUNT(*): removals leave gaps, and a
	// count-based position could place a new city before older ones.
	_, err = s.db.Exec(
		`INSERT INTO tracked_cities (user_id, city, position, doc)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position)+1, 0) FROM tracked_cities WHERE user_id = ?), ?)`,
		userID, city, userID, string(doc))
	if isUniqueViolation(err) {
		return weather.ErrConflict
	}
	return err
}

func (s *SQLiteStore) ListCities(userID string) ([]string, error) {
	if _, err := s.GetUser(userID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT city FROM tracked_cities WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, err
		}
		out = append(out, city)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetCity(userID, city string) (weather.TrackedCity, error) {
	var doc string
	err := s.db.QueryRow(
		`SELECT doc FROM tracked_cities WHERE user_id = ? AND city = ?`, userID, city).
		Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.TrackedCity{}, weather.ErrNotFound
	}
	if err != nil {
		return weather.TrackedCity{}, err
	}

	var tc weather.TrackedCity
	if err := json.Unmarshal([]byte(doc), &tc); err != nil {
		return weather.TrackedCity{}, fmt.Errorf("decode tracked city %s/%s: %w", userID, city, err)
	}
	return tc, nil
}

func (s *SQLiteStore) SetForecast(userID, city string, fs weather.ForecastSeries) error {
	tc, err := s.GetCity(userID, city)
	if err != nil {
		return err
	}
	tc.Forecast = fs

	doc, err := json.Marshal(tc)
	if err != nil {
		return err
	}

	// Single UPDATE statement: readers see the old or the new document.
	res, err := s.db.Exec(
		`UPDATE tracked_cities SET doc = ? WHERE user_id = ? AND city = ?`,
		string(doc), userID, city)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return weather.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) RemoveCity(userID, city string) error {
	res, err := s.db.Exec(
		`DELETE FROM tracked_cities WHERE user_id = ? AND city = ?`, userID, city)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return weather.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListTracked() ([]weather.TrackedRef, error) {
	rows, err := s.db.Query(
		`SELECT user_id, city, doc FROM tracked_cities ORDER BY user_id, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []weather.TrackedRef
	for rows.Next() {
		var ref weather.TrackedRef
		var doc string
		if err := rows.Scan(&ref.UserID, &ref.City, &doc); err != nil {
			return nil, err
		}
		var tc weather.TrackedCity
		if err := json.Unmarshal([]byte(doc), &tc); err != nil {
			return nil, fmt.Errorf("decode tracked city %s/%s: %w", ref.UserID, ref.City, err)
		}
		ref.Location = tc.Location
		out = append(out, ref)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) &&
		(serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}
