package db

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felo/eml-vectorizer/internal/mimetree"
	"github.com/felo/eml-vectorizer/internal/words"
)

var (
	// ErrNoActiveFit is returned when no fit has been saved yet
	ErrNoActiveFit = errors.New("no active fit")
	// ErrFitNotFound is returned for an unknown fit id
	ErrFitNotFound = errors.New("fit not found")
)

// NullTime is a custom type that handles both string and time.Time from SQLite
type NullTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner for NullTime
func (nt *NullTime) Scan(value interface{}) error {
	if value == nil {
		nt.Time, nt.Valid = time.Time{}, false
		return nil
	}

	switch v := value.(type) {
	case time.Time:
		nt.Time, nt.Valid = v, true
		return nil
	case string:
		formats := []string{
			time.RFC3339,
			time.RFC3339Nano,
			"2006-01-02 15:04:05.999999999 -0700 MST",
			"2006-01-02 15:04:05.999999999 -0700",
			"2006-01-02 15:04:05.999999999",
			"2006-01-02 15:04:05",
		}

		var t time.Time
		var err error
		for _, format := range formats {
			t, err = time.Parse(format, v)
			if err == nil {
				nt.Time, nt.Valid = t, true
				return nil
			}
		}

		return fmt.Errorf("failed to parse time string %q: %w", v, err)
	default:
		return fmt.Errorf("unsupported Scan type for NullTime: %T", value)
	}
}

// Value implements driver.Valuer for NullTime
func (nt NullTime) Value() (driver.Value, error) {
	if !nt.Valid {
		return nil, nil
	}
	return nt.Time, nil
}

// Fit is a learned vocabulary together with the settings it was learned
// with and the structure statistics of its corpus.
type Fit struct {
	ID             string                    `json:"id"`
	VocabularySize int                       `json:"vocabulary_size"`
	Options        words.Options             `json:"options"`
	StemLanguage   string                    `json:"stem_language"`
	CorpusPath     string                    `json:"corpus_path"`
	MessageCount   int                       `json:"message_count"`
	CreatedAt      NullTime                  `json:"-"`
	Vocabulary     []string                  `json:"vocabulary,omitempty"`
	Structures     []mimetree.StructureCount `json:"structures,omitempty"`
}

// SaveFit stores fit with its vocabulary and structures and makes it the
// active fit. An empty ID is replaced by a new UUID, which is returned.
func (db *DB) SaveFit(fit *Fit) (string, error) {
	if fit.ID == "" {
		fit.ID = uuid.NewString()
	}

	options, err := json.Marshal(fit.Options)
	if err != nil {
		return "", fmt.Errorf("failed to encode options: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO fits (id, vocabulary_size, options, stem_language, corpus_path, message_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, fit.ID, fit.VocabularySize, string(options), fit.StemLanguage, fit.CorpusPath, fit.MessageCount)
	if err != nil {
		return "", fmt.Errorf("failed to insert fit: %w", err)
	}

	vocabStmt, err := tx.Prepare("INSERT INTO vocabulary (fit_id, slot, token) VALUES (?, ?, ?)")
	if err != nil {
		return "", fmt.Errorf("failed to prepare vocabulary statement: %w", err)
	}
	defer vocabStmt.Close()

	for i, token := range fit.Vocabulary {
		if _, err := vocabStmt.Exec(fit.ID, i+1, token); err != nil {
			return "", fmt.Errorf("failed to insert token %q: %w", token, err)
		}
	}

	structStmt, err := tx.Prepare("INSERT INTO structures (fit_id, position, signature, occurrences) VALUES (?, ?, ?, ?)")
	if err != nil {
		return "", fmt.Errorf("failed to prepare structure statement: %w", err)
	}
	defer structStmt.Close()

	for i, s := range fit.Structures {
		if _, err := structStmt.Exec(fit.ID, i, s.Signature, s.Count); err != nil {
			return "", fmt.Errorf("failed to insert structure: %w", err)
		}
	}

	if err := setSetting(tx, SettingActiveFit, fit.ID); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return fit.ID, nil
}

// ActiveFit loads the fit most recently saved or activated
func (db *DB) ActiveFit() (*Fit, error) {
	id, err := db.GetSetting(SettingActiveFit)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrNoActiveFit
	}
	return db.LoadFit(id)
}

// ActivateFit makes an existing fit the active one
func (db *DB) ActivateFit(id string) error {
	if _, err := db.getFitRow(id); err != nil {
		return err
	}
	return db.SetSetting(SettingActiveFit, id)
}

// LoadFit loads a fit with its vocabulary and structures
func (db *DB) LoadFit(id string) (*Fit, error) {
	fit, err := db.getFitRow(id)
	if err != nil {
		return nil, err
	}

	fit.Vocabulary, err = db.GetVocabulary(id)
	if err != nil {
		return nil, err
	}

	fit.Structures, err = db.ListStructures(id)
	if err != nil {
		return nil, err
	}

	return fit, nil
}

// ListFits returns all fits without vocabulary or structures, newest first
func (db *DB) ListFits() ([]*Fit, error) {
	rows, err := db.Query(`
		SELECT id, vocabulary_size, options, stem_language, corpus_path, message_count, created_at
		FROM fits
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list fits: %w", err)
	}
	defer rows.Close()

	var fits []*Fit
	for rows.Next() {
		fit, err := scanFit(rows)
		if err != nil {
			return nil, err
		}
		fits = append(fits, fit)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fits: %w", err)
	}

	return fits, nil
}

// DeleteFit removes a fit and everything it owns. Deleting the active fit
// leaves no fit active.
func (db *DB) DeleteFit(id string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"vocabulary", "structures"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE fit_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}

	res, err := tx.Exec("DELETE FROM fits WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete fit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrFitNotFound, id)
	}

	if _, err := tx.Exec("DELETE FROM settings WHERE key = ? AND value = ?", SettingActiveFit, id); err != nil {
		return fmt.Errorf("failed to clear active fit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetVocabulary returns the tokens of a fit in slot order
func (db *DB) GetVocabulary(fitID string) ([]string, error) {
	rows, err := db.Query("SELECT token FROM vocabulary WHERE fit_id = ? ORDER BY slot", fitID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vocabulary: %w", err)
	}
	defer rows.Close()

	tokens := make([]string, 0)
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vocabulary: %w", err)
	}

	return tokens, nil
}

// ListStructures returns the structure counts of a fit, most common first
func (db *DB) ListStructures(fitID string) ([]mimetree.StructureCount, error) {
	rows, err := db.Query(`
		SELECT signature, occurrences FROM structures
		WHERE fit_id = ?
		ORDER BY position
	`, fitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list structures: %w", err)
	}
	defer rows.Close()

	structures := make([]mimetree.StructureCount, 0)
	for rows.Next() {
		var s mimetree.StructureCount
		if err := rows.Scan(&s.Signature, &s.Count); err != nil {
			return nil, fmt.Errorf("failed to scan structure: %w", err)
		}
		structures = append(structures, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating structures: %w", err)
	}

	return structures, nil
}

func (db *DB) getFitRow(id string) (*Fit, error) {
	row := db.QueryRow(`
		SELECT id, vocabulary_size, options, stem_language, corpus_path, message_count, created_at
		FROM fits WHERE id = ?
	`, id)

	fit, err := scanFit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrFitNotFound, id)
	}
	return fit, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFit(row rowScanner) (*Fit, error) {
	var (
		fit        Fit
		options    string
		corpusPath sql.NullString
	)
	err := row.Scan(&fit.ID, &fit.VocabularySize, &options, &fit.StemLanguage,
		&corpusPath, &fit.MessageCount, &fit.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan fit: %w", err)
	}

	if err := json.Unmarshal([]byte(options), &fit.Options); err != nil {
		return nil, fmt.Errorf("failed to decode options of fit %s: %w", fit.ID, err)
	}
	fit.CorpusPath = corpusPath.String

	return &fit, nil
}
