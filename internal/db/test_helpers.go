package db

import (
	"testing"

	"github.com/felo/eml-vectorizer/internal/mimetree"
	"github.com/felo/eml-vectorizer/internal/words"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database
func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	if err := db.Close(); err != nil {
		t.Errorf("Failed to close test database: %v", err)
	}
}

// CreateTestFit creates an unsaved fit with default options
func CreateTestFit(vocabulary ...string) *Fit {
	return &Fit{
		VocabularySize: 1000,
		Options:        words.DefaultOptions(),
		StemLanguage:   "english",
		CorpusPath:     "/test/corpus",
		MessageCount:   3,
		Vocabulary:     vocabulary,
		Structures: []mimetree.StructureCount{
			{Signature: "text/plain", Count: 2},
			{Signature: "multipart(text/plain, text/html)", Count: 1},
		},
	}
}

// InsertTestFit saves a fit and returns its id
func InsertTestFit(t *testing.T, db *DB, fit *Fit) string {
	t.Helper()

	id, err := db.SaveFit(fit)
	if err != nil {
		t.Fatalf("Failed to insert test fit: %v", err)
	}

	return id
}
