package db

import (
	"testing"

	"github.com/felo/eml-vectorizer/internal/mimetree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSaveFit tests saving a fit and loading it back
func TestSaveFit(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	fit := CreateTestFit("money", "win", "tomorrow")
	fit.Options.Stem = false

	id := InsertTestFit(t, db, fit)
	assert.NotEmpty(t, id, "Should generate a fit ID")
	assert.Equal(t, id, fit.ID)

	loaded, err := db.LoadFit(id)
	require.NoError(t, err)

	assert.Equal(t, id, loaded.ID)
	assert.Equal(t, 1000, loaded.VocabularySize)
	assert.False(t, loaded.Options.Stem)
	assert.True(t, loaded.Options.Lowercase)
	assert.Equal(t, "english", loaded.StemLanguage)
	assert.Equal(t, "/test/corpus", loaded.CorpusPath)
	assert.Equal(t, 3, loaded.MessageCount)
	assert.True(t, loaded.CreatedAt.Valid, "created_at should be set")
	assert.Equal(t, []string{"money", "win", "tomorrow"}, loaded.Vocabulary)
	assert.Equal(t, []mimetree.StructureCount{
		{Signature: "text/plain", Count: 2},
		{Signature: "multipart(text/plain, text/html)", Count: 1},
	}, loaded.Structures)
}

// TestSaveFit_KeepsGivenID tests that a caller-chosen ID is kept
func TestSaveFit_KeepsGivenID(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	fit := CreateTestFit("a")
	fit.ID = "fixed-id"

	id := InsertTestFit(t, db, fit)
	assert.Equal(t, "fixed-id", id)

	_, err := db.SaveFit(fit)
	assert.Error(t, err, "Saving the same ID twice should fail")

	active, err := db.ActiveFit()
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", active.ID, "A failed save must not change the active fit")
}

// TestActiveFit tests that the last saved fit becomes active
func TestActiveFit(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	_, err := db.ActiveFit()
	assert.ErrorIs(t, err, ErrNoActiveFit, "Empty database should have no active fit")

	first := InsertTestFit(t, db, CreateTestFit("first"))
	second := InsertTestFit(t, db, CreateTestFit("second"))

	active, err := db.ActiveFit()
	require.NoError(t, err)
	assert.Equal(t, second, active.ID)
	assert.Equal(t, []string{"second"}, active.Vocabulary)

	require.NoError(t, db.ActivateFit(first))
	active, err = db.ActiveFit()
	require.NoError(t, err)
	assert.Equal(t, first, active.ID)

	err = db.ActivateFit("missing")
	assert.ErrorIs(t, err, ErrFitNotFound)
}

// TestListFits tests listing fit metadata, newest first
func TestListFits(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	fits, err := db.ListFits()
	require.NoError(t, err)
	assert.Empty(t, fits)

	first := InsertTestFit(t, db, CreateTestFit("a"))
	second := InsertTestFit(t, db, CreateTestFit("b"))

	fits, err = db.ListFits()
	require.NoError(t, err)
	require.Len(t, fits, 2)
	assert.Equal(t, second, fits[0].ID)
	assert.Equal(t, first, fits[1].ID)
	assert.Nil(t, fits[0].Vocabulary, "Listing should not load vocabularies")
}

// TestDeleteFit tests removing a fit and clearing the active setting
func TestDeleteFit(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	id := InsertTestFit(t, db, CreateTestFit("money", "win"))

	require.NoError(t, db.DeleteFit(id))

	_, err := db.LoadFit(id)
	assert.ErrorIs(t, err, ErrFitNotFound)

	_, err = db.ActiveFit()
	assert.ErrorIs(t, err, ErrNoActiveFit)

	vocab, err := db.GetVocabulary(id)
	require.NoError(t, err)
	assert.Empty(t, vocab)

	results, err := db.SearchVocabulary(id, "mon", 10)
	require.NoError(t, err)
	assert.Empty(t, results, "FTS index should drop deleted tokens")

	err = db.DeleteFit(id)
	assert.ErrorIs(t, err, ErrFitNotFound)
}

// TestLoadFit_NotFound tests loading an unknown fit
func TestLoadFit_NotFound(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	_, err := db.LoadFit("does-not-exist")

	assert.ErrorIs(t, err, ErrFitNotFound)
}

// TestSettings tests setting and getting application settings
func TestSettings(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	// Get non-existent setting
	value, err := db.GetSetting("test_key")
	require.NoError(t, err)
	assert.Empty(t, value, "Non-existent setting should return empty string")

	// Set a setting
	err = db.SetSetting("test_key", "test_value")
	require.NoError(t, err)

	value, err = db.GetSetting("test_key")
	require.NoError(t, err)
	assert.Equal(t, "test_value", value)

	// Update the setting
	err = db.SetSetting("test_key", "updated_value")
	require.NoError(t, err)

	value, err = db.GetSetting("test_key")
	require.NoError(t, err)
	assert.Equal(t, "updated_value", value, "Setting should be updated")
}

// TestNullTimeScan tests scanning the time representations SQLite may return
func TestNullTimeScan(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		valid bool
		fails bool
	}{
		{name: "Nil", value: nil},
		{name: "SQLite timestamp", value: "2024-03-01 12:30:00", valid: true},
		{name: "RFC3339", value: "2024-03-01T12:30:00Z", valid: true},
		{name: "Garbage", value: "yesterday", fails: true},
		{name: "Unsupported type", value: 42, fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var nt NullTime
			err := nt.Scan(tt.value)
			if tt.fails {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.valid, nt.Valid)
			if tt.valid {
				assert.Equal(t, 2024, nt.Time.Year())
			}
		})
	}
}
