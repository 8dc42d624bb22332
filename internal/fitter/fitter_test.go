package fitter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/felo/eml-vectorizer/internal/db"
	"github.com/felo/eml-vectorizer/internal/mimetree"
	"github.com/felo/eml-vectorizer/internal/words"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(corpusPath string) Options {
	opts := words.DefaultOptions()
	return Options{
		CorpusPath:     corpusPath,
		VocabularySize: 5,
		Workers:        2,
		Normalizer:     opts,
		StemLanguage:   "english",
	}
}

// TestRun tests the whole flow from corpus files to a stored, restorable fit
func TestRun(t *testing.T) {
	database := db.SetupTestDB(t)
	defer db.CleanupTestDB(t, database)

	var progressCalls int
	result, err := Run(context.Background(), database, testOptions("../corpus/testdata"), nil,
		func(current, total int, path string) { progressCalls++ })
	require.NoError(t, err)

	assert.Equal(t, 4, progressCalls)
	assert.Equal(t, 4, result.Load.Loaded)
	assert.Equal(t, 5, result.Fit.MessageCount)
	assert.Len(t, result.Fit.Vocabulary, 5)
	// money appears 3 + 1 times, more than any other stem
	assert.Equal(t, "money", result.Fit.Vocabulary[0])
	assert.Equal(t, []mimetree.StructureCount{
		{Signature: "text/plain", Count: 3},
		{Signature: "multipart(text/plain, text/html)", Count: 1},
		{Signature: "text/html", Count: 1},
	}, result.Fit.Structures)

	fit, p, err := RestoreActive(database)
	require.NoError(t, err)
	assert.Equal(t, result.Fit.ID, fit.ID)

	restored, err := p.Vectorizer().Vocabulary()
	require.NoError(t, err)
	assert.Equal(t, result.Fit.Vocabulary, restored.Tokens())

	// Restored and freshly fitted pipelines agree on new messages
	msg := []mimetree.Node{mimetree.Text("Money for lunch tomorrow")}
	want, err := result.Pipeline.Transform(msg)
	require.NoError(t, err)
	got, err := p.Transform(msg)
	require.NoError(t, err)
	for j := 0; j < 6; j++ {
		assert.Equal(t, want.At(0, j), got.At(0, j), "column %d", j)
	}
}

// TestRun_EmptyCorpus tests that a corpus without messages is rejected
func TestRun_EmptyCorpus(t *testing.T) {
	database := db.SetupTestDB(t)
	defer db.CleanupTestDB(t, database)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("nothing"), 0644))

	_, err := Run(context.Background(), database, testOptions(root), nil, nil)
	assert.Error(t, err)

	_, _, err = RestoreActive(database)
	assert.ErrorIs(t, err, db.ErrNoActiveFit, "A failed fit must not be stored")
}

// TestRestore_OversizedVocabulary tests restoring a corrupt fit
func TestRestore_OversizedVocabulary(t *testing.T) {
	fit := db.CreateTestFit("a", "b", "c")
	fit.VocabularySize = 2

	_, err := Restore(fit)
	assert.Error(t, err)
}
