package db

import (
	"fmt"
	"strings"
)

// VocabularyEntry is one token of a fitted vocabulary and its column
type VocabularyEntry struct {
	Slot  int    `json:"slot"`
	Token string `json:"token"`
}

// SearchVocabulary finds tokens of a fit by prefix using FTS5. Every term
// of query must prefix-match; an empty query lists the vocabulary in slot
// order.
func (db *DB) SearchVocabulary(fitID, query string, limit int) ([]VocabularyEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	var (
		sql  string
		args []any
	)
	if terms := strings.Fields(query); len(terms) > 0 {
		// "mon" -> "mon"*, quoting keeps FTS5 operators out of the query
		prefixTerms := make([]string, len(terms))
		for i, term := range terms {
			prefixTerms[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"*`
		}

		sql = `
			SELECT v.slot, v.token
			FROM vocabulary v
			JOIN vocabulary_fts ON v.id = vocabulary_fts.rowid
			WHERE vocabulary_fts MATCH ? AND v.fit_id = ?
			ORDER BY v.slot
			LIMIT ?
		`
		args = []any{strings.Join(prefixTerms, " "), fitID, limit}
	} else {
		sql = "SELECT slot, token FROM vocabulary WHERE fit_id = ? ORDER BY slot LIMIT ?"
		args = []any{fitID, limit}
	}

	rows, err := db.Query(sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search vocabulary: %w", err)
	}
	defer rows.Close()

	results := make([]VocabularyEntry, 0)
	for rows.Next() {
		var e VocabularyEntry
		if err := rows.Scan(&e.Slot, &e.Token); err != nil {
			return nil, fmt.Errorf("failed to scan vocabulary entry: %w", err)
		}
		results = append(results, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, nil
}
