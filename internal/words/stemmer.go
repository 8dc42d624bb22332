package words

import (
	"slices"

	"github.com/kljensen/snowball"
)

// Stemmer reduces a word to its root form
type Stemmer interface {
	Stem(word string) (string, error)
}

// StemmerFunc adapts a function to the Stemmer interface
type StemmerFunc func(word string) (string, error)

// Stem calls f(word)
func (f StemmerFunc) Stem(word string) (string, error) {
	return f(word)
}

// SnowballStemmer stems words with the Snowball algorithm for Language
type SnowballStemmer struct {
	Language string
}

// Stem implements Stemmer. Stop words are stemmed like any other word.
func (s SnowballStemmer) Stem(word string) (string, error) {
	return snowball.Stem(word, s.Language, true)
}

// SnowballLanguages lists the languages SnowballStemmer supports
var SnowballLanguages = []string{"english", "french", "hungarian", "norwegian", "russian", "spanish", "swedish"}

// IsSnowballLanguage reports whether lang is one of SnowballLanguages
func IsSnowballLanguage(lang string) bool {
	return slices.Contains(SnowballLanguages, lang)
}
