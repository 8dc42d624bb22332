package words

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optionsWithout(modify func(*Options)) Options {
	opts := DefaultOptions()
	modify(&opts)
	return opts
}

// TestNormalize_LowercaseAndPunctuation tests the basic token pipeline
func TestNormalize_LowercaseAndPunctuation(t *testing.T) {
	n := NewNormalizer(optionsWithout(func(o *Options) { o.Stem = false }), nil)

	counts := n.Normalize("Hello, world!!!", true)

	assert.Equal(t, map[string]int{"hello": 1, "world": 1}, counts.Map())
}

// TestNormalize_DefaultOptions tests the same input with every step enabled
func TestNormalize_DefaultOptions(t *testing.T) {
	n := NewNormalizer(DefaultOptions(), nil)

	counts := n.Normalize("Hello, world!!!", true)

	assert.Equal(t, map[string]int{"hello": 1, "world": 1}, counts.Map())
}

// TestNormalize_OnlyFourPunctuationMarks tests that other punctuation is kept
func TestNormalize_OnlyFourPunctuationMarks(t *testing.T) {
	opts := Options{StripPunctuation: true}
	n := NewNormalizer(opts, nil)

	counts := n.Normalize("Wait... what?! (really); yes: no-way", true)

	assert.Equal(t, map[string]int{
		"Wait":      1,
		"what":      1,
		"(really);": 1,
		"yes:":      1,
		"no-way":    1,
	}, counts.Map())
}

// TestNormalize_StemmingMergesCounts tests that inflected forms share one key
func TestNormalize_StemmingMergesCounts(t *testing.T) {
	n := NewNormalizer(DefaultOptions(), nil)

	counts := n.Normalize("running runs run", true)

	assert.Equal(t, map[string]int{"run": 3}, counts.Map())
}

// TestNormalize_StemmingDisabled tests that unstemmed counts are returned when stemming is off
func TestNormalize_StemmingDisabled(t *testing.T) {
	n := NewNormalizer(optionsWithout(func(o *Options) { o.Stem = false }), nil)

	counts := n.Normalize("running runs run runs", true)

	assert.Equal(t, map[string]int{"running": 1, "runs": 2, "run": 1}, counts.Map())
	assert.Equal(t, []string{"running", "runs", "run"}, counts.Tokens())
}

// TestNormalize_EmptyBody tests the empty-body substitution
func TestNormalize_EmptyBody(t *testing.T) {
	n := NewNormalizer(optionsWithout(func(o *Options) { o.Stem = false }), nil)

	counts := n.Normalize("", false)
	assert.Equal(t, map[string]int{EmptyToken: 1}, counts.Map())

	// A present but blank body has no tokens at all
	counts = n.Normalize("   ", true)
	assert.Equal(t, 0, counts.Len())
}

// TestNormalize_ReplaceURLsAndNumbers tests URL and number replacement
func TestNormalize_ReplaceURLsAndNumbers(t *testing.T) {
	n := NewNormalizer(optionsWithout(func(o *Options) { o.Stem = false }), nil)

	counts := n.Normalize("Visit https://cheap-pills.example.com/buy?id=7 now, only 19.99 or 1,000 coins", true)

	assert.Equal(t, 1, counts.Get(URLToken))
	assert.Equal(t, 2, counts.Get(NumberToken))
	assert.Equal(t, 1, counts.Get("visit"))
	assert.Equal(t, 1, counts.Get("coins"))
	for _, token := range counts.Tokens() {
		assert.NotContains(t, token, "http")
	}
}

// TestNormalize_TogglesOff tests that disabled steps leave the text alone
func TestNormalize_TogglesOff(t *testing.T) {
	n := NewNormalizer(Options{}, nil)

	counts := n.Normalize("Call 555 at http://x.example.com NOW!", true)

	assert.Equal(t, []string{"Call", "555", "at", "http://x.example.com", "NOW!"}, counts.Tokens())
}

// TestNormalize_WhitespaceRuns tests that only whitespace separates tokens
func TestNormalize_WhitespaceRuns(t *testing.T) {
	n := NewNormalizer(Options{Lowercase: true}, nil)

	counts := n.Normalize("a\tb\n\nc   a\r\nb", true)

	assert.Equal(t, map[string]int{"a": 2, "b": 2, "c": 1}, counts.Map())
}

// TestNormalize_InjectedStemmer tests stemmer injection and error fallback
func TestNormalize_InjectedStemmer(t *testing.T) {
	stemmer := StemmerFunc(func(word string) (string, error) {
		if word == "broken" {
			return "", errors.New("cannot stem")
		}
		return strings.TrimSuffix(word, "s"), nil
	})
	n := NewNormalizer(Options{Stem: true}, stemmer)

	counts := n.Normalize("cats cat broken dogs", true)

	assert.Equal(t, map[string]int{"cat": 2, "broken": 1, "dog": 1}, counts.Map())
	assert.Equal(t, []string{"cat", "broken", "dog"}, counts.Tokens())
}

// TestNormalizers_Coexist tests that normalizers with different settings are independent
func TestNormalizers_Coexist(t *testing.T) {
	stemming := NewNormalizer(DefaultOptions(), nil)
	plain := NewNormalizer(optionsWithout(func(o *Options) { o.Stem = false }), nil)

	assert.Equal(t, 2, stemming.Normalize("jumps jumping", true).Get("jump"))
	assert.Equal(t, 0, plain.Normalize("jumps jumping", true).Get("jump"))
	assert.True(t, stemming.Options().Stem)
	assert.False(t, plain.Options().Stem)
}

// TestCounts tests ordered counting helpers
func TestCounts(t *testing.T) {
	c := NewCounts()
	c.Add("b", 2)
	c.Add("a", 1)
	c.Add("b", 3)

	assert.Equal(t, 5, c.Get("b"))
	assert.Equal(t, 0, c.Get("missing"))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 6, c.Total())
	assert.Equal(t, []string{"b", "a"}, c.Tokens())

	data, err := c.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":5}`, string(data))
}
