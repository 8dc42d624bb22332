// Package words turns a plain-text email body into token counts.
package words

import (
	"regexp"
	"strings"

	"mvdan.cc/xurls/v2"
)

// EmptyToken replaces the body of a message that has none
const EmptyToken = "empty"

// Replacement tokens for URLs and numbers
const (
	URLToken    = "url"
	NumberToken = "number"
)

var (
	urlPattern    = xurls.Relaxed()
	numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*(?:[eE][-+]?\d+)?`)

	// Only these four characters are removed
	punctuation = strings.NewReplacer(".", "", ",", "", "!", "", "?", "")
)

// Options toggles the normalization steps
type Options struct {
	// StripHeaders leaves the Subject out of the text. It is applied by the
	// caller that extracts the body, since Normalize only sees the body.
	StripHeaders     bool `json:"strip_headers"`
	Lowercase        bool `json:"lowercase"`
	StripPunctuation bool `json:"strip_punctuation"`
	ReplaceURLs      bool `json:"replace_urls"`
	ReplaceNumbers   bool `json:"replace_numbers"`
	Stem             bool `json:"stem"`
}

// DefaultOptions enables every step
func DefaultOptions() Options {
	return Options{
		StripHeaders:     true,
		Lowercase:        true,
		StripPunctuation: true,
		ReplaceURLs:      true,
		ReplaceNumbers:   true,
		Stem:             true,
	}
}

// Normalizer converts bodies into word counts. It holds no per-message state
// and is safe for concurrent use if its Stemmer is.
type Normalizer struct {
	opts    Options
	stemmer Stemmer
}

// NewNormalizer creates a normalizer. A nil stemmer defaults to the English
// Snowball stemmer.
func NewNormalizer(opts Options, stemmer Stemmer) *Normalizer {
	if stemmer == nil {
		stemmer = SnowballStemmer{Language: "english"}
	}
	return &Normalizer{
		opts:    opts,
		stemmer: stemmer,
	}
}

// Options returns the normalizer configuration
func (n *Normalizer) Options() Options {
	return n.opts
}

// Normalize counts the whitespace-separated tokens of body. When ok is false
// the message had no usable body and is counted as the single token "empty".
func (n *Normalizer) Normalize(body string, ok bool) *Counts {
	text := body
	if !ok {
		text = EmptyToken
	}

	if n.opts.Lowercase {
		text = strings.ToLower(text)
	}
	if n.opts.ReplaceURLs {
		text = urlPattern.ReplaceAllString(text, " "+URLToken+" ")
	}
	if n.opts.ReplaceNumbers {
		text = numberPattern.ReplaceAllString(text, NumberToken)
	}
	if n.opts.StripPunctuation {
		text = punctuation.Replace(text)
	}

	counts := CountsOf(strings.Fields(text)...)
	if !n.opts.Stem {
		return counts
	}

	stemmed := NewCounts()
	counts.Each(func(token string, count int) {
		stemmed.Add(n.stem(token), count)
	})
	return stemmed
}

func (n *Normalizer) stem(token string) string {
	root, err := n.stemmer.Stem(token)
	if err != nil || root == "" {
		return token
	}
	return root
}
