package words

import "encoding/json"

// Counts maps tokens to occurrence counts and remembers the order in which
// tokens were first added.
type Counts struct {
	order  []string
	counts map[string]int
}

// NewCounts creates an empty Counts
func NewCounts() *Counts {
	return &Counts{counts: make(map[string]int)}
}

// CountsOf tallies tokens in order
func CountsOf(tokens ...string) *Counts {
	c := NewCounts()
	for _, token := range tokens {
		c.Add(token, 1)
	}
	return c
}

// Add increments the count of token by n
func (c *Counts) Add(token string, n int) {
	if _, ok := c.counts[token]; !ok {
		c.order = append(c.order, token)
	}
	c.counts[token] += n
}

// Get returns the count of token, 0 if absent
func (c *Counts) Get(token string) int {
	return c.counts[token]
}

// Len returns the number of distinct tokens
func (c *Counts) Len() int {
	return len(c.order)
}

// Total returns the sum of all counts
func (c *Counts) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Tokens returns the distinct tokens in first-insertion order
func (c *Counts) Tokens() []string {
	tokens := make([]string, len(c.order))
	copy(tokens, c.order)
	return tokens
}

// Each calls fn for every token in first-insertion order
func (c *Counts) Each(fn func(token string, count int)) {
	for _, token := range c.order {
		fn(token, c.counts[token])
	}
}

// Map returns a copy of the counts as a plain map
func (c *Counts) Map() map[string]int {
	m := make(map[string]int, len(c.counts))
	for token, n := range c.counts {
		m[token] = n
	}
	return m
}

// MarshalJSON encodes the counts as a JSON object
func (c *Counts) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.counts)
}
