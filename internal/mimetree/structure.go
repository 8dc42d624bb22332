package mimetree

import (
	"sort"
	"strings"
)

// Structure renders the shape of a MIME tree, e.g.
// "multipart(text/plain, multipart(text/plain, text/html))".
// Sibling order and nesting depth are part of the signature.
func Structure(n Node) string {
	switch n := n.(type) {
	case Text:
		return string(n)
	case *Multipart:
		sigs := make([]string, len(n.Parts))
		for i, part := range n.Parts {
			sigs[i] = Structure(part)
		}
		return "multipart(" + strings.Join(sigs, ", ") + ")"
	case *Leaf:
		return n.ContentType
	default:
		return ""
	}
}

// StructureCount is the number of messages sharing one structure signature
type StructureCount struct {
	Signature string `json:"signature"`
	Count     int    `json:"count"`
}

// CountStructures tallies the structure signatures of a corpus, most common
// first. Equal counts keep the order in which signatures were first seen.
func CountStructures(nodes []Node) []StructureCount {
	index := make(map[string]int)
	var counts []StructureCount

	for _, n := range nodes {
		sig := Structure(n)
		if i, ok := index[sig]; ok {
			counts[i].Count++
			continue
		}
		index[sig] = len(counts)
		counts = append(counts, StructureCount{Signature: sig, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	return counts
}
