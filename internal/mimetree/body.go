package mimetree

const (
	contentTypePlain = "text/plain"
	contentTypeHTML  = "text/html"
)

// Body returns the canonical plain-text body of a message: the first
// text/plain part in depth-first order, or the first text/html part converted
// with HTMLToText if it comes first. ok is false when no eligible part exists.
func Body(n Node) (body string, ok bool) {
	var found bool
	walk(n, func(part Node) bool {
		switch part := part.(type) {
		case Text:
			body, found = string(part), true
		case *Leaf:
			switch part.ContentType {
			case contentTypePlain:
				body, found = part.Decoded(), true
			case contentTypeHTML:
				body, found = HTMLToText(part.Decoded()), true
			}
		}
		return !found
	})
	return body, found
}

// walk visits n and its descendants in pre-order until visit returns false
func walk(n Node, visit func(Node) bool) bool {
	if !visit(n) {
		return false
	}
	if mp, ok := n.(*Multipart); ok {
		for _, part := range mp.Parts {
			if !walk(part, visit) {
				return false
			}
		}
	}
	return true
}
