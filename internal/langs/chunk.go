package langs

import "strings"

// Chunk breaks code into pieces of at most limit characters, splitting on sep.
// Pieces of minChunk characters or fewer are dropped. A single part longer than
// limit is re-split on newlines and only its first chunk is kept.
func Chunk(code, sep string, limit, minChunk int) []string {
	if len(code) <= limit {
		return []string{code}
	}
	if sep == "" {
		sep = "\n"
	}
	var (
		out     []string
		current strings.Builder
	)
	emit := func() {
		if current.Len() > minChunk {
			out = append(out, strings.TrimSpace(current.String()))
		}
		current.Reset()
	}
	for _, part := range strings.Split(code, sep) {
		if len(part) > limit {
			if sep != "\n" {
				if chunks := Chunk(part, "\n", limit, minChunk); len(chunks) > 0 {
					out = append(out, chunks[0])
				}
			}
			continue
		}
		if current.Len()+len(part) > limit && current.Len() > 0 {
			emit()
		}
		current.WriteString(part)
		current.WriteString(sep)
	}
	if current.Len() > 0 {
		emit()
	}
	return out
}
