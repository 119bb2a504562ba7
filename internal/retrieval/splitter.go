package retrieval

import (
	"strings"
)

// SplitText cuts a document into chunks of at most chunkSize bytes with
// roughly overlap bytes of trailing context carried into the next chunk.
// Paragraph boundaries are preferred; a paragraph longer than chunkSize is
// cut at whitespace.
func SplitText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}

	var pieces []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= chunkSize {
			pieces = append(pieces, para)
			continue
		}
		pieces = append(pieces, splitLong(para, chunkSize)...)
	}

	return mergePieces(pieces, chunkSize, overlap)
}

// splitLong cuts an oversized paragraph at whitespace near chunkSize.
func splitLong(s string, chunkSize int) []string {
	var out []string
	for len(s) > chunkSize {
		cut := strings.LastIndexAny(s[:chunkSize], " \t\n")
		if cut <= 0 {
			cut = chunkSize
		}
		out = append(out, strings.TrimSpace(s[:cut]))
		s = strings.TrimSpace(s[cut:])
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

// mergePieces packs pieces into chunks up to chunkSize, carrying overlap
// bytes of each chunk's tail into the next.
func mergePieces(pieces []string, chunkSize, overlap int) []string {
	var (
		chunks  []string
		current strings.Builder
	)

	flush := func() string {
		if current.Len() == 0 {
			return ""
		}
		chunk := current.String()
		chunks = append(chunks, chunk)
		current.Reset()

		if overlap > 0 && len(chunk) > overlap {
			tail := chunk[len(chunk)-overlap:]
			if i := strings.IndexAny(tail, " \t\n"); i >= 0 && i+1 < len(tail) {
				tail = tail[i+1:]
			}
			return tail
		}
		return ""
	}

	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece)+2 > chunkSize {
			tail := flush()
			// The carried tail must still leave room for the piece, or the
			// next chunk starts over the size limit.
			if tail != "" && len(tail)+len(piece)+2 <= chunkSize {
				current.WriteString(tail)
			}
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(piece)
	}
	flush()

	return chunks
}
