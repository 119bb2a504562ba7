package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortDocument(t *testing.T) {
	chunks := SplitText("one short paragraph", 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "one short paragraph", chunks[0])
}

func TestSplitTextEmpty(t *testing.T) {
	assert.Empty(t, SplitText("", 1000, 200))
	assert.Empty(t, SplitText("\n\n\n\n", 1000, 200))
}

func TestSplitTextMergesParagraphs(t *testing.T) {
	text := "alpha paragraph\n\nbeta paragraph\n\ngamma paragraph"

	chunks := SplitText(text, 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitTextRespectsChunkSize(t *testing.T) {
	var paras []string
	for i := 0; i < 20; i++ {
		paras = append(paras, strings.Repeat("word ", 20))
	}
	text := strings.Join(paras, "\n\n")

	chunks := SplitText(text, 300, 50)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 300)
		assert.NotEmpty(t, chunk)
	}
}

func TestSplitTextLongParagraphCutAtWhitespace(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("abcdefg ", 100))

	chunks := SplitText(text, 200, 0)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 200)
		assert.False(t, strings.HasPrefix(chunk, " "))
		assert.False(t, strings.HasSuffix(chunk, " "))
	}
}

func TestSplitTextOverlapStaysWithinChunkSize(t *testing.T) {
	// A large overlap against near-full pieces must not push the next chunk
	// past the size limit.
	var paras []string
	for i := 0; i < 6; i++ {
		paras = append(paras, strings.TrimSpace(strings.Repeat("word ", 16)))
	}
	text := strings.Join(paras, "\n\n")

	chunks := SplitText(text, 100, 60)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
	}
}

func TestSplitTextOverlapCarriesTail(t *testing.T) {
	var paras []string
	for i := 0; i < 10; i++ {
		paras = append(paras, strings.Repeat("tok ", 30))
	}
	text := strings.Join(paras, "\n\n")

	withOverlap := SplitText(text, 250, 100)
	withoutOverlap := SplitText(text, 250, 0)

	// Carried tails mean more total bytes across chunks.
	total := func(chunks []string) int {
		n := 0
		for _, c := range chunks {
			n += len(c)
		}
		return n
	}
	assert.Greater(t, total(withOverlap), total(withoutOverlap))
}
