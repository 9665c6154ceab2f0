package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	t.Run("Basic Boundaries", func(t *testing.T) {
		got := SplitSentences("First sentence. Second sentence! Third one? Fourth.")
		assert.Equal(t, []string{
			"First sentence.",
			"Second sentence!",
			"Third one?",
			"Fourth.",
		}, got)
	})

	t.Run("Abbreviations Do Not Split", func(t *testing.T) {
		got := SplitSentences("Dr. Smith teaches the course. It covers protocols.")
		assert.Equal(t, []string{
			"Dr. Smith teaches the course.",
			"It covers protocols.",
		}, got)
	})

	t.Run("Initials Do Not Split", func(t *testing.T) {
		got := SplitSentences("The U.S. Government uses it. Agencies adopted it quickly.")
		assert.Equal(t, []string{
			"The U.S. Government uses it.",
			"Agencies adopted it quickly.",
		}, got)
	})

	t.Run("Lowercase Continuation Does Not Split", func(t *testing.T) {
		got := SplitSentences("See section 2.1 for details about the setup.")
		assert.Len(t, got, 1)
	})

	t.Run("Whitespace Normalized", func(t *testing.T) {
		got := SplitSentences("One  sentence\nacross   lines. Another one.")
		assert.Equal(t, []string{
			"One sentence across lines.",
			"Another one.",
		}, got)
	})

	t.Run("Empty Input", func(t *testing.T) {
		assert.Nil(t, SplitSentences(""))
		assert.Nil(t, SplitSentences("   \n\t  "))
	})

	t.Run("No Terminator", func(t *testing.T) {
		got := SplitSentences("a fragment without punctuation")
		assert.Equal(t, []string{"a fragment without punctuation"}, got)
	})
}

func TestChunk(t *testing.T) {
	t.Run("Empty Input", func(t *testing.T) {
		assert.Nil(t, Chunk("", 100, 10))
	})

	t.Run("Single Short Sentence", func(t *testing.T) {
		chunks := Chunk("Just one sentence here.", 100, 10)
		assert.Equal(t, []string{"Just one sentence here."}, chunks)
	})

	t.Run("Oversized Sentence Emitted Whole", func(t *testing.T) {
		long := "This sentence is much longer than the configured chunk size limit."
		chunks := Chunk(long, 10, 0)
		require.Len(t, chunks, 1)
		assert.Equal(t, long, chunks[0])
	})

	t.Run("Greedy Accumulation Respects Size", func(t *testing.T) {
		text := "Alpha one. Beta two. Gamma three. Delta four."
		chunks := Chunk(text, 25, 0)
		require.True(t, len(chunks) > 1)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), 25, "chunk %q exceeds size", c)
		}
	})

	t.Run("No Sentence Dropped", func(t *testing.T) {
		text := "Alpha one. Beta two. Gamma three. Delta four. Epsilon five."
		sentences := SplitSentences(text)
		chunks := Chunk(text, 25, 12)
		joined := strings.Join(chunks, " ")
		for _, s := range sentences {
			assert.Contains(t, joined, s)
		}
	})

	t.Run("Overlap Shares Trailing Sentence", func(t *testing.T) {
		text := "Alpha one. Beta two. Gamma three. Delta four. Epsilon five."
		chunks := Chunk(text, 30, 15)
		require.True(t, len(chunks) > 1)
		for i := 0; i < len(chunks)-1; i++ {
			prev := SplitSentences(chunks[i])
			next := SplitSentences(chunks[i+1])
			require.NotEmpty(t, prev)
			require.NotEmpty(t, next)
			assert.Equal(t, prev[len(prev)-1], next[0],
				"chunk %d should start with the last sentence of chunk %d", i+1, i)
		}
	})

	t.Run("Zero Overlap Never Repeats", func(t *testing.T) {
		text := "Alpha one. Beta two. Gamma three. Delta four."
		chunks := Chunk(text, 22, 0)
		seen := map[string]bool{}
		for _, c := range chunks {
			for _, s := range SplitSentences(c) {
				assert.False(t, seen[s], "sentence %q repeated without overlap", s)
				seen[s] = true
			}
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		text := "Alpha one. Beta two. Gamma three. Delta four. Epsilon five."
		assert.Equal(t, Chunk(text, 30, 15), Chunk(text, 30, 15))
	})

	t.Run("Overlap Larger Than Chunk Still Progresses", func(t *testing.T) {
		text := "Alpha one. Beta two. Gamma three. Delta four."
		chunks := Chunk(text, 15, 500)
		require.NotEmpty(t, chunks)
		joined := strings.Join(chunks, " ")
		assert.Contains(t, joined, "Delta four.")
	})
}
