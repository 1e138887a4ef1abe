package textutil

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestResponseHash_StableForSameAttempt(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 123_000_000, time.UTC)

	a := ResponseHash("chat-1", "plants make food", at)
	b := ResponseHash("chat-1", "plants make food", at.Add(400*time.Microsecond))
	assert.Equal(t, a, b, "sub-millisecond difference should not change the hash")
	assert.Len(t, a, 64)
}

func TestResponseHash_DiffersByInput(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	base := ResponseHash("chat-1", "answer", at)

	assert.NotEqual(t, base, ResponseHash("chat-2", "answer", at))
	assert.NotEqual(t, base, ResponseHash("chat-1", "answer!", at))
	assert.NotEqual(t, base, ResponseHash("chat-1", "answer", at.Add(time.Millisecond)))
	// Field boundaries matter.
	assert.NotEqual(t, ResponseHash("ab", "c", at), ResponseHash("a", "bc", at))
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello   world ", "hello world"},
		{"<b>bold</b> text", "bold text"},
		{"line1\n\nline2\t\tend", "line1 line2 end"},
		{"bell\x07char", "bellchar"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExcerpt_Truncates(t *testing.T) {
	long := strings.Repeat("photosynthesis ", 40)
	got := Excerpt(long, ExcerptLimit)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), ExcerptLimit)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestExcerpt_ShortUnchanged(t *testing.T) {
	assert.Equal(t, "short answer", Excerpt("  short\nanswer ", ExcerptLimit))
}

func TestExcerpt_MultibyteSafe(t *testing.T) {
	s := strings.Repeat("é", 300)
	got := Excerpt(s, ExcerptLimit)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, utf8.RuneCountInString(got), ExcerptLimit)
}

func TestWordsAndNormalize(t *testing.T) {
	assert.Equal(t, []string{"it's", "a", "cell", "s", "job"}, Words("It's a cell-s job!"))
	assert.Equal(t, "that makes sense", Normalize("That makes  sense!!"))
}

func TestRandomInt_Bounds(t *testing.T) {
	src := NewSeededSource(42)
	for range 500 {
		v := RandomInt(src, 2, 3)
		if v < 2 || v > 3 {
			t.Fatalf("RandomInt out of range: %d", v)
		}
	}
}

func TestRandomInt_SwappedBounds(t *testing.T) {
	v := RandomInt(FixedSource(0), 5, 4)
	assert.Equal(t, 4, v)
}

func TestFixedSource_Clamps(t *testing.T) {
	assert.Equal(t, 3, RandomInt(FixedSource(99), 2, 3))
	assert.Equal(t, 2, RandomInt(FixedSource(-1), 2, 3))
}
