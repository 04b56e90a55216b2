package epub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnescapeWithMap(t *testing.T) {
	t.Run("Plain text maps identically", func(t *testing.T) {
		text, runeMap := UnescapeWithMap("plain")
		assert.Equal(t, "plain", text)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, runeMap)
	})

	t.Run("Entity collapses with stable map", func(t *testing.T) {
		text, runeMap := UnescapeWithMap("a&amp;b")
		assert.Equal(t, "a&b", text)
		// The unescaped & maps to the start of the reference
		assert.Equal(t, []int{0, 1, 6}, runeMap)
	})

	t.Run("Numeric reference", func(t *testing.T) {
		text, runeMap := UnescapeWithMap("x&#233;y")
		assert.Equal(t, "xéy", text)
		assert.Equal(t, []int{0, 1, 7}, runeMap)
	})

	t.Run("Lone ampersand stays literal", func(t *testing.T) {
		text, runeMap := UnescapeWithMap("fish & chips")
		assert.Equal(t, "fish & chips", text)
		assert.Len(t, runeMap, len("fish & chips"))
	})
}

func TestFragments(t *testing.T) {
	doc := `<?xml version="1.0"?><html><head><title>skip me</title></head>` +
		`<body><p>Holmes &amp; Watson</p><p> </p><div>Second run</div></body></html>`

	t.Run("Text runs inside body only", func(t *testing.T) {
		fragments := Fragments(doc)
		require.Len(t, fragments, 2)
		assert.Equal(t, "Holmes & Watson", fragments[0].Text)
		assert.Equal(t, "Holmes &amp; Watson", fragments[0].Raw)
		assert.Equal(t, "Second run", fragments[1].Text)
	})

	t.Run("Start offsets address the document", func(t *testing.T) {
		fragments := Fragments(doc)
		require.Len(t, fragments, 2)

		runes := []rune(doc)
		start := fragments[0].Start
		assert.Equal(t, "Holmes &amp; Watson", string(runes[start:start+len([]rune(fragments[0].Raw))]))
	})

	t.Run("MapOffset crosses character references", func(t *testing.T) {
		fragments := Fragments(doc)
		require.Len(t, fragments, 2)
		f := fragments[0]

		// "Watson" starts at text rune 9, after "Holmes & "
		docStart, docEnd := f.RawRange(9, 15)
		runes := []rune(doc)
		assert.Equal(t, "Watson", string(runes[docStart:docEnd]))
		assert.Equal(t, "Watson", f.RawSlice(9, 15))
	})

	t.Run("RawSlice covers whole reference", func(t *testing.T) {
		fragments := Fragments(doc)
		f := fragments[0]

		// Text range [7,8) is the unescaped &, raw covers &amp;
		assert.Equal(t, "&amp;", f.RawSlice(7, 8))
	})

	t.Run("Whitespace-only runs are skipped", func(t *testing.T) {
		for _, f := range Fragments(doc) {
			assert.NotEqual(t, " ", f.Raw)
		}
	})
}
