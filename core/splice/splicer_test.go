package splice

import (
	"testing"

	"github.com/siherrmann/annotator/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSplicer(unit model.OffsetUnit) *Splicer {
	glosses := map[string]*model.Gloss{
		"cat": {Short: "pet", Full: "a small domesticated carnivorous mammal"},
	}
	lemmaIDs := map[string]int{"cat": 0, "verbose": 1}

	return NewSplicer(unit, "en",
		func(lemma string) (int, bool) {
			id, ok := lemmaIDs[lemma]
			return id, ok
		},
		func(lemma string) (*model.Gloss, bool) {
			gloss, ok := glosses[lemma]
			return gloss, ok
		},
		nil)
}

func TestSplice(t *testing.T) {
	t.Run("No spans returns buffer unchanged", func(t *testing.T) {
		s := testSplicer(model.OffsetRunes)

		out, err := s.Splice("part.xhtml", "<p>Nothing here.</p>", nil, model.SuppressionSet{})
		require.NoError(t, err)
		assert.Equal(t, "<p>Nothing here.</p>", out)
	})

	t.Run("Entity spans become noteref anchors", func(t *testing.T) {
		s := testSplicer(model.OffsetRunes)
		buffer := "<p>Holmes met Watson.</p>"

		spans := []model.Occurrence{
			{Start: 3, Display: "Holmes", Ref: model.EntityRef(0)},
			{Start: 14, Display: "Watson", Ref: model.EntityRef(1)},
		}

		out, err := s.Splice("part.xhtml", buffer, spans, model.SuppressionSet{})
		require.NoError(t, err)
		assert.Equal(t,
			`<p><a epub:type="noteref" href="x_ray.xhtml#0">Holmes</a> met <a epub:type="noteref" href="x_ray.xhtml#1">Watson</a>.</p>`,
			out)
	})

	t.Run("Adjacent spans splice in order", func(t *testing.T) {
		s := testSplicer(model.OffsetRunes)
		// Spans [2,5) and [5,9) touch without overlapping
		buffer := "xxABCWXYZxx"

		end1, end2 := 5, 9
		spans := []model.Occurrence{
			{Start: 2, End: &end1, Display: "ABC", Ref: model.EntityRef(0)},
			{Start: 5, End: &end2, Display: "WXYZ", Ref: model.EntityRef(1)},
		}

		out, err := s.Splice("part.xhtml", buffer, spans, model.SuppressionSet{})
		require.NoError(t, err)
		assert.Equal(t,
			`xx<a epub:type="noteref" href="x_ray.xhtml#0">ABC</a><a epub:type="noteref" href="x_ray.xhtml#1">WXYZ</a>xx`,
			out)
	})

	t.Run("Suppressed entity keeps original text", func(t *testing.T) {
		s := testSplicer(model.OffsetRunes)
		buffer := "<p>Holmes met Watson.</p>"

		spans := []model.Occurrence{
			{Start: 3, Display: "Holmes", Ref: model.EntityRef(0)},
			{Start: 14, Display: "Watson", Ref: model.EntityRef(1)},
		}
		suppressed := model.SuppressionSet{}
		suppressed.Add(0)

		out, err := s.Splice("part.xhtml", buffer, spans, suppressed)
		require.NoError(t, err)
		assert.Equal(t,
			`<p>Holmes met <a epub:type="noteref" href="x_ray.xhtml#1">Watson</a>.</p>`,
			out)
	})

	t.Run("Rune offsets address characters not bytes", func(t *testing.T) {
		s := testSplicer(model.OffsetRunes)
		// é is two UTF-8 bytes but one rune
		buffer := "<p>Café Holmes</p>"

		spans := []model.Occurrence{
			{Start: 8, Display: "Holmes", Ref: model.EntityRef(0)},
		}

		out, err := s.Splice("part.xhtml", buffer, spans, model.SuppressionSet{})
		require.NoError(t, err)
		assert.Equal(t,
			`<p>Café <a epub:type="noteref" href="x_ray.xhtml#0">Holmes</a></p>`,
			out)
	})

	t.Run("Byte offsets address bytes", func(t *testing.T) {
		s := testSplicer(model.OffsetBytes)
		buffer := "<p>Café Holmes</p>"

		spans := []model.Occurrence{
			{Start: 9, Display: "Holmes", Ref: model.EntityRef(0)},
		}

		out, err := s.Splice("part.xhtml", buffer, spans, model.SuppressionSet{})
		require.NoError(t, err)
		assert.Equal(t,
			`<p>Café <a epub:type="noteref" href="x_ray.xhtml#0">Holmes</a></p>`,
			out)
	})

	t.Run("Overlapping spans fail the part", func(t *testing.T) {
		s := testSplicer(model.OffsetRunes)
		buffer := "<p>Sherlock Holmes</p>"

		spans := []model.Occurrence{
			{Start: 3, Display: "Sherlock Holmes", Ref: model.EntityRef(0)},
			{Start: 12, Display: "Holmes", Ref: model.EntityRef(1)},
		}

		out, err := s.Splice("part.xhtml", buffer, spans, model.SuppressionSet{})
		assert.Error(t, err)
		assert.Empty(t, out)
	})

	t.Run("Span outside buffer fails the part", func(t *testing.T) {
		s := testSplicer(model.OffsetRunes)

		spans := []model.Occurrence{
			{Start: 10, Display: "Holmes", Ref: model.EntityRef(0)},
		}

		out, err := s.Splice("part.xhtml", "<p>Hi</p>", spans, model.SuppressionSet{})
		assert.Error(t, err)
		assert.Empty(t, out)
	})

	t.Run("Short gloss becomes ruby annotation", func(t *testing.T) {
		s := testSplicer(model.OffsetRunes)
		buffer := "<p>The cat sat.</p>"

		spans := []model.Occurrence{
			{Start: 7, Display: "cat", Ref: model.LemmaRef("cat")},
		}

		out, err := s.Splice("part.xhtml", buffer, spans, model.SuppressionSet{})
		require.NoError(t, err)
		assert.Equal(t,
			`<p>The <ruby><a epub:type="noteref" href="word_wise.xhtml#0">cat</a><rp>(</rp><rt>pet</rt><rp>)</rp></ruby> sat.</p>`,
			out)
	})

	t.Run("Gloss miss keeps plain anchor", func(t *testing.T) {
		s := testSplicer(model.OffsetRunes)
		buffer := "<p>Too verbose prose.</p>"

		spans := []model.Occurrence{
			{Start: 7, Display: "verbose", Ref: model.LemmaRef("verbose")},
		}

		out, err := s.Splice("part.xhtml", buffer, spans, model.SuppressionSet{})
		require.NoError(t, err)
		assert.Equal(t,
			`<p>Too <a epub:type="noteref" href="word_wise.xhtml#1">verbose</a> prose.</p>`,
			out)
	})

	t.Run("Unregistered lemma keeps original text", func(t *testing.T) {
		s := testSplicer(model.OffsetRunes)
		buffer := "<p>Unknown word.</p>"

		spans := []model.Occurrence{
			{Start: 11, Display: "word", Ref: model.LemmaRef("word")},
		}

		out, err := s.Splice("part.xhtml", buffer, spans, model.SuppressionSet{})
		require.NoError(t, err)
		assert.Equal(t, "<p>Unknown word.</p>", out)
	})

	t.Run("Inflected display with explicit end", func(t *testing.T) {
		s := testSplicer(model.OffsetRunes)
		// The span covers "cats" while the lemma key is "cat"
		buffer := "<p>The cats sat.</p>"

		end := 11
		spans := []model.Occurrence{
			{Start: 7, End: &end, Display: "cats", Ref: model.LemmaRef("cat")},
		}

		out, err := s.Splice("part.xhtml", buffer, spans, model.SuppressionSet{})
		require.NoError(t, err)
		assert.Equal(t,
			`<p>The <ruby><a epub:type="noteref" href="word_wise.xhtml#0">cats</a><rp>(</rp><rt>pet</rt><rp>)</rp></ruby> sat.</p>`,
			out)
	})
}

func TestSortSpans(t *testing.T) {
	t.Run("Stable sort by start offset", func(t *testing.T) {
		spans := []model.Occurrence{
			{Start: 20, Ref: model.EntityRef(1)},
			{Start: 5, Ref: model.LemmaRef("cat")},
			{Start: 12, Ref: model.EntityRef(0)},
		}

		SortSpans(spans)
		assert.Equal(t, 5, spans[0].Start)
		assert.Equal(t, 12, spans[1].Start)
		assert.Equal(t, 20, spans[2].Start)
	})
}

func TestInjections(t *testing.T) {
	t.Run("Namespace added once", func(t *testing.T) {
		doc := `<html xmlns="http://www.w3.org/1999/xhtml"><head></head><body></body></html>`

		out := InjectNamespace(doc)
		assert.Contains(t, out, `xmlns:epub="http://www.idpf.org/2007/ops"`)
		assert.Equal(t, out, InjectNamespace(out))
	})

	t.Run("Existing namespace untouched", func(t *testing.T) {
		doc := `<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops"><body></body></html>`
		assert.Equal(t, doc, InjectNamespace(doc))
	})

	t.Run("Style added before closing head once", func(t *testing.T) {
		doc := `<html><head><title>t</title></head><body></body></html>`

		out := InjectStyle(doc)
		assert.Contains(t, out, "line-height: 2.5")
		assert.Contains(t, out, "</style></head>")
		assert.Equal(t, out, InjectStyle(out))
	})
}

func TestGlossFitsInline(t *testing.T) {
	t.Run("Short gloss fits", func(t *testing.T) {
		assert.True(t, GlossFitsInline("cat", "pet", "en"))
	})

	t.Run("Long gloss is deferred", func(t *testing.T) {
		assert.False(t, GlossFitsInline("cat", "a small domesticated mammal", "en"))
	})

	t.Run("CJK tolerance is wider", func(t *testing.T) {
		assert.False(t, GlossFitsInline("cat", "veryverylong", "en"))
		assert.True(t, GlossFitsInline("cat", "veryverylong", "ja"))
	})

	t.Run("Empty word never fits", func(t *testing.T) {
		assert.False(t, GlossFitsInline("", "pet", "en"))
	})
}
