package annotator

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/siherrmann/annotator/core/pipeline"
	"github.com/siherrmann/annotator/helper"
	"github.com/siherrmann/annotator/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContainerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="id">
  <metadata><dc:title xmlns:dc="http://purl.org/dc/elements/1.1/">Test</dc:title></metadata>
  <manifest>
    <item id="part1" href="Text/part1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="part1"/>
  </spine>
</package>`

const testPart = `<html xmlns="http://www.w3.org/1999/xhtml"><head><title>1</title></head>` +
	`<body><p>Sherlock Holmes lived in London.</p>` +
	`<p>Watson met Holmes near Lestrade. Watson was prodigious.</p></body></html>`

func writeTestBook(t *testing.T) string {
	t.Helper()
	bookPath := filepath.Join(t.TempDir(), "test_book.epub")

	out, err := os.Create(bookPath)
	require.NoError(t, err)
	defer out.Close()

	writer := zip.NewWriter(out)

	mimetype, err := writer.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	require.NoError(t, err)
	_, err = mimetype.Write([]byte("application/epub+zip"))
	require.NoError(t, err)

	files := map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testOPF,
		"OEBPS/Text/part1.xhtml": testPart,
	}
	for name, content := range files {
		w, err := writer.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return bookPath
}

// castRecognizer matches a fixed name list, longest first, skipping matches
// that overlap an earlier one.
func castRecognizer(text string) ([]pipeline.EntityCandidate, error) {
	names := []struct {
		name  string
		label string
	}{
		{"Sherlock Holmes", "PERSON"},
		{"Lestrade", "PERSON"},
		{"Watson", "PERSON"},
		{"Holmes", "PERSON"},
		{"London", "GPE"},
	}

	var candidates []pipeline.EntityCandidate
	var used [][2]int
	for _, entry := range names {
		for offset := 0; ; {
			i := strings.Index(text[offset:], entry.name)
			if i < 0 {
				break
			}
			start := offset + i
			end := start + len(entry.name)
			offset = end

			overlaps := false
			for _, r := range used {
				if start < r[1] && end > r[0] {
					overlaps = true
					break
				}
			}
			if overlaps {
				continue
			}
			used = append(used, [2]int{start, end})

			candidates = append(candidates, pipeline.EntityCandidate{
				Text:     entry.name,
				Label:    entry.label,
				IsPerson: entry.label == "PERSON",
				Start:    start,
				Sentence: pipeline.SentenceAround(text, start),
			})
		}
	}
	return candidates, nil
}

func newTestAnnotator(t *testing.T, config model.AnnotateConfig) *Annotator {
	t.Helper()
	helper.SetTestDatabaseConfigEnvs(t)

	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	a, err := NewAnnotator(dbConfig, config)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func readZipEntry(t *testing.T, path string, name string) string {
	t.Helper()
	reader, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		r, err := file.Open()
		require.NoError(t, err)
		defer r.Close()
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("entry %v not found in %v", name, path)
	return ""
}

func TestAnnotateBook(t *testing.T) {
	config := model.DefaultAnnotateConfig()
	config.MinMentionCount = 2

	a := newTestAnnotator(t, config)

	// Cached description exempts London from pruning despite one mention
	require.NoError(t, a.Descriptions.InsertDescription(&model.Description{
		Name:       "London",
		Summary:    "Capital of England.",
		SourceName: "Wikipedia",
		SourceLink: "https://en.wikipedia.org/wiki/",
	}))
	require.NoError(t, a.Glosses.InsertGloss("prodigious", &model.Gloss{
		Short: "huge",
		Full:  "remarkably great in extent",
	}))

	lemmas, err := a.Glosses.SelectAllLemmas()
	require.NoError(t, err)
	a.SetPipeline(pipeline.NewPipeline(castRecognizer, pipeline.NewLemmaMatcher(lemmas)))

	bookPath := writeTestBook(t)
	output, err := a.AnnotateBook(bookPath)
	require.NoError(t, err)

	t.Run("Output named by annotation kinds", func(t *testing.T) {
		assert.Equal(t, "test_book_x_ray_word_wise.epub", filepath.Base(output))
	})

	t.Run("Entity table merged and pruned", func(t *testing.T) {
		require.Equal(t, 4, a.Entities.Len())

		holmes := a.Entities.Record(0)
		assert.Equal(t, "Sherlock Holmes", holmes.Name)
		assert.Equal(t, 2, holmes.Count)
	})

	t.Run("Spliced part", func(t *testing.T) {
		part := readZipEntry(t, output, "OEBPS/Text/part1.xhtml")

		assert.Contains(t, part, `<a epub:type="noteref" href="x_ray.xhtml#0">Sherlock Holmes</a>`)
		assert.Contains(t, part, `<a epub:type="noteref" href="x_ray.xhtml#0">Holmes</a>`)
		assert.Contains(t, part, `<a epub:type="noteref" href="x_ray.xhtml#1">London</a>`)
		assert.Contains(t, part, `<a epub:type="noteref" href="x_ray.xhtml#3">Watson</a>`)

		// One mention and no description: Lestrade stays plain text
		assert.Contains(t, part, "near Lestrade.")
		assert.NotContains(t, part, "x_ray.xhtml#2")

		// Short gloss inline as ruby
		assert.Contains(t, part, `<ruby><a epub:type="noteref" href="word_wise.xhtml#0">prodigious</a><rp>(</rp><rt>huge</rt><rp>)</rp></ruby>`)

		// Ops namespace and Word Wise style injected
		assert.Contains(t, part, `xmlns:epub="http://www.idpf.org/2007/ops"`)
		assert.Contains(t, part, "line-height: 2.5")
	})

	t.Run("Footnote documents", func(t *testing.T) {
		xray := readZipEntry(t, output, "OEBPS/Text/x_ray.xhtml")
		assert.Contains(t, xray, "Capital of England.")
		assert.Contains(t, xray, `https://en.wikipedia.org/wiki/London`)
		// Suppressed entity has no footnote
		assert.NotContains(t, xray, `<aside id="2"`)
		// Person without description falls back to the first-seen sentence
		assert.Contains(t, xray, "Watson met Holmes near Lestrade.")

		wordwise := readZipEntry(t, output, "OEBPS/Text/word_wise.xhtml")
		assert.Contains(t, wordwise, "remarkably great in extent")
		assert.Contains(t, wordwise, "https://en.wiktionary.org/wiki/prodigious")
	})

	t.Run("Package document updated", func(t *testing.T) {
		opf := readZipEntry(t, output, "OEBPS/content.opf")
		assert.Contains(t, opf, `href="Text/x_ray.xhtml"`)
		assert.Contains(t, opf, `href="Text/word_wise.xhtml"`)
		assert.Contains(t, opf, `idref="x_ray"`)
		assert.Contains(t, opf, `idref="word_wise"`)
	})
}

func TestAnnotateBookWithoutPipeline(t *testing.T) {
	a := newTestAnnotator(t, model.DefaultAnnotateConfig())

	_, err := a.AnnotateBook("missing.epub")
	assert.Error(t, err)
}

func TestAddEntityAndOccurrences(t *testing.T) {
	a := newTestAnnotator(t, model.DefaultAnnotateConfig())

	candidate := pipeline.EntityCandidate{Text: "Holmes", Label: "PERSON", IsPerson: true, Sentence: "Holmes spoke."}
	id := a.AddEntity("part1.xhtml", candidate, 10, 16, "Holmes")
	assert.Equal(t, 0, id)

	spans := a.Occurrences("part1.xhtml")
	require.Len(t, spans, 1)
	assert.Equal(t, 10, spans[0].Start)
	require.NotNil(t, spans[0].End)
	assert.Equal(t, 16, *spans[0].End)
	assert.Equal(t, model.EntityRef(0), spans[0].Ref)
}
