// Package footnote emits the two generated reference documents: X-Ray
// entity footnotes and Word Wise lemma footnotes. All external lookups are
// caches resolved before the builder runs; a miss triggers a fallback, never
// an error.
package footnote

import (
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"

	"github.com/siherrmann/annotator/model"
)

// DescriptionLookup resolves a canonical entity name to a cached
// knowledge-base summary. A (nil, nil) return is a cache miss.
type DescriptionLookup interface {
	GetDescription(name string) (*model.Description, error)
}

// WikidataLookup resolves a knowledge-base item ID to cached auxiliary
// facts. A (nil, nil) return is a cache miss.
type WikidataLookup interface {
	GetWikidata(itemID string) (*model.WikidataFacts, error)
}

// ImageProvider resolves a cached image filename to a local file path.
type ImageProvider interface {
	FetchImage(filename string) (string, error)
}

// Image names an illustrative file the caller must copy into the package's
// image store. The builder itself does no file I/O.
type Image struct {
	Filename   string
	SourcePath string
}

// EntityBuilder builds the X-Ray footnote document.
type EntityBuilder struct {
	Lang         string
	SearchPeople bool
	// Customs holds caller-pinned descriptions keyed by canonical name;
	// they take priority over cached summaries.
	Customs map[string]model.CustomEntity
	// Sources resolves CustomEntity.Source keys to citations.
	Sources      map[string]model.CitationSource
	Descriptions DescriptionLookup
	Wikidata     WikidataLookup // optional
	Images       ImageProvider  // optional
	// ImagePrefix is the relative href prefix from the XHTML folder to the
	// image folder ("../Images/" style).
	ImagePrefix string

	log *slog.Logger
}

// NewEntityBuilder creates a builder; wikidata and images may be nil.
func NewEntityBuilder(config model.AnnotateConfig, descriptions DescriptionLookup, wikidata WikidataLookup, images ImageProvider, imagePrefix string, logger *slog.Logger) *EntityBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntityBuilder{
		Lang:         config.Lang,
		SearchPeople: config.SearchPeople,
		Customs:      config.CustomEntities,
		Sources:      config.CitationSources,
		Descriptions: descriptions,
		Wikidata:     wikidata,
		Images:       images,
		ImagePrefix:  imagePrefix,
		log:          logger,
	}
}

// Build emits the footnote document in table insertion order (= first-
// occurrence order), skipping suppressed ids, and returns the images the
// caller must copy into the package.
func (b *EntityBuilder) Build(entities []*model.EntityRecord, suppressed model.SuppressionSet) (string, []Image, error) {
	var s strings.Builder
	var images []Image

	s.WriteString(documentHead(b.Lang, "X-Ray"))

	for _, entity := range entities {
		if suppressed.Contains(entity.ID) {
			continue
		}

		if custom, ok := b.Customs[entity.Name]; ok && custom.Description != "" {
			b.writeCustom(&s, entity, custom)
			continue
		}

		description := b.cachedDescription(entity)
		if description == nil {
			// Fallback: first-seen sentence quote, no citation.
			fmt.Fprintf(&s, `<aside id="%v" epub:type="footnote"><p>%v</p></aside>`,
				entity.ID, html.EscapeString(entity.Quote))
			continue
		}

		fmt.Fprintf(&s, `<aside id="%v" epub:type="footnote"><p>%v</p>`,
			entity.ID, html.EscapeString(description.Summary))
		if description.SourceName != "" {
			writeCitation(&s, description.SourceName, description.SourceLink, entity.Name)
		}
		images = b.writeWikidata(&s, description, images)
		s.WriteString("</aside>")
	}

	s.WriteString("</body></html>")
	return s.String(), images, nil
}

// writeCustom emits a pinned custom description with its own citation.
func (b *EntityBuilder) writeCustom(s *strings.Builder, entity *model.EntityRecord, custom model.CustomEntity) {
	fmt.Fprintf(s, `<aside id="%v" epub:type="footnote"><p>%v</p>`,
		entity.ID, html.EscapeString(custom.Description))
	if source, ok := b.Sources[custom.Source]; ok {
		writeCitation(s, source.Name, source.Link, entity.Name)
	}
	s.WriteString("</aside>")
}

// cachedDescription returns the knowledge-base summary for an entity, or
// nil when none applies. Person-like entities only get summaries when the
// caller opted into people search.
func (b *EntityBuilder) cachedDescription(entity *model.EntityRecord) *model.Description {
	if !b.SearchPeople && model.PersonLabels[entity.Label] {
		return nil
	}
	if b.Descriptions == nil {
		return nil
	}
	description, err := b.Descriptions.GetDescription(entity.Name)
	if err != nil {
		b.log.Warn("Description lookup failed",
			slog.String("entity", entity.Name),
			slog.String("error", err.Error()))
		return nil
	}
	return description
}

// writeWikidata appends auxiliary facts and an optional map image for a
// described entity.
func (b *EntityBuilder) writeWikidata(s *strings.Builder, description *model.Description, images []Image) []Image {
	if b.Wikidata == nil || description.ItemID == "" {
		return images
	}
	facts, err := b.Wikidata.GetWikidata(description.ItemID)
	if err != nil || facts == nil {
		return images
	}

	if facts.DemocracyIndex != nil {
		fmt.Fprintf(s, "<p>%v</p>", RegimeType(*facts.DemocracyIndex))
	}
	if facts.Inception != nil {
		fmt.Fprintf(s, "<p>%v</p>", InceptionText(*facts.Inception))
	}
	if b.Images != nil && facts.MapFilename != "" {
		if path, err := b.Images.FetchImage(facts.MapFilename); err == nil {
			fmt.Fprintf(s, `<img style="max-width:100%%" src="%v%v" />`, b.ImagePrefix, facts.MapFilename)
			images = append(images, Image{Filename: facts.MapFilename, SourcePath: path})
		}
	}
	fmt.Fprintf(s, `<p>Source: <a href="https://www.wikidata.org/wiki/%v">Wikidata</a></p>`, description.ItemID)
	return images
}

// writeCitation appends a source paragraph; a source without a link is
// cited by name only.
func writeCitation(s *strings.Builder, name string, link string, entityName string) {
	if link != "" {
		fmt.Fprintf(s, `<p>Source: <a href="%v%v">%v</a></p>`, link, url.PathEscape(entityName), name)
	} else {
		fmt.Fprintf(s, "<p>Source: %v</p>", name)
	}
}

// documentHead opens a footnote document.
func documentHead(lang string, title string) string {
	return fmt.Sprintf(`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" lang="%v" xml:lang="%v"><head><title>%v</title><meta charset="utf-8"/></head><body>`,
		lang, lang, title)
}
