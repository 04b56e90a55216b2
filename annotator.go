package annotator

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/siherrmann/annotator/core/footnote"
	"github.com/siherrmann/annotator/core/pipeline"
	"github.com/siherrmann/annotator/core/resolve"
	"github.com/siherrmann/annotator/core/splice"
	"github.com/siherrmann/annotator/database"
	"github.com/siherrmann/annotator/epub"
	"github.com/siherrmann/annotator/helper"
	"github.com/siherrmann/annotator/model"
)

// Annotator provides a unified interface to one annotation run: the entity
// and lemma tables, the per-part occurrence index, the cache handlers and
// the candidate pipeline.
type Annotator struct {
	DB           *helper.Database
	Descriptions *database.DescriptionsDBHandler
	Glosses      *database.GlossesDBHandler
	Pipeline     *pipeline.Pipeline // Optional candidate pipeline
	Config       model.AnnotateConfig

	Entities *resolve.Resolver
	Lemmas   *resolve.LemmaTable

	// occurrences holds the recorded spans per part, keyed by part name, in
	// scan order.
	occurrences map[string][]model.Occurrence

	// RunID identifies one annotation run in logs.
	RunID uuid.UUID

	log *slog.Logger
}

// NewAnnotator creates a new Annotator instance with all handlers initialized
func NewAnnotator(dbConfig *helper.DatabaseConfiguration, config model.AnnotateConfig) (*Annotator, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize cache database
	db, err := helper.NewDatabase("annotator", dbConfig, logger)
	if err != nil {
		return nil, helper.NewError("open cache database", err)
	}

	// Create cache handlers
	// force=false to not reload if tables already exist
	descriptions, err := database.NewDescriptionsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create descriptions handler", err)
	}

	glosses, err := database.NewGlossesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create glosses handler", err)
	}

	return &Annotator{
		DB:           db,
		Descriptions: descriptions,
		Glosses:      glosses,
		Config:       config,
		Entities:     resolve.NewResolver(config.FuzzThreshold, config.CustomEntities, nil, logger),
		Lemmas:       resolve.NewLemmaTable(),
		occurrences:  map[string][]model.Occurrence{},
		RunID:        uuid.New(),
		log:          logger,
	}, nil
}

// Close closes the cache database connection
func (a *Annotator) Close() error {
	if a.DB != nil && a.DB.Instance != nil {
		return a.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the candidate pipeline for document scanning
func (a *Annotator) SetPipeline(p *pipeline.Pipeline) {
	a.Pipeline = p
}

// UseDefaultPipeline sets up the default candidate pipeline for the
// configured annotation kinds: the distilbert recognizer when X-Ray is
// enabled, and a dictionary matcher over the cached lemmas when Word Wise
// is enabled (morpheme-based for CJK languages).
func (a *Annotator) UseDefaultPipeline() error {
	var recognizer pipeline.RecognizeFunc
	var matcher pipeline.LemmaMatchFunc

	if a.Config.XRay {
		var err error
		recognizer, err = pipeline.DefaultRecognizer(a.Config.Lang)
		if err != nil {
			return helper.NewError("create default recognizer", err)
		}
	}

	if a.Config.WordWise {
		lemmas, err := a.Glosses.SelectAllLemmas()
		if err != nil {
			return helper.NewError("load lemma dictionary", err)
		}
		if len(lemmas) == 0 {
			a.log.Warn("Gloss cache is empty, Word Wise disabled for this run")
		} else if a.Config.IsCJK() {
			matcher, err = pipeline.NewCJKLemmaMatcher(lemmas)
			if err != nil {
				return helper.NewError("create lemma matcher", err)
			}
		} else {
			matcher = pipeline.NewLemmaMatcher(lemmas)
		}
	}

	a.Pipeline = pipeline.NewPipeline(recognizer, matcher)
	return nil
}

// AddEntity merges one entity mention into the table and records its span.
// start and end address the part buffer in the run's offset unit; the
// mention's span must not overlap a previously recorded span of the part.
// Returns the entity ID.
func (a *Annotator) AddEntity(part string, candidate pipeline.EntityCandidate, start int, end int, display string) int {
	id := a.Entities.Resolve(candidate.Text, candidate.Label, candidate.Sentence, candidate.IsPerson)
	endCopy := end
	a.appendOccurrence(part, model.Occurrence{
		Start:   start,
		End:     &endCopy,
		Display: display,
		Ref:     model.EntityRef(id),
	})
	return id
}

// AddLemma registers one lemma occurrence and records its span. Returns the
// lemma's footnote ID.
func (a *Annotator) AddLemma(part string, candidate pipeline.LemmaCandidate, start int, end int, display string) int {
	id := a.Lemmas.Register(candidate.Lemma)
	endCopy := end
	a.appendOccurrence(part, model.Occurrence{
		Start:   start,
		End:     &endCopy,
		Display: display,
		Ref:     model.LemmaRef(candidate.Lemma),
	})
	return id
}

// Occurrences returns the recorded spans for a part in scan order.
func (a *Annotator) Occurrences(part string) []model.Occurrence {
	return a.occurrences[part]
}

func (a *Annotator) appendOccurrence(part string, occurrence model.Occurrence) {
	a.occurrences[part] = append(a.occurrences[part], occurrence)
}

// AnnotateBook runs the whole annotation over an EPUB file:
// 1. Extracting the book and scanning every spine document
// 2. Resolving candidates into the entity and lemma tables
// 3. Pruning low-mention entities
// 4. Splicing annotation markup into the documents
// 5. Writing the footnote documents and updating the package document
// Returns the path of the repackaged book.
func (a *Annotator) AnnotateBook(bookPath string) (string, error) {
	if a.Pipeline == nil {
		return "", helper.NewError("annotate book", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	container, err := epub.Open(bookPath, a.log)
	if err != nil {
		return "", err
	}

	a.log.Info("Starting annotation run",
		slog.String("run_id", a.RunID.String()),
		slog.String("book", filepath.Base(bookPath)),
		slog.String("lang", a.Config.Lang))

	buffers := map[string]string{}
	for _, part := range container.Parts() {
		buffer, err := container.ReadPart(part)
		if err != nil {
			return "", err
		}
		buffers[part.Href] = buffer

		if err := a.scanPart(part.Href, buffer); err != nil {
			return "", err
		}
	}

	suppressed := a.Entities.Prune(a.Config.MinMentionCount, a.Descriptions.HasDescription)

	a.log.Info("Resolved annotation tables",
		slog.Int("entities", a.Entities.Len()),
		slog.Int("suppressed", len(suppressed)),
		slog.Int("lemmas", a.Lemmas.Len()))

	if err := a.spliceParts(container, buffers, suppressed); err != nil {
		return "", err
	}

	hasEntities, hasLemmas, err := a.writeFootnotes(container, suppressed)
	if err != nil {
		return "", err
	}

	return container.Repackage(hasEntities, hasLemmas)
}

// scanPart runs the pipeline over every text run of one spine document and
// records the resulting spans in document rune offsets. Lemma candidates
// overlapping an entity span of the same fragment are dropped; the entity
// annotation wins.
func (a *Annotator) scanPart(part string, buffer string) error {
	for _, fragment := range epub.Fragments(buffer) {
		var entityRanges [][2]int

		if a.Pipeline.Recognizer != nil {
			candidates, err := a.Pipeline.Recognizer(fragment.Text)
			if err != nil {
				return helper.NewError(fmt.Sprintf("recognize %v", part), err)
			}
			for _, candidate := range candidates {
				start := utf8.RuneCountInString(fragment.Text[:candidate.Start])
				end := start + utf8.RuneCountInString(candidate.Text)
				docStart, docEnd := fragment.RawRange(start, end)
				a.AddEntity(part, candidate, docStart, docEnd, fragment.RawSlice(start, end))
				entityRanges = append(entityRanges, [2]int{start, end})
			}
		}

		if a.Pipeline.LemmaMatcher != nil {
			candidates, err := a.Pipeline.LemmaMatcher(fragment.Text)
			if err != nil {
				return helper.NewError(fmt.Sprintf("match lemmas %v", part), err)
			}
			for _, candidate := range candidates {
				start := utf8.RuneCountInString(fragment.Text[:candidate.Start])
				end := start + utf8.RuneCountInString(fragment.Text[candidate.Start:candidate.End])
				if overlapsAny(entityRanges, start, end) {
					continue
				}
				docStart, docEnd := fragment.RawRange(start, end)
				a.AddLemma(part, candidate, docStart, docEnd, fragment.RawSlice(start, end))
			}
		}
	}
	return nil
}

func overlapsAny(ranges [][2]int, start int, end int) bool {
	for _, r := range ranges {
		if start < r[1] && end > r[0] {
			return true
		}
	}
	return false
}

// spliceParts rewrites every spine document carrying spans. Spans for one
// part come from two scan passes over the same fragments, so they are sorted
// by start offset before splicing.
func (a *Annotator) spliceParts(container *epub.Container, buffers map[string]string, suppressed model.SuppressionSet) error {
	glosses := a.glossCache()
	splicer := splice.NewSplicer(model.OffsetRunes, a.Config.Lang, a.Lemmas.ID, glosses, a.log)

	for _, part := range container.Parts() {
		spans := a.occurrences[part.Href]
		if len(spans) == 0 {
			continue
		}
		splice.SortSpans(spans)

		annotated, err := splicer.Splice(part.Href, buffers[part.Href], spans, suppressed)
		if err != nil {
			return err
		}

		annotated = splice.InjectNamespace(annotated)
		if hasLemmaSpan(spans) {
			annotated = splice.InjectStyle(annotated)
		}

		if err := container.WritePart(part, annotated); err != nil {
			return err
		}
	}
	return nil
}

// glossCache loads every registered lemma's gloss once, so splicing does not
// query the cache per occurrence.
func (a *Annotator) glossCache() func(lemma string) (*model.Gloss, bool) {
	cache := map[string]*model.Gloss{}
	for _, record := range a.Lemmas.Records() {
		gloss, err := a.Glosses.GetGloss(record.Lemma)
		if err != nil || gloss == nil {
			continue
		}
		cache[record.Lemma] = gloss
	}
	return func(lemma string) (*model.Gloss, bool) {
		gloss, ok := cache[lemma]
		return gloss, ok
	}
}

func hasLemmaSpan(spans []model.Occurrence) bool {
	for _, span := range spans {
		if span.Ref.Kind == model.RefLemma {
			return true
		}
	}
	return false
}

// writeFootnotes emits the footnote documents, copies referenced images and
// registers everything in the package document.
func (a *Annotator) writeFootnotes(container *epub.Container, suppressed model.SuppressionSet) (bool, bool, error) {
	var docs []string
	var imageNames []string

	hasEntities := a.Entities.Len() > len(suppressed)
	hasLemmas := a.Lemmas.Len() > 0

	if hasEntities {
		builder := footnote.NewEntityBuilder(a.Config, a.Descriptions, a.Descriptions,
			NewLocalImageStore(imageStoreDir(a.DB)), container.ImagePrefix(), a.log)
		doc, images, err := builder.Build(a.Entities.Records(), suppressed)
		if err != nil {
			return false, false, err
		}
		if err := container.WriteFootnoteDoc(splice.EntityDoc, doc); err != nil {
			return false, false, err
		}
		for _, image := range images {
			if err := container.CopyImage(image.Filename, image.SourcePath); err != nil {
				return false, false, err
			}
			imageNames = append(imageNames, image.Filename)
		}
		docs = append(docs, splice.EntityDoc)
	}

	if hasLemmas {
		doc, err := footnote.BuildLemmaFootnotes(a.Config.Lang, a.Lemmas.Records(), a.Glosses)
		if err != nil {
			return false, false, err
		}
		if err := container.WriteFootnoteDoc(splice.LemmaDoc, doc); err != nil {
			return false, false, err
		}
		docs = append(docs, splice.LemmaDoc)
	}

	if len(docs) > 0 {
		if err := container.UpdateOPF(docs, imageNames); err != nil {
			return false, false, err
		}
	}

	return hasEntities, hasLemmas, nil
}

// LocalImageStore resolves cached image filenames against a local folder.
type LocalImageStore struct {
	Dir string
}

// NewLocalImageStore creates an image store over a folder.
func NewLocalImageStore(dir string) *LocalImageStore {
	return &LocalImageStore{Dir: dir}
}

// FetchImage returns the local path of a cached image, or an error when the
// image is not cached.
func (s *LocalImageStore) FetchImage(filename string) (string, error) {
	path := filepath.Join(s.Dir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", helper.NewError("fetch image", err)
	}
	return path, nil
}

// imageStoreDir places the image store next to the cache database. An
// in-memory cache gets a folder in the working directory.
func imageStoreDir(db *helper.Database) string {
	if db == nil || db.Path == "" || db.Path == ":memory:" {
		return "images"
	}
	return filepath.Join(filepath.Dir(db.Path), "images")
}
