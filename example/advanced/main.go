package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/siherrmann/annotator"
	"github.com/siherrmann/annotator/core/pipeline"
	"github.com/siherrmann/annotator/helper"
	"github.com/siherrmann/annotator/model"
)

// This example wires a custom recognizer instead of the default NER model:
// a fixed cast list matched by exact substring search. Useful for books
// whose characters are known up front, and it runs without any model
// download.

var cast = map[string]string{
	"Sherlock Holmes": "PERSON",
	"John Watson":     "PERSON",
	"Baker Street":    "FAC",
	"Scotland Yard":   "ORG",
}

func castRecognizer(text string) ([]pipeline.EntityCandidate, error) {
	var candidates []pipeline.EntityCandidate
	for name, label := range cast {
		for offset := 0; ; {
			i := strings.Index(text[offset:], name)
			if i < 0 {
				break
			}
			start := offset + i
			candidates = append(candidates, pipeline.EntityCandidate{
				Text:     name,
				Label:    label,
				IsPerson: label == "PERSON",
				Start:    start,
				Sentence: pipeline.SentenceAround(text, start),
			})
			offset = start + len(name)
		}
	}
	return candidates, nil
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: advanced <book.epub>")
	}
	bookPath := os.Args[1]

	dbConfig := &helper.DatabaseConfiguration{
		Path: bookPath + ".cache.db",
	}

	config := model.DefaultAnnotateConfig()
	config.WordWise = false
	config.SearchPeople = true
	config.MinMentionCount = 3

	// Pinned custom entities always keep their own record and description.
	config.CustomEntities = map[string]model.CustomEntity{
		"Baker Street": {
			Description: "Street in Marylebone, London, home of Sherlock Holmes at number 221B.",
			Source:      "wikipedia",
		},
	}
	config.CitationSources = map[string]model.CitationSource{
		"wikipedia": {Name: "Wikipedia", Link: "https://en.wikipedia.org/wiki/"},
	}

	a, err := annotator.NewAnnotator(dbConfig, config)
	if err != nil {
		log.Fatalf("Failed to create annotator: %v", err)
	}
	defer a.Close()

	// Custom pipeline: cast-list recognizer, no lemma matching
	a.SetPipeline(pipeline.NewPipeline(castRecognizer, nil))

	output, err := a.AnnotateBook(bookPath)
	if err != nil {
		log.Fatalf("Failed to annotate book: %v", err)
	}

	fmt.Printf("Annotated book written to: %s\n", output)
	for _, record := range a.Entities.Records() {
		fmt.Printf("  %d. %s (%s) mentioned %d times\n", record.ID, record.Name, record.Label, record.Count)
	}
}
