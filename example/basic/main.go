package main

import (
	"fmt"
	"log"
	"os"

	"github.com/siherrmann/annotator"
	"github.com/siherrmann/annotator/helper"
	"github.com/siherrmann/annotator/model"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: basic <book.epub>")
	}
	bookPath := os.Args[1]

	// Per-book cache next to the book
	dbConfig := &helper.DatabaseConfiguration{
		Path: bookPath + ".cache.db",
	}

	config := model.DefaultAnnotateConfig()
	config.Lang = "en"

	a, err := annotator.NewAnnotator(dbConfig, config)
	if err != nil {
		log.Fatalf("Failed to create annotator: %v", err)
	}
	defer a.Close()

	// Seed the gloss cache so Word Wise has a dictionary to match against.
	// A real run would import a full wordlist via the CLI instead.
	glosses := map[string]*model.Gloss{
		"prodigious": {Short: "huge", Full: "remarkably or impressively great in extent, size, or degree", Example: "A prodigious amount of money."},
		"sagacious":  {Short: "wise", Full: "having or showing keen mental discernment and good judgement", Example: "They were sagacious enough to avoid any outright confrontation."},
	}
	for lemma, gloss := range glosses {
		if err := a.Glosses.InsertGloss(lemma, gloss); err != nil {
			log.Fatalf("Failed to cache gloss: %v", err)
		}
	}

	// Set up the default pipeline (distilbert NER + dictionary matching)
	if err := a.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	fmt.Println("Annotating book...")
	output, err := a.AnnotateBook(bookPath)
	if err != nil {
		log.Fatalf("Failed to annotate book: %v", err)
	}

	fmt.Printf("Annotated book written to: %s\n", output)
	fmt.Printf("Entities resolved: %d\n", a.Entities.Len())
	fmt.Printf("Lemmas matched: %d\n", a.Lemmas.Len())
}
