package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/siherrmann/annotator"
	"github.com/siherrmann/annotator/database"
	"github.com/siherrmann/annotator/helper"
	"github.com/siherrmann/annotator/model"
)

var CLI struct {
	Cache string `help:"Cache database path (overrides ANNOTATOR_CACHE_PATH)" type:"path"`

	Annotate       AnnotateCmd       `cmd:"" help:"Annotate an EPUB book with X-Ray and Word Wise footnotes"`
	AddGloss       AddGlossCmd       `cmd:"" name:"add-gloss" help:"Add a lemma gloss to the cache"`
	AddDescription AddDescriptionCmd `cmd:"" name:"add-description" help:"Add an entity description to the cache"`
}

func cacheConfig() (*helper.DatabaseConfiguration, error) {
	if CLI.Cache != "" {
		return &helper.DatabaseConfiguration{Path: CLI.Cache}, nil
	}
	return helper.NewDatabaseConfiguration()
}

// AnnotateCmd runs a full annotation over one book.
type AnnotateCmd struct {
	Book string `arg:"" help:"Path to the EPUB file" type:"existingfile"`

	Lang         string  `help:"Book language code" default:"en"`
	XRay         bool    `help:"Produce X-Ray entity annotations" default:"true" negatable:""`
	WordWise     bool    `help:"Produce Word Wise lemma annotations" default:"true" negatable:""`
	FuzzRatio    float64 `help:"Token-set ratio required to merge entity mentions" default:"90"`
	MinMentions  int     `help:"Suppress entities mentioned fewer times" default:"1"`
	SearchPeople bool    `help:"Include knowledge-base summaries for people"`
}

func (c *AnnotateCmd) Run(ctx *kong.Context) error {
	dbConfig, err := cacheConfig()
	if err != nil {
		return err
	}

	config := model.DefaultAnnotateConfig()
	config.Lang = c.Lang
	config.XRay = c.XRay
	config.WordWise = c.WordWise
	config.FuzzThreshold = c.FuzzRatio
	config.MinMentionCount = c.MinMentions
	config.SearchPeople = c.SearchPeople

	a, err := annotator.NewAnnotator(dbConfig, config)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.UseDefaultPipeline(); err != nil {
		return err
	}

	output, err := a.AnnotateBook(c.Book)
	if err != nil {
		return err
	}

	fmt.Printf("Annotated book written to %s\n", output)
	return nil
}

// AddGlossCmd caches one lemma gloss.
type AddGlossCmd struct {
	Lemma   string `arg:"" help:"Lemma (dictionary form)"`
	Short   string `arg:"" help:"Short inline gloss"`
	Full    string `help:"Full gloss for the footnote document"`
	Example string `help:"Example sentence"`
}

func (c *AddGlossCmd) Run(ctx *kong.Context) error {
	handler, db, err := glossesHandler()
	if err != nil {
		return err
	}
	defer db.Close()

	err = handler.InsertGloss(c.Lemma, &model.Gloss{
		Short:   c.Short,
		Full:    c.Full,
		Example: c.Example,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Cached gloss for %q\n", c.Lemma)
	return nil
}

// AddDescriptionCmd caches one entity description.
type AddDescriptionCmd struct {
	Name    string `arg:"" help:"Canonical entity name"`
	Summary string `arg:"" help:"Knowledge-base summary"`

	ItemID     string `help:"Knowledge-base item ID"`
	SourceName string `help:"Citation source name"`
	SourceLink string `help:"Citation link prefix (entity name is appended)"`
}

func (c *AddDescriptionCmd) Run(ctx *kong.Context) error {
	dbConfig, err := cacheConfig()
	if err != nil {
		return err
	}
	db, err := helper.NewDatabase("annotator", dbConfig, defaultLogger())
	if err != nil {
		return err
	}
	defer db.Close()

	handler, err := database.NewDescriptionsDBHandler(db, false)
	if err != nil {
		return err
	}

	err = handler.InsertDescription(&model.Description{
		Name:       c.Name,
		Summary:    c.Summary,
		ItemID:     c.ItemID,
		SourceName: c.SourceName,
		SourceLink: c.SourceLink,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Cached description for %q\n", c.Name)
	return nil
}

func glossesHandler() (*database.GlossesDBHandler, *helper.Database, error) {
	dbConfig, err := cacheConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := helper.NewDatabase("annotator", dbConfig, defaultLogger())
	if err != nil {
		return nil, nil, err
	}
	handler, err := database.NewGlossesDBHandler(db, false)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return handler, db, nil
}

func defaultLogger() *slog.Logger {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	return slog.New(helper.NewPrettyHandler(os.Stdout, opts))
}

func main() {
	// A missing .env file is fine, the cache path may come from the
	// environment or the --cache flag.
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name("annotator"),
		kong.Description("X-Ray and Word Wise annotation for EPUB books"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
