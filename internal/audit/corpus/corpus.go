// Package corpus provides the audit query corpora: the embedded priority set
// and a validated loader for bulk corpus files.
package corpus

import (
	"encoding/json"
	"os"
	"strings"

	"search-audit/internal/common/errors"
	"search-audit/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// Category labels used by the priority corpus. Reporting-only; the executor
// treats every entry the same.
const (
	CategoryCore         = "core"
	CategoryBrand        = "brand"
	CategoryCharacter    = "character"
	CategoryAge          = "age"
	CategoryPrice        = "price"
	CategoryProductType  = "product_type"
	CategoryWordBoundary = "word_boundary"
	CategoryEdgeCase     = "edge_case"
	CategorySeasonal     = "seasonal"
)

// fileSchema validates bulk corpus files before they reach the executor.
const fileSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["query", "category"],
    "properties": {
      "query": {"type": "string", "minLength": 1},
      "category": {"type": "string", "minLength": 1},
      "expectedMinResults": {"type": "integer", "minimum": 0},
      "mustContain": {"type": "array", "items": {"type": "string"}},
      "mustNotContain": {"type": "array", "items": {"type": "string"}}
    },
    "additionalProperties": false
  }
}`

// Default returns a copy of the embedded priority corpus. Order is stable
// between calls so checkpointed runs resume against the same sequence.
func Default() []models.QuerySpec {
	out := make([]models.QuerySpec, len(priorityCorpus))
	copy(out, priorityCorpus)
	return out
}

// LoadFile reads, schema-validates and decodes a bulk corpus file. Entries
// keep file order; duplicates are preserved.
func LoadFile(path string) ([]models.QuerySpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewCorpusFileNotFoundError(path)
		}
		return nil, errors.NewCorpusInvalidError(err.Error())
	}

	if err := Validate(raw); err != nil {
		return nil, err
	}

	var specs []models.QuerySpec
	if err := json.Unmarshal(raw, &specs); err != nil {
		return nil, errors.NewCorpusInvalidError(err.Error())
	}

	return specs, nil
}

// Validate checks raw corpus JSON against the corpus schema.
func Validate(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(fileSchema)
	docLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return errors.NewCorpusInvalidError(err.Error())
	}

	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return errors.NewCorpusSchemaInvalidError(strings.Join(msgs, "; "))
	}

	return nil
}

// Categories returns the distinct categories of a corpus in first-seen order.
func Categories(specs []models.QuerySpec) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range specs {
		if !seen[s.Category] {
			seen[s.Category] = true
			out = append(out, s.Category)
		}
	}
	return out
}

// CountByCategory returns the entry count per category.
func CountByCategory(specs []models.QuerySpec) map[string]int {
	out := make(map[string]int)
	for _, s := range specs {
		out[s.Category]++
	}
	return out
}

func spec(query, category string, minResults int) models.QuerySpec {
	return models.QuerySpec{Query: query, Category: category, ExpectedMinResults: minResults}
}

func specNot(query, category string, minResults int, mustNot ...string) models.QuerySpec {
	return models.QuerySpec{
		Query:              query,
		Category:           category,
		ExpectedMinResults: minResults,
		MustNotContain:     mustNot,
	}
}

func specMust(query, category string, minResults int, must ...string) models.QuerySpec {
	return models.QuerySpec{
		Query:              query,
		Category:           category,
		ExpectedMinResults: minResults,
		MustContain:        must,
	}
}

// priorityCorpus is the curated high-signal set run by the scheduler.
var priorityCorpus = []models.QuerySpec{
	// Core gift queries parents actually type.
	spec("birthday gift for 5 year old", CategoryCore, 4),
	spec("toys for toddlers", CategoryCore, 4),
	spec("educational toys", CategoryCore, 4),
	spec("board games for family", CategoryCore, 4),
	spec("outdoor toys", CategoryCore, 4),
	spec("craft kit for kids", CategoryCore, 3),
	spec("building blocks", CategoryCore, 4),
	spec("puzzle for kids", CategoryCore, 4),
	spec("stuffed animal", CategoryCore, 4),
	spec("science kit", CategoryCore, 3),
	spec("art supplies for children", CategoryCore, 3),
	spec("kids books", CategoryCore, 4),
	spec("remote control car", CategoryCore, 3),
	spec("play kitchen", CategoryCore, 3),
	spec("dollhouse", CategoryCore, 3),
	spec("scooter for kids", CategoryCore, 3),
	spec("musical instruments for kids", CategoryCore, 3),
	spec("bath toys", CategoryCore, 3),
	spec("sensory toys", CategoryCore, 3),
	spec("magnetic tiles", CategoryCore, 3),

	// Brand-anchored queries. Brand must dominate the top results.
	specMust("lego set", CategoryBrand, 4, "lego"),
	specMust("lego technic", CategoryBrand, 3, "lego"),
	specMust("playmobil", CategoryBrand, 3, "playmobil"),
	specMust("hot wheels track", CategoryBrand, 3, "hot wheels"),
	specMust("barbie dreamhouse", CategoryBrand, 2, "barbie"),
	specMust("nerf blaster", CategoryBrand, 3, "nerf"),
	specMust("melissa and doug", CategoryBrand, 3, "melissa"),
	specMust("fisher price", CategoryBrand, 3, "fisher"),
	specMust("vtech learning toy", CategoryBrand, 2, "vtech"),
	specMust("crayola art set", CategoryBrand, 3, "crayola"),
	specMust("magna tiles", CategoryBrand, 2, "magna"),
	specMust("little tikes", CategoryBrand, 2, "little tikes"),

	// Character/franchise queries.
	specMust("paw patrol toys", CategoryCharacter, 3, "paw patrol"),
	specMust("peppa pig playset", CategoryCharacter, 2, "peppa"),
	specMust("pokemon cards", CategoryCharacter, 3, "pokemon"),
	specMust("minecraft toys", CategoryCharacter, 2, "minecraft"),
	specMust("frozen doll", CategoryCharacter, 2, "frozen"),
	specMust("spiderman action figure", CategoryCharacter, 2, "spider"),
	specMust("harry potter lego", CategoryCharacter, 2, "harry potter"),
	specMust("bluey toys", CategoryCharacter, 2, "bluey"),
	specMust("sonic the hedgehog figure", CategoryCharacter, 2, "sonic"),
	specMust("mario kart toy", CategoryCharacter, 2, "mario"),

	// Age-banded queries.
	spec("gifts for 1 year old", CategoryAge, 3),
	spec("gifts for 2 year old boy", CategoryAge, 3),
	spec("gifts for 3 year old girl", CategoryAge, 3),
	spec("toys for 4 year olds", CategoryAge, 3),
	spec("gifts for 6 year old", CategoryAge, 3),
	spec("gifts for 8 year old boy", CategoryAge, 3),
	spec("gifts for 10 year old girl", CategoryAge, 3),
	spec("tween gifts", CategoryAge, 2),
	spec("teen birthday present", CategoryAge, 2),
	spec("baby first christmas gift", CategoryAge, 2),

	// Price-qualified queries.
	spec("toys under 10 dollars", CategoryPrice, 3),
	spec("gifts under 20", CategoryPrice, 3),
	spec("stocking stuffers under 5", CategoryPrice, 2),
	spec("birthday present under 25", CategoryPrice, 3),
	spec("cheap party favors", CategoryPrice, 2),
	spec("premium wooden toys", CategoryPrice, 2),

	// Product-type queries that leak into apparel or cosmetics when the
	// ranker goes wrong.
	specNot("train set", CategoryProductType, 3, "trainer", "training pants"),
	specNot("play tent", CategoryProductType, 2, "camping tent"),
	specNot("kids makeup kit", CategoryProductType, 2, "adult"),
	specNot("water gun", CategoryProductType, 2, "nail gun"),
	spec("balance bike", CategoryProductType, 2),
	spec("trampoline", CategoryProductType, 2),
	spec("sandbox toys", CategoryProductType, 2),
	spec("karaoke machine for kids", CategoryProductType, 2),
	spec("walkie talkies for kids", CategoryProductType, 2),
	spec("kids camera", CategoryProductType, 2),
	spec("telescope for beginners", CategoryProductType, 2),
	spec("slime kit", CategoryProductType, 2),

	// Word-boundary traps. Substring matching historically pulled shoes,
	// underwear and fitness gear into these.
	specNot("train toys", CategoryWordBoundary, 2, "trainer", "trainers"),
	specNot("kite", CategoryWordBoundary, 2, "kitesurf"),
	specNot("ball pit", CategoryWordBoundary, 2, "pitbull"),
	specNot("toy car", CategoryWordBoundary, 2, "cardigan", "car seat cover"),
	specNot("doll", CategoryWordBoundary, 3, "dollar"),
	specNot("pirate ship", CategoryWordBoundary, 2, "shipping"),
	specNot("robot kit", CategoryWordBoundary, 2, "kitchen"),
	specNot("race track", CategoryWordBoundary, 2, "tracksuit"),
	specNot("play mat", CategoryWordBoundary, 2, "matte"),
	specNot("top spinner", CategoryWordBoundary, 2, "tank top", "crop top"),

	// Edge cases: typos, unicode, very long and very short input.
	spec("legoo", CategoryEdgeCase, 1),
	spec("birthdya gift", CategoryEdgeCase, 1),
	spec("pokmon", CategoryEdgeCase, 1),
	spec("xyzzy plugh", CategoryEdgeCase, 0),
	spec("a", CategoryEdgeCase, 0),
	spec("jouet en bois", CategoryEdgeCase, 0),
	spec("juguetes niños", CategoryEdgeCase, 0),
	spec(strings.Repeat("very ", 12)+"gift ideas", CategoryEdgeCase, 0),
	spec("🎁 gift", CategoryEdgeCase, 0),
	spec("gift's for kid's", CategoryEdgeCase, 1),

	// Seasonal queries. Inventory-sensitive; low floor on purpose.
	spec("christmas gifts for kids", CategorySeasonal, 3),
	spec("advent calendar for kids", CategorySeasonal, 2),
	spec("easter basket fillers", CategorySeasonal, 2),
	spec("halloween costume kids", CategorySeasonal, 2),
	spec("valentines gift for daughter", CategorySeasonal, 1),
	spec("back to school supplies", CategorySeasonal, 2),
	spec("summer water toys", CategorySeasonal, 2),
	spec("hanukkah gifts for kids", CategorySeasonal, 1),
}
