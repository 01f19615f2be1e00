package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/shared/common"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Belts lists the ranks from beginner upward
var Belts = []string{"white", "yellow", "orange", "green", "blue", "brown", "black"}

// Flag formats
const (
	FormatExact           = "exact"
	FormatCaseInsensitive = "case-insensitive"
)

// Flag is the expected answer of an exercise
type Flag struct {
	Value  string `yaml:"value" json:"value"`
	Format string `yaml:"format" json:"format"`
}

// Hint is a paid clue
type Hint struct {
	Cost int    `yaml:"cost" json:"cost"`
	Text string `yaml:"text" json:"text"`
}

// Entry describes one exercise
type Entry struct {
	ID        entity.ExerciseID `yaml:"id" json:"id"`
	Title     string            `yaml:"title" json:"title"`
	Belt      string            `yaml:"belt" json:"belt"`
	Points    int               `yaml:"points" json:"points"`
	Category  string            `yaml:"category" json:"category"`
	Objective string            `yaml:"objective" json:"objective"`
	Tables    []string          `yaml:"tables" json:"tables"`
	Flag      Flag              `yaml:"flag" json:"flag"`
	Mitre     []string          `yaml:"mitre,omitempty" json:"mitre,omitempty"`
	Hints     []Hint            `yaml:"hints" json:"hints"`
	Solution  string            `yaml:"solution" json:"solution"`
}

// Catalog is the ordered set of exercise descriptions
type Catalog struct {
	Exercises []Entry `yaml:"exercises"`
	byID      map[entity.ExerciseID]*Entry
}

// Load parses the embedded catalog
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, common.NewAppErrorWithCause(common.ErrCodeInvalidFormat, "failed to parse exercise catalog", err)
	}

	c.byID = make(map[entity.ExerciseID]*Entry, len(c.Exercises))
	var errs common.ValidationErrors
	for i := range c.Exercises {
		e := &c.Exercises[i]
		field := fmt.Sprintf("exercises[%d]", i)

		if e.ID == "" {
			errs.Add(field, "missing id", nil)
			continue
		}
		if _, dup := c.byID[e.ID]; dup {
			errs.Add(field, "duplicate id", e.ID)
		}
		if !validBelt(e.Belt) {
			errs.Add(field, "unknown belt", e.Belt)
		}
		if e.Points <= 0 {
			errs.Add(field, "points must be positive", e.Points)
		}
		if len(e.Tables) == 0 {
			errs.Add(field, "no tables", nil)
		}
		if _, ok := entity.FlagSlug(e.Flag.Value); !ok {
			errs.Add(field, "malformed flag", e.Flag.Value)
		}
		switch e.Flag.Format {
		case FormatExact, FormatCaseInsensitive:
		default:
			errs.Add(field, "unknown flag format", e.Flag.Format)
		}

		c.byID[e.ID] = e
	}

	if errs.HasErrors() {
		return nil, errs.ToAppError()
	}
	return &c, nil
}

// Get returns the entry for id
func (c *Catalog) Get(id entity.ExerciseID) (*Entry, error) {
	e, ok := c.byID[id]
	if !ok {
		return nil, common.ErrUnknownExercise(string(id))
	}
	return e, nil
}

// ByBelt returns the entries of one belt in catalog order
func (c *Catalog) ByBelt(belt string) []Entry {
	var out []Entry
	for _, e := range c.Exercises {
		if e.Belt == belt {
			out = append(out, e)
		}
	}
	return out
}

// TotalPoints sums the points of every exercise
func (c *Catalog) TotalPoints() int {
	total := 0
	for _, e := range c.Exercises {
		total += e.Points
	}
	return total
}

func validBelt(belt string) bool {
	for _, b := range Belts {
		if b == belt {
			return true
		}
	}
	return false
}
