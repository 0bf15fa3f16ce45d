// Package catalog loads the showroom content shown on the page: the hero banner,
// one product collection per catalog section, the about text and store hours.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sbcarpet/showroom/internal/domain"
	"github.com/sbcarpet/showroom/web"
	"gopkg.in/yaml.v3"
)

type Catalog struct {
	Hero        Hero         `yaml:"hero"`
	Collections []Collection `yaml:"collections"`
	About       About        `yaml:"about"`
	Contact     Contact      `yaml:"contact"`
}

type Hero struct {
	Title        string `yaml:"title"`
	Lead         string `yaml:"lead"`
	CallToAction string `yaml:"call_to_action"`
	Image        string `yaml:"image"`
	ImageAlt     string `yaml:"image_alt"`
}

// Collection is the product grid of one page section.
type Collection struct {
	Section   domain.Section `yaml:"section"`
	Eyebrow   string         `yaml:"eyebrow"`
	Highlight string         `yaml:"highlight"`
	Title     string         `yaml:"title"`
	Subtitle  string         `yaml:"subtitle"`
	Items     []Item         `yaml:"items"`
}

// Item is one product card. Price and Badge are optional.
type Item struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Badge       string `yaml:"badge"`
	Image       string `yaml:"image"`
}

type About struct {
	Eyebrow    string    `yaml:"eyebrow"`
	Paragraphs []string  `yaml:"paragraphs"`
	Features   []Feature `yaml:"features"`
}

type Feature struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type Contact struct {
	Eyebrow string  `yaml:"eyebrow"`
	Intro   string  `yaml:"intro"`
	Hours   []Hours `yaml:"hours"`
}

type Hours struct {
	Days string `yaml:"days"`
	Time string `yaml:"time"`
}

var ErrInvalidCatalog = errors.New("invalid catalog")

// Load parses and validates catalog YAML.
func Load(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default loads the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Load(web.CatalogYAML)
}

// Collection returns the collection rendered in section, if any.
func (c *Catalog) Collection(section domain.Section) (Collection, bool) {
	for _, col := range c.Collections {
		if col.Section == section {
			return col, true
		}
	}
	return Collection{}, false
}

func (c *Catalog) validate() error {
	if strings.TrimSpace(c.Hero.Title) == "" {
		return fmt.Errorf("%w: hero title is required", ErrInvalidCatalog)
	}

	seen := make(map[domain.Section]bool)
	for i, col := range c.Collections {
		if _, err := domain.ParseSection(string(col.Section)); err != nil {
			return fmt.Errorf("%w: collection %d: %w", ErrInvalidCatalog, i, err)
		}
		if seen[col.Section] {
			return fmt.Errorf("%w: duplicate collection for section %q", ErrInvalidCatalog, col.Section)
		}
		seen[col.Section] = true

		for j, item := range col.Items {
			if strings.TrimSpace(item.Name) == "" {
				return fmt.Errorf("%w: %s item %d has no name", ErrInvalidCatalog, col.Section, j)
			}
		}
	}
	return nil
}
