package presentation

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v2"
)

//go:embed slides.yaml
var defaultDeck []byte

// ErrEmptyDeck is returned for a deck without slides
var ErrEmptyDeck = errors.New("deck has no slides")

// Slide is one page of the presentation.
type Slide struct {
	Title  string   `yaml:"title" json:"title"`
	Points []string `yaml:"points" json:"points"`
}

// Deck is an ordered, non-empty list of slides.
type Deck struct {
	Title  string  `yaml:"title" json:"title"`
	Slides []Slide `yaml:"slides" json:"slides"`
}

// ParseDeck decodes a YAML deck.
func ParseDeck(data []byte) (*Deck, error) {
	var d Deck
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse deck: %w", err)
	}
	if len(d.Slides) == 0 {
		return nil, ErrEmptyDeck
	}
	for i, s := range d.Slides {
		if s.Title == "" {
			return nil, fmt.Errorf("slide %d has no title", i+1)
		}
	}
	return &d, nil
}

// DefaultDeck returns the built-in project presentation
func DefaultDeck() (*Deck, error) {
	return ParseDeck(defaultDeck)
}

// Len returns the number of slides
func (d *Deck) Len() int {
	return len(d.Slides)
}

// Slide returns slide i, clamped to the deck bounds.
func (d *Deck) Slide(i int) Slide {
	return d.Slides[max(0, min(i, len(d.Slides)-1))]
}
