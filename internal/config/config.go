// Package config loads annotation source definitions from JSON or YAML.
package config

import (
	"geneannot-core/merge"
	"geneannot-core/parse"
	"geneannot-core/transform"
)

// Parameters are the parser parameters plus the legacy location of
// split_fields, which is forwarded to the transformer.
type Parameters struct {
	parse.Params `yaml:",inline"`
	SplitFields  []transform.Split `json:"split_fields,omitempty" yaml:"split_fields,omitempty"`
}

// Parser selects and tunes a format parser.
type Parser struct {
	Type       parse.Type `json:"type" yaml:"type"`
	Parameters Parameters `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Cytoband names the coordinate fields used to label records with bands.
type Cytoband struct {
	Chromosome    string `json:"chromosome" yaml:"chromosome"`
	Start         string `json:"start" yaml:"start"`
	End           string `json:"end" yaml:"end"`
	ReferenceFile string `json:"reference_file" yaml:"reference_file"`
	PositionIndex *int   `json:"position_index,omitempty" yaml:"position_index,omitempty"`
}

// Index returns the position index, defaulting to 1.
func (c Cytoband) Index() int {
	if c.PositionIndex == nil {
		return 1
	}
	return *c.PositionIndex
}

// Source is one annotation source.
type Source struct {
	Files             []string                     `json:"files" yaml:"files"`
	Prefix            string                       `json:"prefix" yaml:"prefix"`
	Parser            Parser                       `json:"parser" yaml:"parser"`
	FilterIn          map[string][]string          `json:"filter_in,omitempty" yaml:"filter_in,omitempty"`
	FilterOut         map[string][]string          `json:"filter_out,omitempty" yaml:"filter_out,omitempty"`
	Keep              []string                     `json:"keep,omitempty" yaml:"keep,omitempty"`
	Drop              []string                     `json:"drop,omitempty" yaml:"drop,omitempty"`
	ReplacementFields map[string]map[string]string `json:"replacement_fields,omitempty" yaml:"replacement_fields,omitempty"`
	SplitFields       []transform.Split            `json:"split_fields,omitempty" yaml:"split_fields,omitempty"`
	Cytoband          *Cytoband                    `json:"cytoband,omitempty" yaml:"cytoband,omitempty"`
	Merge             *merge.Spec                  `json:"merge,omitempty" yaml:"merge,omitempty"`
	Source            bool                         `json:"source,omitempty" yaml:"source,omitempty"`
	Debug             bool                         `json:"debug,omitempty" yaml:"debug,omitempty"`
	Metadata          map[string]any               `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Splits returns top-level split fields followed by the legacy ones.
func (s Source) Splits() []transform.Split {
	out := append([]transform.Split(nil), s.SplitFields...)
	return append(out, s.Parser.Parameters.SplitFields...)
}

// Config is an ordered list of sources.
type Config []Source
