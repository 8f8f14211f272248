// Package config loads the external configuration of a conversion run:
// the keyword list, the optional YAML run file, and the defaults shared
// by the CLIs.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/perchlab/aviary/pkg/aviary/keyword"
)

// DefaultLanguages are the archive languages processed when none are
// chosen explicitly.
var DefaultLanguages = []string{"ar", "de", "en", "fr", "ru"}

// DefaultFlagColumn names the keyword flag column when none is chosen.
const DefaultFlagColumn = "contains_keyword"

// LoadKeywords reads one literal keyword per line. Surrounding
// whitespace is trimmed and blank lines are skipped; there is no comment
// syntax.
func LoadKeywords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var keywords []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		keywords = append(keywords, line)
	}
	return keywords, nil
}

// Run is the converter run configuration.
type Run struct {
	Source        string   `yaml:"source"`
	Target        string   `yaml:"target"`
	Start         string   `yaml:"start"`
	End           string   `yaml:"end"`
	Languages     []string `yaml:"languages"`
	KeywordFile   string   `yaml:"keyword_file"`
	KeywordFlag   string   `yaml:"keyword_flag"`
	KeywordFields []string `yaml:"keyword_fields"`
	Filter        bool     `yaml:"filter"`
}

// LoadRun loads run configuration from a YAML file.
func LoadRun(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var run Run
	if err := yaml.Unmarshal(data, &run); err != nil {
		return nil, err
	}

	return &run, nil
}

// Loader assembles a keyword filter from its external pieces.
type Loader struct {
	KeywordFile string
	FlagColumn  string
	Retain      bool
	Fields      []string
}

// Load builds the filter. Without a keyword file there is no rule: the
// returned filter is nil, which retains everything and flags nothing.
func (l *Loader) Load() (*keyword.Filter, error) {
	if l.KeywordFile == "" {
		return nil, nil
	}
	keywords, err := LoadKeywords(l.KeywordFile)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	fields := make([]keyword.Field, len(l.Fields))
	for i, f := range l.Fields {
		fields[i] = keyword.Field(strings.TrimSpace(f))
	}
	flag := l.FlagColumn
	if flag == "" {
		flag = DefaultFlagColumn
	}
	return keyword.New(keyword.Rule{
		Keywords:   keywords,
		FlagColumn: flag,
		Retain:     l.Retain,
		Fields:     fields,
	})
}
