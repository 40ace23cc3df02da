package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "sjsage522/jobworker/pkg/errors"
)

var defaultKeywords = []string{
	"digital health",
	"wearable",
	"biomarker",
	"time series",
	"clinical",
	"machine learning",
	"deep learning",
	"signal processing",
	"Parkinson's",
	"neurology",
	"voice",
	"accelerometer",
}

// KeywordFile is the YAML layout of a keyword list
type KeywordFile struct {
	Keywords []string `yaml:"keywords"`
}

// DefaultKeywords returns a copy of the built-in keyword list
func DefaultKeywords() []string {
	out := make([]string, len(defaultKeywords))
	copy(out, defaultKeywords)
	return out
}

// LoadKeywordsFile reads a keyword list from a YAML file.
// Blank and duplicate entries are dropped; order is kept.
func LoadKeywordsFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfiguration("read keywords file "+path, err)
	}

	var kf KeywordFile
	if err := yaml.Unmarshal(b, &kf); err != nil {
		return nil, apperrors.NewConfiguration("parse keywords file "+path, err)
	}

	seen := map[string]bool{}
	keywords := make([]string, 0, len(kf.Keywords))
	for _, kw := range kf.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		keywords = append(keywords, kw)
	}
	if len(keywords) == 0 {
		return nil, apperrors.NewConfiguration("keywords file "+path+" has no keywords", nil)
	}
	return keywords, nil
}
