package access

import (
	_ "embed"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed navigation.yaml
var defaultNavigation []byte

// LoadNavigation parses a YAML menu definition
func LoadNavigation(data []byte) ([]Entry, error) {
	var doc struct {
		Navigation []Entry `yaml:"navigation"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "access.LoadNavigation Unmarshal")
	}
	return doc.Navigation, nil
}

// DefaultNavigation returns the hospital console menu
func DefaultNavigation() []Entry {
	entries, err := LoadNavigation(defaultNavigation)
	if err != nil {
		panic("embedded navigation is invalid: " + err.Error())
	}
	return entries
}
