// Package fixtures decodes YAML-described forms and responses into the
// formmodel tree shape, used by the scoperesolve CLI and HTTP drivers.
package fixtures

import (
	"gopkg.in/yaml.v3"

	"github.com/sdcforms/scoperesolve/pkg/formmodel"
)

type extensionYAML struct {
	URL        string `yaml:"url"`
	Language   string `yaml:"language"`
	Expression string `yaml:"expression"`
	Name       string `yaml:"name"`
}

type itemYAML struct {
	LinkID     string          `yaml:"linkId"`
	Type       string          `yaml:"type"`
	Repeats    bool            `yaml:"repeats"`
	Initial    []any           `yaml:"initial"`
	Extensions []extensionYAML `yaml:"extensions"`
	Items      []itemYAML      `yaml:"items"`
}

type formYAML struct {
	Extensions []extensionYAML `yaml:"extensions"`
	Items      []itemYAML      `yaml:"items"`
}

// LoadForm decodes a YAML-described form.
func LoadForm(data []byte) (*formmodel.Form, error) {
	var raw formYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &formmodel.Form{
		Extensions: convertExtensions(raw.Extensions),
		Items:      convertItems(raw.Items),
	}, nil
}

func convertExtensions(exts []extensionYAML) []formmodel.Extension {
	out := make([]formmodel.Extension, 0, len(exts))
	for _, e := range exts {
		ext := formmodel.Extension{URL: e.URL}
		if e.Expression != "" || e.Language != "" {
			ext.Value = &formmodel.Expression{Language: e.Language, Expression: e.Expression, Name: e.Name}
		}
		out = append(out, ext)
	}
	return out
}

func convertItems(items []itemYAML) []*formmodel.Item {
	out := make([]*formmodel.Item, 0, len(items))
	for _, it := range items {
		out = append(out, &formmodel.Item{
			LinkID:     it.LinkID,
			Type:       formmodel.ItemType(it.Type),
			Repeats:    it.Repeats,
			Initial:    it.Initial,
			Extensions: convertExtensions(it.Extensions),
			Children:   convertItems(it.Items),
		})
	}
	return out
}

type answerYAML struct {
	Value any                `yaml:"value"`
	Items []responseItemYAML `yaml:"items"`
}

type responseItemYAML struct {
	LinkID  string             `yaml:"linkId"`
	Answers []answerYAML       `yaml:"answers"`
	Items   []responseItemYAML `yaml:"items"`
}

type responseYAML struct {
	Items []responseItemYAML `yaml:"items"`
}

// LoadResponse decodes a YAML-described response.
func LoadResponse(data []byte) (*formmodel.Response, error) {
	var raw responseYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &formmodel.Response{Items: convertResponseItems(raw.Items)}, nil
}

func convertResponseItems(items []responseItemYAML) []*formmodel.ResponseItem {
	out := make([]*formmodel.ResponseItem, 0, len(items))
	for _, it := range items {
		answers := make([]formmodel.Answer, 0, len(it.Answers))
		for _, a := range it.Answers {
			answers = append(answers, formmodel.Answer{Value: a.Value, Items: convertResponseItems(a.Items)})
		}
		out = append(out, &formmodel.ResponseItem{
			LinkID:   it.LinkID,
			Answers:  answers,
			Children: convertResponseItems(it.Items),
		})
	}
	return out
}
