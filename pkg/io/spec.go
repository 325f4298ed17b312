package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/flowform/pkg/form"
)

// WriteSpec encodes spec as indented JSON.
func WriteSpec(spec *form.Spec, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(spec); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportSpec writes spec to a JSON file at path.
func ExportSpec(spec *form.Spec, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteSpec(spec, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSpec decodes a form spec from r and checks its references.
//
// ReadSpec fails when the JSON is malformed, when the document has no
// "sections" key, when a question has no id, or when a dependency names a
// question that is not in the form. Unknown fields are rejected so that a
// diagram or summary passed by mistake is caught.
func ReadSpec(r io.Reader) (*form.Spec, error) {
	var raw struct {
		form.Spec
		Sections *[]form.Section `json:"sections"`
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if raw.Sections == nil {
		return nil, fmt.Errorf("decode: missing \"sections\"")
	}
	spec := raw.Spec
	spec.Sections = *raw.Sections

	if err := checkSpec(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// ImportSpec reads a form spec from a JSON file at path.
func ImportSpec(path string) (*form.Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	spec, err := ReadSpec(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

func checkSpec(spec *form.Spec) error {
	known := make(map[string]bool)
	for _, sec := range spec.Sections {
		for _, q := range sec.Questions {
			if q.ID == "" {
				return fmt.Errorf("section %s: question without id", sec.ID)
			}
			known[q.ID] = true
		}
	}
	for _, sec := range spec.Sections {
		for _, q := range sec.Questions {
			for _, d := range q.Dependencies {
				if !known[d.QuestionID] {
					return fmt.Errorf("question %s depends on unknown question %s", q.ID, d.QuestionID)
				}
			}
		}
	}
	return nil
}
