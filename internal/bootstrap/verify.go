package bootstrap

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DatabaseReport is the observed state of one layout database.
type DatabaseReport struct {
	Name    string   `yaml:"name"`
	Present []string `yaml:"present"`
	Missing []string `yaml:"missing,omitempty"`
	Extra   []string `yaml:"extra,omitempty"`
}

// Report is the result of Verify.
type Report struct {
	Databases []DatabaseReport `yaml:"databases"`
}

// OK reports whether every expected collection exists.
func (r *Report) OK() bool {
	for _, db := range r.Databases {
		if len(db.Missing) > 0 {
			return false
		}
	}
	return true
}

// Verify lists the collections of each layout database and compares them to the layout.
// Collections outside the layout are reported as Extra but do not fail the report.
func Verify(ctx context.Context, engine Engine) (*Report, error) {
	report := &Report{}
	for _, db := range layout {
		names, err := engine.ListCollectionNames(ctx, db.Name)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", db.Name, err)
		}

		dr := DatabaseReport{Name: db.Name}
		for _, collection := range db.Collections {
			if slices.Contains(names, collection) {
				dr.Present = append(dr.Present, collection)
			} else {
				dr.Missing = append(dr.Missing, collection)
			}
		}
		for _, name := range names {
			if !slices.Contains(db.Collections, name) {
				dr.Extra = append(dr.Extra, name)
			}
		}
		report.Databases = append(report.Databases, dr)
	}
	return report, nil
}

// WriteText renders the report as plain text lines.
func (r *Report) WriteText(w io.Writer) error {
	for _, db := range r.Databases {
		if _, err := fmt.Fprintf(w, "%s: present=[%s]", db.Name, strings.Join(db.Present, ", ")); err != nil {
			return err
		}
		if len(db.Missing) > 0 {
			if _, err := fmt.Fprintf(w, " missing=[%s]", strings.Join(db.Missing, ", ")); err != nil {
				return err
			}
		}
		if len(db.Extra) > 0 {
			if _, err := fmt.Fprintf(w, " extra=[%s]", strings.Join(db.Extra, ", ")); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteYAML renders the report as a YAML document.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}
