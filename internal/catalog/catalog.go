// Package catalog loads extra block kinds and templates from YAML files
// and keeps them in sync with the directory they live in.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"pagebuilder/internal/builder"
	"pagebuilder/internal/logging"
)

// File is the content of one catalog file.
type File struct {
	Kinds     []builder.KindDef  `yaml:"kinds"`
	Templates []builder.Template `yaml:"templates"`
}

// Result counts what a load registered.
type Result struct {
	Files     int `json:"files"`
	Kinds     int `json:"kinds"`
	Templates int `json:"templates"`
}

// IsCatalogFile reports whether path has a YAML extension.
func IsCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ParseFile decodes one catalog file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", filepath.Base(path), err)
	}
	for i, k := range f.Kinds {
		if strings.TrimSpace(k.Kind) == "" {
			return nil, fmt.Errorf("catalog %s: kind %d has no name", filepath.Base(path), i)
		}
	}
	return &f, nil
}

// Loader registers catalog files into a registry and template set.
type Loader struct {
	registry  *builder.Registry
	templates *builder.TemplateSet
	logger    *zap.Logger
}

// NewLoader creates a Loader.
func NewLoader(reg *builder.Registry, tpls *builder.TemplateSet, logger *zap.Logger) *Loader {
	return &Loader{registry: reg, templates: tpls, logger: logging.OrNop(logger).Named("catalog")}
}

// Apply registers the kinds of f, then its templates. A template is
// rejected when it fails validation or uses a kind the registry does not
// know; the others still load.
func (l *Loader) Apply(f *File) (Result, error) {
	var res Result
	for _, k := range f.Kinds {
		l.registry.Register(k)
		res.Kinds++
	}
	var errs []error
	for _, t := range f.Templates {
		if err := l.checkKinds(t); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := l.templates.Register(t); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Templates++
	}
	return res, errors.Join(errs...)
}

func (l *Loader) checkKinds(t builder.Template) error {
	for i, n := range t.Nodes {
		if _, ok := l.registry.Lookup(n.Kind); !ok {
			return fmt.Errorf("%w: %s: node %d uses unknown kind %q", builder.ErrInvalidTemplate, t.ID, i, n.Kind)
		}
	}
	return nil
}

// LoadFile parses and applies one file.
func (l *Loader) LoadFile(path string) (Result, error) {
	f, err := ParseFile(path)
	if err != nil {
		return Result{}, err
	}
	res, err := l.Apply(f)
	res.Files = 1
	if err != nil {
		return res, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return res, nil
}

// LoadDir loads every catalog file in dir in name order. Errors are
// collected per file; good files still load.
func (l *Loader) LoadDir(dir string) (Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("read catalog dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && IsCatalogFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var (
		total Result
		errs  []error
	)
	for _, name := range names {
		res, err := l.LoadFile(filepath.Join(dir, name))
		total.Files += res.Files
		total.Kinds += res.Kinds
		total.Templates += res.Templates
		if err != nil {
			l.logger.Error("catalog file rejected", zap.String("file", name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	l.logger.Info("catalog loaded",
		zap.String("dir", dir),
		zap.Int("files", total.Files),
		zap.Int("kinds", total.Kinds),
		zap.Int("templates", total.Templates),
	)
	return total, errors.Join(errs...)
}
