// Package rulestore loads the rule table document from where it is kept:
// a local file, a remote URL, or the copy built into the binary.
//
// Every failure is wrapped in rules.ErrRuleTableUnavailable so callers can
// treat it as fatal with a single errors.Is check.
package rulestore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/eshaffer321/alertledger/internal/domain/rules"
	"github.com/eshaffer321/alertledger/internal/infrastructure/config"
)

// Source provides a rule table document.
type Source interface {
	// Load returns the current rule set. It is called once per invocation.
	Load(ctx context.Context) (*rules.RuleSet, error)
	// Describe names the source for logs.
	Describe() string
}

// LoadCompiled loads from src and compiles the result.
func LoadCompiled(ctx context.Context, src Source) (*rules.Compiled, error) {
	rs, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	compiled, err := rs.Compile()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Describe(), err)
	}
	return compiled, nil
}

// FromConfig picks the source described by cfg. A path wins over a URL;
// with neither, the embedded table is used.
func FromConfig(cfg config.RulesConfig, logger *slog.Logger) Source {
	switch {
	case cfg.Path != "":
		return NewFileSource(cfg.Path)
	case cfg.URL != "":
		return NewHTTPSource(cfg.URL, cfg.CacheTTL, logger)
	default:
		return EmbeddedSource{}
	}
}

// EmbeddedSource serves the default household table compiled into the binary.
type EmbeddedSource struct{}

// Load decodes the embedded document.
func (EmbeddedSource) Load(context.Context) (*rules.RuleSet, error) {
	return rules.Default()
}

// Describe implements Source.
func (EmbeddedSource) Describe() string {
	return "embedded rule table"
}

// FileSource reads a YAML or JSON rule document from disk on every load, so
// edits are picked up by the next invocation.
type FileSource struct {
	path string
}

// NewFileSource creates a file source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) (*rules.RuleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", rules.ErrRuleTableUnavailable, err)
	}

	switch ext := strings.ToLower(filepath.Ext(s.path)); ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("%w: unsupported rule file extension %q", rules.ErrRuleTableUnavailable, ext)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", rules.ErrRuleTableUnavailable, s.path, err)
	}
	return rules.Decode(data)
}

// Describe implements Source.
func (s *FileSource) Describe() string {
	return "rule file " + s.path
}
