package engine

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/vulnverified/svcmap/internal/lookup"
	"github.com/vulnverified/svcmap/internal/registry"
)

// FileOpener implements SourceOpener with registry.Open.
type FileOpener struct{}

// Open opens a registry file, decompressing .gz and .zst sources.
func (FileOpener) Open(path string) (io.ReadCloser, error) {
	return registry.Open(path)
}

// Parser implements RegistryParser.
type Parser struct {
	Log logrus.FieldLogger
}

// Parse reads records, skipping the header row.
func (p *Parser) Parse(r io.Reader) ([]registry.RawRecord, registry.Stats, error) {
	return registry.Parse(r, registry.WithLogger(p.Log))
}

// Builder implements TableBuilder.
type Builder struct {
	Log logrus.FieldLogger
}

// Build folds records with last-write-wins.
func (b *Builder) Build(records []registry.RawRecord) (*lookup.Table, lookup.Stats) {
	return lookup.Build(records, lookup.WithLogger(b.Log))
}

// DefaultStages wires the file-backed implementations.
func DefaultStages(log logrus.FieldLogger) Stages {
	return Stages{
		Opener:  FileOpener{},
		Parser:  &Parser{Log: log},
		Builder: &Builder{Log: log},
	}
}
