package xsd

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/emenda-labs/xsdiff/core/comparison"
	"github.com/emenda-labs/xsdiff/core/report"
	"github.com/emenda-labs/xsdiff/drivers/xsd/model"
	"github.com/emenda-labs/xsdiff/drivers/xsd/xsdiff"
)

// DefaultCacheSize is the number of parsed schema models kept in memory.
const DefaultCacheSize = 256

var _ report.Comparer = (*Driver)(nil)

// modelKey identifies one version of a schema file by path and content.
type modelKey struct {
	path string
	sum  [sha256.Size]byte
}

// Driver implements report.Comparer for XSD documents. Parsed models are
// cached so a schema that appears in several jobs is parsed once.
type Driver struct {
	opts   xsdiff.Options
	cache  *lru.Cache[modelKey, *model.SchemaModel]
	logger *slog.Logger
}

// NewDriver creates a Driver. A cacheSize of zero or less disables caching.
func NewDriver(opts xsdiff.Options, cacheSize int, logger *slog.Logger) (*Driver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Driver{opts: opts, logger: logger}
	if cacheSize > 0 {
		cache, err := lru.New[modelKey, *model.SchemaModel](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating model cache: %w", err)
		}
		d.cache = cache
	}
	return d, nil
}

// ComparePair builds both schema models and diffs them.
func (d *Driver) ComparePair(ctx context.Context, firstPath, secondPath string) ([]comparison.Record, error) {
	first, err := d.Model(ctx, firstPath)
	if err != nil {
		return nil, err
	}

	second, err := d.Model(ctx, secondPath)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("schemas analyzed",
		"first", firstPath, "first_types", first.Len(),
		"second", secondPath, "second_types", second.Len())

	return xsdiff.Compare(first, second), nil
}

// Model returns the schema model for path. The file is always read; it is
// parsed again only when its content differs from the cached copy.
func (d *Driver) Model(ctx context.Context, path string) (*model.SchemaModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &xsdiff.ParseError{Path: path, Err: err}
	}
	if d.cache == nil {
		return xsdiff.Build(ctx, bytes.NewReader(data), path, d.opts)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &xsdiff.ParseError{Path: path, Err: err}
	}
	key := modelKey{path: abs, sum: sha256.Sum256(data)}
	if m, ok := d.cache.Get(key); ok {
		d.logger.Debug("schema model cache hit", "path", path)
		return m, nil
	}

	m, err := xsdiff.Build(ctx, bytes.NewReader(data), path, d.opts)
	if err != nil {
		return nil, err
	}
	d.cache.Add(key, m)
	return m, nil
}
