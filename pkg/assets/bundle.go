package assets

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

const (
	manifestName = "manifest.yaml"
	maxAssetSize = 10 * 1024 * 1024 // 10 MB per file
)

//go:embed static
var static embed.FS

// ResourceMissingError reports a manifest entry that has no bundled file.
type ResourceMissingError struct {
	Name string
}

func (e *ResourceMissingError) Error() string {
	return fmt.Sprintf("static resource %s not found", e.Name)
}

// Manifest is the versioned list of static files shipped with every report.
type Manifest struct {
	Version string   `yaml:"version"`
	Files   []string `yaml:"files"`
}

// Bundler copies the static files named by a manifest into report
// directories.
type Bundler struct {
	fsys     fs.FS
	manifest Manifest
}

// NewBundler loads the embedded manifest.
func NewBundler() (*Bundler, error) {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		return nil, fmt.Errorf("opening embedded assets: %w", err)
	}
	return NewBundlerFS(sub)
}

// NewBundlerFS loads manifest.yaml from fsys and validates it.
func NewBundlerFS(fsys fs.FS) (*Bundler, error) {
	data, err := fs.ReadFile(fsys, manifestName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ResourceMissingError{Name: manifestName}
		}
		return nil, fmt.Errorf("reading asset manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing asset manifest: %w", err)
	}

	if !semver.IsValid(canonicalVersion(m.Version)) {
		return nil, fmt.Errorf("asset manifest version %q is not a semantic version", m.Version)
	}

	for _, name := range m.Files {
		if err := validateAssetPath(name); err != nil {
			return nil, err
		}
	}

	return &Bundler{fsys: fsys, manifest: m}, nil
}

// Manifest returns the loaded manifest.
func (b *Bundler) Manifest() Manifest {
	return b.manifest
}

// Version returns the canonical manifest version, e.g. "v1.2.0".
func (b *Bundler) Version() string {
	return semver.Canonical(canonicalVersion(b.manifest.Version))
}

// Bundle copies every manifest file into dir, preserving its relative
// subpath (css/…, js/…). Parent folders are created as needed.
func (b *Bundler) Bundle(dir string) error {
	for _, name := range b.manifest.Files {
		if err := b.copyAsset(dir, name); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bundler) copyAsset(dir, name string) error {
	in, err := b.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ResourceMissingError{Name: name}
		}
		return fmt.Errorf("opening resource %s: %w", name, err)
	}
	defer in.Close()

	target := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", name, err)
	}

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", target, err)
	}

	n, err := io.Copy(out, io.LimitReader(in, maxAssetSize+1))
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	if n > maxAssetSize {
		out.Close()
		return fmt.Errorf("resource %s exceeds maximum size of %d bytes", name, maxAssetSize)
	}

	return out.Close()
}

// validateAssetPath ensures a manifest entry stays inside the report
// directory.
func validateAssetPath(name string) error {
	if name == "" || path.IsAbs(name) {
		return fmt.Errorf("asset manifest entry %q must be a relative path", name)
	}
	cleaned := path.Clean(name)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("asset manifest entry %q attempts path traversal", name)
	}
	return nil
}

func canonicalVersion(v string) string {
	if v != "" && !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
