// Package catalog loads protocol documents from YAML files.
//
// Each file holds one protocol. Files are read in lexical order, which
// becomes the catalog order used by stores and situation matching.
package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/linnemanlabs/mikey/internal/protocol"
)

//go:embed protocols/*.yaml
var embedded embed.FS

// Builtin returns the protocols shipped with the binary.
func Builtin() ([]*protocol.Protocol, error) {
	sub, err := fs.Sub(embedded, "protocols")
	if err != nil {
		return nil, fmt.Errorf("open builtin catalog: %w", err)
	}
	return Load(sub)
}

// LoadDir reads every *.yaml / *.yml file in dir.
func LoadDir(dir string) ([]*protocol.Protocol, error) {
	return Load(os.DirFS(dir))
}

// Load reads every *.yaml / *.yml file at the root of fsys.
func Load(fsys fs.FS) ([]*protocol.Protocol, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	// fs.ReadDir returns entries sorted by filename.
	var out []*protocol.Protocol
	seen := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !isDocument(e.Name()) {
			continue
		}
		raw, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		p, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		if prev, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("parse %s: duplicate protocol id %q (first defined in %s)", e.Name(), p.ID, prev)
		}
		seen[p.ID] = e.Name()
		out = append(out, p)
	}
	return out, nil
}

// Parse decodes and validates a single protocol document.
// A missing status defaults to active.
func Parse(raw []byte) (*protocol.Protocol, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var p protocol.Protocol
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if p.Status == "" {
		p.Status = protocol.StatusActive
	}
	if err := validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func validate(p *protocol.Protocol) error {
	var errs []error
	if strings.TrimSpace(p.ID) == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if p.Tier < 0 {
		errs = append(errs, fmt.Errorf("tier must be >= 0, got %d", p.Tier))
	}
	if !p.Status.Valid() {
		errs = append(errs, fmt.Errorf("unknown status %q", p.Status))
	}
	return errors.Join(errs...)
}

func isDocument(name string) bool {
	switch path.Ext(name) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
