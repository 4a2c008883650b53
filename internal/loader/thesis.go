package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/fundscore/core"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// thesisExts are tried in order when looking up a ticker's thesis.
var thesisExts = []string{".yaml", ".yml", ".json", ".toml"}

// ThesisPath returns where the thesis for ticker lives with the given extension.
func ThesisPath(dir, ticker, ext string) string {
	return filepath.Join(dir, schema.NormalizeTicker(ticker)+"_thesis"+ext)
}

// FindThesis returns the first existing thesis file for ticker, or "".
func FindThesis(dir, ticker string) string {
	for _, ext := range thesisExts {
		if p := ThesisPath(dir, ticker, ext); exists(p) {
			return p
		}
	}
	return ""
}

// LoadThesis resolves the thesis for ticker. An explicit path must exist;
// otherwise the theses directory is searched and a miss returns nil.
func (d *Dir) LoadThesis(ticker string) (*schema.Thesis, []string, error) {
	path := d.thesisPath
	if path == "" {
		path = FindThesis(d.thesesDir, ticker)
		if path == "" {
			return nil, nil, nil
		}
	} else if !exists(path) {
		return nil, nil, fmt.Errorf("%s: %w", path, contract.ErrThesisNotFound)
	}

	th, err := ReadThesis(path)
	if err != nil {
		return nil, nil, err
	}
	if th.Ticker == "" {
		th.Ticker = schema.NormalizeTicker(ticker)
	}
	if th.Name == "" {
		th.Name = th.Ticker + ": Thesis"
	}
	warnings, err := core.ValidateThesis(*th)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return th, warnings, nil
}

// ReadThesis decodes a thesis file by extension: .json, .toml or YAML otherwise.
func ReadThesis(path string) (*schema.Thesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	th, err := DecodeThesis(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return th, nil
}

// DecodeThesis parses thesis bytes in the format named by ext.
func DecodeThesis(data []byte, ext string) (*schema.Thesis, error) {
	var th schema.Thesis
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&th); err != nil {
			return nil, fmt.Errorf("failed to decode JSON thesis: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &th); err != nil {
			return nil, fmt.Errorf("failed to decode TOML thesis: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &th); err != nil {
			return nil, fmt.Errorf("failed to decode YAML thesis: %w", err)
		}
	}
	th.Ticker = schema.NormalizeTicker(th.Ticker)
	return &th, nil
}
