package citations

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

//go:embed authority.yaml
var defaultAuthorityYAML []byte

// AuthorityTable maps domains to a 0-100 authority score
type AuthorityTable struct {
	Default int            `yaml:"default"`
	Domains map[string]int `yaml:"domains"`
}

// DefaultAuthorityTable returns the built-in table
func DefaultAuthorityTable() *AuthorityTable {
	t, err := ParseAuthorityTable(bytes.NewReader(defaultAuthorityYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded authority table: %v", err))
	}
	return t
}

// LoadAuthorityTable reads a YAML table from disk
func LoadAuthorityTable(path string) (*AuthorityTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open authority table: %w", err)
	}
	defer f.Close()
	return ParseAuthorityTable(f)
}

// ParseAuthorityTable decodes and validates a YAML table. Domain keys are
// normalized; every score must be within [0,100].
func ParseAuthorityTable(r io.Reader) (*AuthorityTable, error) {
	var raw AuthorityTable
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: authority table: %v", domain.ErrInvalidInput, err)
	}

	if raw.Default < 0 || raw.Default > 100 {
		return nil, fmt.Errorf("%w: default authority %d outside [0,100]", domain.ErrInvalidInput, raw.Default)
	}
	t := &AuthorityTable{Default: raw.Default, Domains: make(map[string]int, len(raw.Domains))}
	for d, score := range raw.Domains {
		if score < 0 || score > 100 {
			return nil, fmt.Errorf("%w: authority %d outside [0,100] for %s", domain.ErrInvalidInput, score, d)
		}
		t.Domains[domain.NormalizeDomain(d)] = score
	}
	return t, nil
}

// Lookup returns the score of the domain or its closest listed parent
func (t *AuthorityTable) Lookup(d string) int {
	d = domain.NormalizeDomain(d)
	for d != "" {
		if score, ok := t.Domains[d]; ok {
			return score
		}
		i := strings.IndexByte(d, '.')
		if i < 0 {
			break
		}
		d = d[i+1:]
	}
	return t.Default
}
