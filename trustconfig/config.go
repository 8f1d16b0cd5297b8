// Package trustconfig loads a PKI trust-root configuration: a list of
// PEM-encoded trust anchors plus a default hash algorithm, parsed from
// either YAML or JSON and validated eagerly so bad certificates surface
// at load time rather than at first use.
package trustconfig

import (
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/byte4ever/waypoint/hashid"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape, shared by both the YAML and JSON
// loaders.
type fileConfig struct {
	RootCerts    []string `json:"root_certs" yaml:"root-certs"`
	HashAlgoName string   `json:"hash_algo,omitempty" yaml:"hash-algo,omitempty"`
}

// Config is a validated, in-memory trust-root configuration: every
// RootCerts entry has been parsed into Pool, and HashAlgo has been
// resolved from HashAlgoName.
type Config struct {
	Pool     *x509.CertPool
	HashAlgo hashid.Algorithm
}

// Load reads path, dispatching on its extension (".yaml"/".yml" for YAML,
// anything else for JSON), and eagerly validates every trust anchor and
// the hash algorithm tag.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trustconfig: read config: %w", err)
	}

	var fc fileConfig
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("trustconfig: parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("trustconfig: parse json: %w", err)
		}
	}

	return fromFileConfig(fc)
}

// fromFileConfig validates all root certificates eagerly, so a
// misconfigured trust root fails at load time rather than at first use.
func fromFileConfig(fc fileConfig) (*Config, error) {
	if len(fc.RootCerts) == 0 {
		return nil, fmt.Errorf("trustconfig: no root certificates specified")
	}

	pool := x509.NewCertPool()
	for i, pemPath := range fc.RootCerts {
		pemBytes, err := os.ReadFile(pemPath)
		if err != nil {
			return nil, fmt.Errorf("trustconfig: root_certs[%d]: read %q: %w", i, pemPath, err)
		}
		if !pool.AppendCertsFromPEM(pemBytes) {
			return nil, fmt.Errorf("trustconfig: root_certs[%d]: %q contains no valid PEM certificate", i, pemPath)
		}
	}

	algo, err := hashid.ParseCompoundAlgorithm(fc.HashAlgoName)
	if err != nil {
		return nil, fmt.Errorf("trustconfig: hash_algo: %w", err)
	}

	return &Config{Pool: pool, HashAlgo: algo}, nil
}
