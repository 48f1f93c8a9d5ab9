// Package catalog describes the queryable tables of each environment: their
// physical names, primary keys and the indexes offered as access patterns.
package catalog

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

var (
	ErrEnvironmentNotFound = errors.New("environment not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrIndexNotFound       = errors.New("index not found")
)

// Index is an access pattern of a table. An empty Name denotes the table's
// primary index.
type Index struct {
	Name        string `yaml:"name" json:"name"`
	DisplayName string `yaml:"displayName" json:"displayName"`
	HashKey     string `yaml:"hashKey" json:"hashKey"`
	RangeKey    string `yaml:"rangeKey,omitempty" json:"rangeKey,omitempty"`
}

// IsPrimary reports whether the index is the table's primary index.
func (i Index) IsPrimary() bool {
	return i.Name == ""
}

// Fields lists the key attributes a query on this index accepts.
func (i Index) Fields() []string {
	if i.RangeKey == "" {
		return []string{i.HashKey}
	}
	return []string{i.HashKey, i.RangeKey}
}

// Table describes one table of an environment.
type Table struct {
	// Name is the physical DynamoDB table name.
	Name        string  `yaml:"name" json:"name"`
	DisplayName string  `yaml:"displayName" json:"displayName"`
	PrimaryKey  string  `yaml:"primaryKey" json:"primaryKey"`
	SortKey     string  `yaml:"sortKey,omitempty" json:"sortKey,omitempty"`
	Indexes     []Index `yaml:"indexes" json:"indexes"`
}

// Index looks up an index by name.
func (t Table) Index(name string) (Index, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return Index{}, false
}

// Environment groups the tables of one deployment.
type Environment struct {
	Name string `yaml:"name" json:"name"`
	// Production environments get the stronger delete warning.
	Production bool             `yaml:"production" json:"production"`
	Tables     map[string]Table `yaml:"tables" json:"tables"`
}

// Catalog is the read-only schema of every environment, in display order.
type Catalog struct {
	Environments []Environment `yaml:"environments" json:"environments"`
}

// Load reads a catalog YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every table is queryable.
func (c *Catalog) Validate() error {
	if len(c.Environments) == 0 {
		return fmt.Errorf("catalog has no environments")
	}
	seen := make(map[string]bool)
	for _, env := range c.Environments {
		if env.Name == "" {
			return fmt.Errorf("environment name is required")
		}
		if seen[env.Name] {
			return fmt.Errorf("duplicate environment %q", env.Name)
		}
		seen[env.Name] = true
		for key, t := range env.Tables {
			if t.Name == "" {
				return fmt.Errorf("%s/%s: table name is required", env.Name, key)
			}
			if t.PrimaryKey == "" {
				return fmt.Errorf("%s/%s: primary key is required", env.Name, key)
			}
			if len(t.Indexes) == 0 {
				return fmt.Errorf("%s/%s: at least one index is required", env.Name, key)
			}
			for _, idx := range t.Indexes {
				if idx.HashKey == "" {
					return fmt.Errorf("%s/%s: index %q has no hash key", env.Name, key, idx.Name)
				}
			}
		}
	}
	return nil
}

// EnvironmentNames returns the environment names in display order.
func (c *Catalog) EnvironmentNames() []string {
	names := make([]string, len(c.Environments))
	for i, env := range c.Environments {
		names[i] = env.Name
	}
	return names
}

// Environment looks up an environment by name.
func (c *Catalog) Environment(name string) (Environment, error) {
	for _, env := range c.Environments {
		if env.Name == name {
			return env, nil
		}
	}
	return Environment{}, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, name)
}

// IsProduction reports whether env is flagged as production.
func (c *Catalog) IsProduction(env string) bool {
	e, err := c.Environment(env)
	return err == nil && e.Production
}

// TableKeys returns the table keys of env, sorted.
func (c *Catalog) TableKeys(env string) []string {
	e, err := c.Environment(env)
	if err != nil {
		return nil
	}
	return slices.Sorted(maps.Keys(e.Tables))
}

// Table returns the table registered under key in env.
func (c *Catalog) Table(env, key string) (Table, error) {
	e, err := c.Environment(env)
	if err != nil {
		return Table{}, err
	}
	t, ok := e.Tables[key]
	if !ok {
		return Table{}, fmt.Errorf("%w: %s for environment %s", ErrTableNotFound, key, env)
	}
	return t, nil
}

// Index returns the named index of a table.
func (c *Catalog) Index(env, key, indexName string) (Index, error) {
	t, err := c.Table(env, key)
	if err != nil {
		return Index{}, err
	}
	idx, ok := t.Index(indexName)
	if !ok {
		return Index{}, fmt.Errorf("%w: %q for table %s", ErrIndexNotFound, indexName, key)
	}
	return idx, nil
}

// Tables is the wire shape served to clients: environment -> table key ->
// table.
type Tables struct {
	Environments []string                    `json:"environments"`
	Production   map[string]bool             `json:"production"`
	Tables       map[string]map[string]Table `json:"tables"`
}

// Tables flattens the catalog into its wire shape.
func (c *Catalog) Tables() Tables {
	out := Tables{
		Environments: c.EnvironmentNames(),
		Production:   make(map[string]bool, len(c.Environments)),
		Tables:       make(map[string]map[string]Table, len(c.Environments)),
	}
	for _, env := range c.Environments {
		out.Production[env.Name] = env.Production
		out.Tables[env.Name] = env.Tables
	}
	return out
}
