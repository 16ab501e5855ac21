// Package schema holds the field catalog: the queryable shape of every
// entity the engine can answer questions about, and the mapping from
// user-facing categories to entities.
package schema

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"
	"gopkg.in/yaml.v3"

	"github.com/cercalo-ai/cercalo-engine/pkg/models"
)

// ErrUnknownEntity is returned when an entity name cannot be resolved
// against the catalog.
var ErrUnknownEntity = errors.New("unknown entity")

// Catalog is the immutable set of entity descriptors and category
// mappings. Built once at startup; pure reads afterwards.
type Catalog struct {
	entities   map[string]*models.EntityDescriptor
	order      []string
	categories map[string]string
}

// catalogFile is the on-disk YAML shape.
type catalogFile struct {
	Entities   []models.EntityDescriptor `yaml:"entities"`
	Categories map[string]string         `yaml:"categories"`
}

// New builds a catalog from descriptors and a category → entity map.
// Descriptor order is preserved for listing.
func New(entities []models.EntityDescriptor, categories map[string]string) (*Catalog, error) {
	c := &Catalog{
		entities:   make(map[string]*models.EntityDescriptor, len(entities)),
		categories: make(map[string]string, len(categories)),
	}

	for i := range entities {
		e := entities[i]
		if e.Name == "" {
			return nil, fmt.Errorf("entity %d has no name", i)
		}
		if e.Table == "" {
			e.Table = e.Name
		}
		if _, dup := c.entities[e.Name]; dup {
			return nil, fmt.Errorf("duplicate entity %q", e.Name)
		}
		c.entities[e.Name] = &e
		c.order = append(c.order, e.Name)
	}

	for category, entity := range categories {
		if _, ok := c.entities[entity]; !ok {
			return nil, fmt.Errorf("category %q maps to unknown entity %q", category, entity)
		}
		c.categories[strings.ToLower(category)] = entity
	}

	return c, nil
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	return New(file.Entities, file.Categories)
}

// Describe returns the descriptor for the named entity.
func (c *Catalog) Describe(name string) (*models.EntityDescriptor, error) {
	e, ok := c.entities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}
	return e, nil
}

// Entities returns all descriptors in declaration order.
func (c *Catalog) Entities() []models.EntityDescriptor {
	out := make([]models.EntityDescriptor, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, *c.entities[name])
	}
	return out
}

// Categories returns the category names in sorted order.
func (c *Catalog) Categories() []string {
	out := make([]string, 0, len(c.categories))
	for category := range c.categories {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// Resolve maps a user-supplied category or entity name to a catalog
// entity. Exact entity names win; then the category map; then singular
// and plural variants of the input.
func (c *Catalog) Resolve(categoryOrEntity string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(categoryOrEntity))
	if name == "" {
		return "", fmt.Errorf("%w: empty category", ErrUnknownEntity)
	}

	if _, ok := c.entities[name]; ok {
		return name, nil
	}
	if entity, ok := c.categories[name]; ok {
		return entity, nil
	}

	for _, variant := range []string{inflection.Plural(name), inflection.Singular(name)} {
		if _, ok := c.entities[variant]; ok {
			return variant, nil
		}
		if entity, ok := c.categories[variant]; ok {
			return entity, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownEntity, categoryOrEntity)
}
