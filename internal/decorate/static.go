package decorate

import (
	"context"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/acheong08/depvis/pkg/models"
)

// StaticDecorator marks nodes from fixed advisory lists.
type StaticDecorator struct {
	vulnerable map[models.IdentityKey]bool
	deprecated map[models.IdentityKey]bool
}

// NewStaticDecorator builds a decorator from package keys known to be
// vulnerable or deprecated.
func NewStaticDecorator(vulnerable, deprecated []models.IdentityKey) *StaticDecorator {
	d := &StaticDecorator{
		vulnerable: make(map[models.IdentityKey]bool, len(vulnerable)),
		deprecated: make(map[models.IdentityKey]bool, len(deprecated)),
	}
	for _, k := range vulnerable {
		d.vulnerable[k] = true
	}
	for _, k := range deprecated {
		d.deprecated[k] = true
	}
	return d
}

// Decorate sets flags for listed identities and leaves others untouched.
func (d *StaticDecorator) Decorate(_ context.Context, node *models.PackageDependencyNode) error {
	key := node.Identity.Key()
	if d.vulnerable[key] {
		node.Identity.Vulnerable = true
	}
	if d.deprecated[key] {
		node.Identity.Deprecated = true
	}
	return nil
}

// ReadAdvisoryFile loads a static decorator from a JSON file of the form
//
//	{"vulnerable": [{"id": "A", "version": "1.0.0"}], "deprecated": [...]}
func ReadAdvisoryFile(path string) (*StaticDecorator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read advisory file: %w", err)
	}
	return ParseAdvisories(data)
}

// ParseAdvisories parses the advisory file format. Entries without an id are
// rejected.
func ParseAdvisories(data []byte) (*StaticDecorator, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("malformed advisory JSON")
	}
	doc := gjson.ParseBytes(data)

	vulnerable, err := advisoryKeys(doc.Get("vulnerable"))
	if err != nil {
		return nil, err
	}
	deprecated, err := advisoryKeys(doc.Get("deprecated"))
	if err != nil {
		return nil, err
	}
	return NewStaticDecorator(vulnerable, deprecated), nil
}

func advisoryKeys(list gjson.Result) ([]models.IdentityKey, error) {
	var keys []models.IdentityKey
	var err error
	list.ForEach(func(_, entry gjson.Result) bool {
		id := entry.Get("id").String()
		if id == "" {
			err = fmt.Errorf("advisory entry without id: %s", entry.Raw)
			return false
		}
		keys = append(keys, models.NewIdentityKey(id, entry.Get("version").String(), models.KindPackage))
		return true
	})
	return keys, err
}
