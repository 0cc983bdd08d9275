package importer

import (
	"sort"
	"strings"

	"github.com/hugh/stockroom/internal/schema"
)

// Built-in column targets. Everything else maps to an attribute definition
// name.
const (
	TargetName   = "__name"
	TargetStatus = "__status"
)

// AutoMap guesses which CSV column feeds which target. Per header, first
// match wins, in order: built-in name aliases, built-in status aliases, exact
// name/label equality, then substring containment in either direction against
// definitions in position order. Headers matching nothing stay unmapped and
// are ignored downstream. A caller-supplied mapping always takes precedence
// over this.
func AutoMap(headers []string, defs []schema.Definition) map[string]string {
	ordered := make([]schema.Definition, len(defs))
	copy(ordered, defs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	mapping := make(map[string]string)
	for _, header := range headers {
		if target, ok := matchHeader(header, ordered); ok {
			mapping[header] = target
		}
	}
	return mapping
}

func matchHeader(header string, defs []schema.Definition) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return "", false
	}

	switch h {
	case "name", "asset name":
		return TargetName, true
	case "status", "asset status":
		return TargetStatus, true
	}

	for _, def := range defs {
		if h == strings.ToLower(def.Name) || h == strings.ToLower(def.Label) {
			return def.Name, true
		}
	}

	for _, def := range defs {
		name := strings.ToLower(def.Name)
		label := strings.ToLower(def.Label)
		if contains(h, name) || contains(name, h) || contains(h, label) || contains(label, h) {
			return def.Name, true
		}
	}

	return "", false
}

func contains(s, sub string) bool {
	return sub != "" && strings.Contains(s, sub)
}
