package usecase

import (
	"strings"

	"ledger-reconciliation/internal/domain"
)

// EntityKind names the entity collections an Index can resolve against.
type EntityKind string

const (
	KindAccount  EntityKind = "account"
	KindCategory EntityKind = "category"
	KindTag      EntityKind = "tag"
)

type indexEntry struct {
	id string
	// name is the display name: same-named accounts after the first are
	// shown as "Name (mask)".
	name  string
	bare  string
	lower string
	mask  string
}

// Index resolves free-text references to canonical IDs. It is built fresh
// for each top-level operation and never mutated afterwards.
type Index struct {
	entries map[EntityKind][]indexEntry
	byName  map[EntityKind]map[string]string
	byLower map[EntityKind]map[string]string
	ids     map[EntityKind]map[string]bool
}

// BuildIndex indexes the given entities in the order supplied.
func BuildIndex(accounts []domain.Account, categories []domain.Category, tags []domain.Tag) *Index {
	idx := &Index{
		entries: make(map[EntityKind][]indexEntry),
		byName:  make(map[EntityKind]map[string]string),
		byLower: make(map[EntityKind]map[string]string),
		ids:     make(map[EntityKind]map[string]bool),
	}

	seen := make(map[string]bool)
	for _, a := range accounts {
		name := a.Name
		if seen[a.Name] {
			name = a.Name + " (" + accountSuffix(a) + ")"
		}
		seen[a.Name] = true
		idx.add(KindAccount, indexEntry{id: a.ID, name: name, bare: a.Name, mask: a.Mask})
	}
	for _, c := range categories {
		idx.add(KindCategory, indexEntry{id: c.ID, name: c.Name, bare: c.Name})
	}
	for _, t := range tags {
		idx.add(KindTag, indexEntry{id: t.ID, name: t.Name, bare: t.Name})
	}
	return idx
}

func accountSuffix(a domain.Account) string {
	if a.Mask != "" {
		return a.Mask
	}
	if len(a.ID) > 4 {
		return a.ID[len(a.ID)-4:]
	}
	return a.ID
}

func (idx *Index) add(kind EntityKind, e indexEntry) {
	e.lower = strings.ToLower(e.name)
	idx.entries[kind] = append(idx.entries[kind], e)

	if idx.byName[kind] == nil {
		idx.byName[kind] = make(map[string]string)
		idx.byLower[kind] = make(map[string]string)
		idx.ids[kind] = make(map[string]bool)
	}
	idx.ids[kind][e.id] = true
	// First occurrence wins on both maps.
	if _, ok := idx.byName[kind][e.name]; !ok {
		idx.byName[kind][e.name] = e.id
	}
	if _, ok := idx.byLower[kind][e.lower]; !ok {
		idx.byLower[kind][e.lower] = e.id
	}
}

// Resolve maps ref to an entity ID. Matching stops at the first hit of:
// exact name, case-insensitive name, substring in either direction (accounts
// only), and finally the secondary key (account mask). Within a stage the
// first entity in index order wins.
func (idx *Index) Resolve(kind EntityKind, ref, secondary string) (string, bool) {
	ref = strings.TrimSpace(ref)
	secondary = strings.TrimSpace(secondary)

	if ref != "" {
		if id, ok := idx.byName[kind][ref]; ok {
			return id, true
		}
		lowerRef := strings.ToLower(ref)
		if id, ok := idx.byLower[kind][lowerRef]; ok {
			return id, true
		}
		if kind == KindAccount {
			for _, e := range idx.entries[kind] {
				if e.bare == "" {
					continue
				}
				if strings.Contains(e.lower, lowerRef) || strings.Contains(lowerRef, strings.ToLower(e.bare)) {
					return e.id, true
				}
			}
		}
	}

	if secondary != "" && kind == KindAccount {
		for _, e := range idx.entries[kind] {
			if e.mask != "" && e.mask == secondary {
				return e.id, true
			}
		}
	}
	return "", false
}

// Has reports whether id belongs to an indexed entity of the given kind.
func (idx *Index) Has(kind EntityKind, id string) bool {
	return idx.ids[kind][strings.TrimSpace(id)]
}

// Name returns the display name registered for id.
func (idx *Index) Name(kind EntityKind, id string) (string, bool) {
	for _, e := range idx.entries[kind] {
		if e.id == id {
			return e.name, true
		}
	}
	return "", false
}
