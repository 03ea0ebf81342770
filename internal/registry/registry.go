package registry

import (
	"fmt"
	"sort"

	"pv-configurator/internal/model"

	"github.com/shopspring/decimal"
)

// Entry is one purchasable component: the name shown to users, its published name
// in the component library and its unit price.
type Entry struct {
	DisplayName string
	Name        string
	Price       decimal.Decimal
}

// Catalog is the list of components approved by one certifying body for one
// component kind. Library names the component library its entries resolve against.
type Catalog struct {
	ID      string
	Kind    model.ComponentKind
	Library string
	Entries []Entry
}

// Body maps a certifying body, as offered to users, onto its catalogs.
// Either catalog may be empty when the body certifies only one kind.
type Body struct {
	Name            string
	ModuleCatalog   string
	InverterCatalog string
}

// Source supplies electrical parameters by library and translated identifier.
// Implementations must be safe for concurrent reads.
type Source interface {
	Module(library, id string) (*model.SandiaModule, bool)
	Inverter(library, id string) (*model.SandiaInverter, bool)
}

// Registry is the immutable set of catalogs, built once at startup and shared by
// every request.
type Registry struct {
	catalogs map[string]*catalog
	order    []string
	bodies   []Body
	source   Source
}

type catalog struct {
	Catalog
	byName map[string]Entry
}

// New validates and indexes the catalogs. src may be nil, in which case lookups
// return specs without electrical parameters.
func New(catalogs []Catalog, bodies []Body, src Source) (*Registry, error) {
	r := &Registry{
		catalogs: make(map[string]*catalog, len(catalogs)),
		source:   src,
	}
	for _, c := range catalogs {
		if c.ID == "" {
			return nil, fmt.Errorf("catalog id is required")
		}
		if _, dup := r.catalogs[c.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog %q", c.ID)
		}
		if !c.Kind.Valid() {
			return nil, fmt.Errorf("catalog %q: invalid kind %q", c.ID, c.Kind)
		}
		idx := &catalog{Catalog: c, byName: make(map[string]Entry, len(c.Entries))}
		idx.Entries = append([]Entry(nil), c.Entries...)
		for _, e := range c.Entries {
			if e.DisplayName == "" || e.Name == "" {
				return nil, fmt.Errorf("catalog %q: entries need display_name and name", c.ID)
			}
			if _, dup := idx.byName[e.DisplayName]; dup {
				return nil, fmt.Errorf("catalog %q: duplicate component %q", c.ID, e.DisplayName)
			}
			if e.Price.IsNegative() {
				return nil, fmt.Errorf("catalog %q: component %q has negative price", c.ID, e.DisplayName)
			}
			idx.byName[e.DisplayName] = e
		}
		r.catalogs[c.ID] = idx
		r.order = append(r.order, c.ID)
	}
	for _, b := range bodies {
		if b.ModuleCatalog != "" {
			if err := r.expectKind(b.ModuleCatalog, model.KindModule); err != nil {
				return nil, fmt.Errorf("body %q: %w", b.Name, err)
			}
		}
		if b.InverterCatalog != "" {
			if err := r.expectKind(b.InverterCatalog, model.KindInverter); err != nil {
				return nil, fmt.Errorf("body %q: %w", b.Name, err)
			}
		}
		r.bodies = append(r.bodies, b)
	}
	return r, nil
}

func (r *Registry) expectKind(id string, kind model.ComponentKind) error {
	c, ok := r.catalogs[id]
	if !ok {
		return fmt.Errorf("unknown catalog %q", id)
	}
	if c.Kind != kind {
		return fmt.Errorf("catalog %q holds %ss, not %ss", id, c.Kind, kind)
	}
	return nil
}

// Lookup resolves a display name within one catalog. The name is never searched
// for in any other catalog.
func (r *Registry) Lookup(catalogID, displayName string) (model.ComponentSpec, error) {
	const op = "lookup_component"
	c, ok := r.catalogs[catalogID]
	if !ok {
		return model.ComponentSpec{}, model.UnknownComponent(op, "unknown catalog %q", catalogID)
	}
	e, ok := c.byName[displayName]
	if !ok {
		return model.ComponentSpec{}, model.UnknownComponent(op, "%q is not listed in catalog %q", displayName, catalogID)
	}

	spec := model.ComponentSpec{
		Catalog:     c.ID,
		Kind:        c.Kind,
		CatalogName: e.DisplayName,
		CanonicalID: TranslateName(e.Name),
		UnitPrice:   e.Price,
	}
	if r.source == nil {
		return spec, nil
	}

	switch c.Kind {
	case model.KindModule:
		m, ok := r.source.Module(c.Library, spec.CanonicalID)
		if !ok {
			return model.ComponentSpec{}, model.UnknownComponent(op, "module %q not found in library %q", spec.CanonicalID, c.Library)
		}
		spec.Module = m
		spec.AreaM2 = m.Area
	case model.KindInverter:
		inv, ok := r.source.Inverter(c.Library, spec.CanonicalID)
		if !ok {
			return model.ComponentSpec{}, model.UnknownComponent(op, "inverter %q not found in library %q", spec.CanonicalID, c.Library)
		}
		spec.Inverter = inv
	}
	return spec, nil
}

// LookupKind is Lookup plus a check that the catalog holds the expected kind.
func (r *Registry) LookupKind(catalogID, displayName string, kind model.ComponentKind) (model.ComponentSpec, error) {
	if c, ok := r.catalogs[catalogID]; ok && c.Kind != kind {
		return model.ComponentSpec{}, model.UnknownComponent("lookup_component", "catalog %q does not list %ss", catalogID, kind)
	}
	return r.Lookup(catalogID, displayName)
}

// Names lists the display names of a catalog in configured order.
func (r *Registry) Names(catalogID string) ([]string, error) {
	c, ok := r.catalogs[catalogID]
	if !ok {
		return nil, model.UnknownComponent("list_components", "unknown catalog %q", catalogID)
	}
	out := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		out = append(out, e.DisplayName)
	}
	return out, nil
}

// Catalogs returns the IDs of all catalogs of the given kind (all kinds when empty),
// sorted.
func (r *Registry) Catalogs(kind model.ComponentKind) []string {
	out := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if kind == "" || r.catalogs[id].Kind == kind {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Catalog returns a copy of the catalog definition.
func (r *Registry) Catalog(catalogID string) (Catalog, bool) {
	c, ok := r.catalogs[catalogID]
	if !ok {
		return Catalog{}, false
	}
	cp := c.Catalog
	cp.Entries = append([]Entry(nil), c.Entries...)
	return cp, true
}

func (r *Registry) Bodies() []Body {
	return append([]Body(nil), r.bodies...)
}

// CatalogForBody resolves the certifying body chosen by a user to the catalog of
// the requested kind.
func (r *Registry) CatalogForBody(body string, kind model.ComponentKind) (string, error) {
	for _, b := range r.bodies {
		if b.Name != body {
			continue
		}
		id := b.InverterCatalog
		if kind == model.KindModule {
			id = b.ModuleCatalog
		}
		if id == "" {
			return "", model.UnknownComponent("select_catalog", "%q has no %s catalog", body, kind)
		}
		return id, nil
	}
	return "", model.UnknownComponent("select_catalog", "unknown certifying body %q", body)
}
