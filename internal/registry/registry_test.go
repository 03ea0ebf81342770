package registry

import (
	"errors"
	"testing"
	"unicode/utf8"

	"pv-configurator/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	modules   map[string]*model.SandiaModule
	inverters map[string]*model.SandiaInverter
}

func (f fakeSource) Module(library, id string) (*model.SandiaModule, bool) {
	m, ok := f.modules[library+"/"+id]
	return m, ok
}

func (f fakeSource) Inverter(library, id string) (*model.SandiaInverter, bool) {
	inv, ok := f.inverters[library+"/"+id]
	return inv, ok
}

func testCatalogs() ([]Catalog, []Body) {
	catalogs := []Catalog{
		{
			ID: "SandiaModules", Kind: model.KindModule, Library: "SandiaMod",
			Entries: []Entry{
				{DisplayName: "Sanyo HIP - 200BE11", Name: "Sanyo HIP-200BE11 [2006 (E)]", Price: decimal.RequireFromString("525.01")},
				{DisplayName: "AstroPower APX-120", Name: "AstroPower APX-120 [ 2001]", Price: decimal.RequireFromString("240.81")},
			},
		},
		{
			ID: "CECInverters", Kind: model.KindInverter, Library: "CECInverter",
			Entries: []Entry{
				{DisplayName: "ABB: PVI-0.3 Inverter", Name: "ABB: PVI-3.0-OUTD-S-US-A [240V]", Price: decimal.RequireFromString("173.19")},
			},
		},
		{
			ID: "SandiaInverters", Kind: model.KindInverter, Library: "CECInverter",
			Entries: []Entry{
				{DisplayName: "Enphase Energy Inc Inverter", Name: "Enphase Energy Inc : IQ6-60-x-US [240V]", Price: decimal.RequireFromString("220.95")},
			},
		},
	}
	bodies := []Body{
		{Name: "Sandia National Laboratories", ModuleCatalog: "SandiaModules", InverterCatalog: "SandiaInverters"},
		{Name: "California Energy Commission", InverterCatalog: "CECInverters"},
	}
	return catalogs, bodies
}

func TestTranslateName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ABB: PVI-3.0-OUTD-S-US-A [240V]", "ABB__PVI_3_0_OUTD_S_US_A__240V_"},
		{"Sanyo HIP-200BE11 [2006 (E)]", "Sanyo_HIP_200BE11__2006__E__"},
		{"AstroPower APX-120 [ 2001]", "AstroPower_APX_120___2001_"},
		{"a+b/c\"d,e", "a_b_c_d_e"},
		{"Huawei_Technologies_Co___Ltd___SUN2000_10KTL_USL0__240V_", "Huawei_Technologies_Co___Ltd___SUN2000_10KTL_USL0__240V_"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := TranslateName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, TranslateName(got), "idempotent")
			assert.Equal(t, utf8.RuneCountInString(tt.in), utf8.RuneCountInString(got), "length preserving")
		})
	}
}

func TestLookupWithoutSource(t *testing.T) {
	catalogs, bodies := testCatalogs()
	r, err := New(catalogs, bodies, nil)
	require.NoError(t, err)

	spec, err := r.Lookup("CECInverters", "ABB: PVI-0.3 Inverter")
	require.NoError(t, err)
	assert.Equal(t, "ABB__PVI_3_0_OUTD_S_US_A__240V_", spec.CanonicalID)
	assert.Equal(t, model.KindInverter, spec.Kind)
	assert.True(t, spec.UnitPrice.Equal(decimal.RequireFromString("173.19")))
	assert.Nil(t, spec.Inverter)
}

func TestLookupWithSource(t *testing.T) {
	catalogs, bodies := testCatalogs()
	src := fakeSource{
		modules: map[string]*model.SandiaModule{
			"SandiaMod/Sanyo_HIP_200BE11__2006__E__": {Name: "Sanyo HIP-200BE11 [2006 (E)]", Area: 1.3},
		},
		inverters: map[string]*model.SandiaInverter{
			"CECInverter/Enphase_Energy_Inc___IQ6_60_x_US__240V_": {Paco: 240},
		},
	}
	r, err := New(catalogs, bodies, src)
	require.NoError(t, err)

	mod, err := r.Lookup("SandiaModules", "Sanyo HIP - 200BE11")
	require.NoError(t, err)
	require.NotNil(t, mod.Module)
	assert.InDelta(t, 1.3, mod.AreaM2, 1e-12)

	inv, err := r.LookupKind("SandiaInverters", "Enphase Energy Inc Inverter", model.KindInverter)
	require.NoError(t, err)
	require.NotNil(t, inv.Inverter)
	assert.InDelta(t, 240, inv.Inverter.Paco, 1e-12)

	_, err = r.Lookup("SandiaModules", "AstroPower APX-120")
	assert.True(t, errors.Is(err, model.ErrUnknownComponent), "listed but absent from the library")
}

func TestLookupUnknown(t *testing.T) {
	catalogs, bodies := testCatalogs()
	r, err := New(catalogs, bodies, nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		catalog string
		display string
	}{
		{"unknown catalog", "NoSuchCatalog", "ABB: PVI-0.3 Inverter"},
		{"unknown name", "CECInverters", "Nope"},
		{"no cross-catalog fallback", "CECInverters", "Enphase Energy Inc Inverter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Lookup(tt.catalog, tt.display)
			assert.True(t, errors.Is(err, model.ErrUnknownComponent))
		})
	}

	_, err = r.LookupKind("CECInverters", "ABB: PVI-0.3 Inverter", model.KindModule)
	assert.True(t, errors.Is(err, model.ErrUnknownComponent))
}

func TestNamesAndCatalogs(t *testing.T) {
	catalogs, bodies := testCatalogs()
	r, err := New(catalogs, bodies, nil)
	require.NoError(t, err)

	names, err := r.Names("SandiaModules")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sanyo HIP - 200BE11", "AstroPower APX-120"}, names)

	_, err = r.Names("missing")
	assert.True(t, errors.Is(err, model.ErrUnknownComponent))

	assert.Equal(t, []string{"CECInverters", "SandiaInverters"}, r.Catalogs(model.KindInverter))
	assert.Len(t, r.Catalogs(""), 3)

	c, ok := r.Catalog("SandiaModules")
	require.True(t, ok)
	c.Entries[0].DisplayName = "mutated"
	names, _ = r.Names("SandiaModules")
	assert.Equal(t, "Sanyo HIP - 200BE11", names[0], "Catalog returns a copy")
}

func TestCatalogForBody(t *testing.T) {
	catalogs, bodies := testCatalogs()
	r, err := New(catalogs, bodies, nil)
	require.NoError(t, err)

	id, err := r.CatalogForBody("Sandia National Laboratories", model.KindModule)
	require.NoError(t, err)
	assert.Equal(t, "SandiaModules", id)

	id, err = r.CatalogForBody("California Energy Commission", model.KindInverter)
	require.NoError(t, err)
	assert.Equal(t, "CECInverters", id)

	_, err = r.CatalogForBody("California Energy Commission", model.KindModule)
	assert.True(t, errors.Is(err, model.ErrUnknownComponent))

	_, err = r.CatalogForBody("Nobody", model.KindInverter)
	assert.True(t, errors.Is(err, model.ErrUnknownComponent))
	assert.Len(t, r.Bodies(), 2)
}

func TestNewRejectsInvalidCatalogs(t *testing.T) {
	price := decimal.NewFromInt(1)
	tests := []struct {
		name     string
		catalogs []Catalog
		bodies   []Body
		wantErr  string
	}{
		{"missing id", []Catalog{{Kind: model.KindModule}}, nil, "id is required"},
		{"duplicate id", []Catalog{{ID: "a", Kind: model.KindModule}, {ID: "a", Kind: model.KindModule}}, nil, "duplicate catalog"},
		{"bad kind", []Catalog{{ID: "a", Kind: "battery"}}, nil, "invalid kind"},
		{"empty entry", []Catalog{{ID: "a", Kind: model.KindModule, Entries: []Entry{{DisplayName: "x"}}}}, nil, "need display_name and name"},
		{
			"duplicate display name",
			[]Catalog{{ID: "a", Kind: model.KindModule, Entries: []Entry{{DisplayName: "x", Name: "y", Price: price}, {DisplayName: "x", Name: "z", Price: price}}}},
			nil, "duplicate component",
		},
		{
			"negative price",
			[]Catalog{{ID: "a", Kind: model.KindModule, Entries: []Entry{{DisplayName: "x", Name: "y", Price: decimal.NewFromInt(-1)}}}},
			nil, "negative price",
		},
		{"body with unknown catalog", nil, []Body{{Name: "b", ModuleCatalog: "nope"}}, "unknown catalog"},
		{"body with wrong kind", []Catalog{{ID: "inv", Kind: model.KindInverter}}, []Body{{Name: "b", ModuleCatalog: "inv"}}, "holds inverters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.catalogs, tt.bodies, nil)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
