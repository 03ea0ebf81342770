package handlers

import (
	"net/http"

	"pv-configurator/internal/api/models"
	"pv-configurator/internal/config"
	"pv-configurator/internal/model"
	"pv-configurator/internal/registry"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the option lists a front end builds its forms from.
type CatalogHandler struct {
	registry *registry.Registry
	defaults config.DefaultsConfig
}

func NewCatalogHandler(reg *registry.Registry, defaults config.DefaultsConfig) *CatalogHandler {
	return &CatalogHandler{registry: reg, defaults: defaults}
}

// GetDefaults handles GET /api/v1/defaults
func (h *CatalogHandler) GetDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, h.defaults)
}

// ListBodies handles GET /api/v1/bodies
func (h *CatalogHandler) ListBodies(c *gin.Context) {
	bodies := h.registry.Bodies()
	out := make([]gin.H, 0, len(bodies))
	for _, b := range bodies {
		out = append(out, gin.H{
			"name":             b.Name,
			"module_catalog":   b.ModuleCatalog,
			"inverter_catalog": b.InverterCatalog,
		})
	}
	c.JSON(http.StatusOK, gin.H{"bodies": out})
}

// ListCatalogs handles GET /api/v1/catalogs?kind=module|inverter
func (h *CatalogHandler) ListCatalogs(c *gin.Context) {
	kind := model.ComponentKind(c.Query("kind"))
	if kind != "" && !kind.Valid() {
		respondError(c, model.InvalidInput("list_catalogs", "kind must be %q or %q", model.KindModule, model.KindInverter))
		return
	}
	ids := h.registry.Catalogs(kind)
	out := make([]models.CatalogInfo, 0, len(ids))
	for _, id := range ids {
		cat, _ := h.registry.Catalog(id)
		out = append(out, models.CatalogInfo{ID: cat.ID, Kind: cat.Kind, Library: cat.Library, Count: len(cat.Entries)})
	}
	c.JSON(http.StatusOK, gin.H{"catalogs": out})
}

// ListComponents handles GET /api/v1/catalogs/:catalog/components
func (h *CatalogHandler) ListComponents(c *gin.Context) {
	cat, ok := h.registry.Catalog(c.Param("catalog"))
	if !ok {
		respondError(c, model.UnknownComponent("list_components", "unknown catalog %q", c.Param("catalog")))
		return
	}
	out := make([]models.ComponentInfo, 0, len(cat.Entries))
	for _, e := range cat.Entries {
		out = append(out, models.ComponentInfo{DisplayName: e.DisplayName, LibraryName: e.Name, Price: e.Price})
	}
	c.JSON(http.StatusOK, gin.H{
		"catalog":    cat.ID,
		"kind":       cat.Kind,
		"components": out,
		"count":      len(out),
	})
}

// GetComponent handles GET /api/v1/catalogs/:catalog/components/:name
func (h *CatalogHandler) GetComponent(c *gin.Context) {
	spec, err := h.registry.Lookup(c.Param("catalog"), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := models.ComponentResponse{ComponentSpec: spec}
	if m := spec.Module; m != nil {
		resp.PmpW = m.Impo * m.Vmpo
		resp.Material = m.Material
	}
	if inv := spec.Inverter; inv != nil {
		resp.PacoW = inv.Paco
		resp.VdcoV = inv.Vdco
	}
	c.JSON(http.StatusOK, resp)
}
