package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// FacetHandler serves GET /facets/{kind} and its sub-routes.
type FacetHandler struct {
	deps *Deps
}

func NewFacetHandler(deps *Deps) *FacetHandler {
	return &FacetHandler{deps: deps}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

// ListFacet handles GET /facets/{kind}.
func (h *FacetHandler) ListFacet(c *gin.Context) {
	page, pageSize := pageParams(c)
	rows, total, err := h.deps.Facets.ListFacet(c.Request.Context(), c.Param("kind"), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page": page, "page_size": pageSize, "total": total, "values": rows,
	})
}

// PapersByID handles GET /facets/{kind}/{id}/papers.
func (h *FacetHandler) PapersByID(c *gin.Context) {
	page, pageSize := pageParams(c)
	resp, err := h.deps.Facets.FacetPapers(c.Request.Context(), c.Param("kind"), c.Param("id"), true, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PapersByValue handles GET /facets/{kind}/by-value/{value}/papers.
func (h *FacetHandler) PapersByValue(c *gin.Context) {
	page, pageSize := pageParams(c)
	resp, err := h.deps.Facets.FacetPapers(c.Request.Context(), c.Param("kind"), c.Param("value"), false, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StatsByValue handles GET /facets/{kind}/by-value/{value}/stats.
func (h *FacetHandler) StatsByValue(c *gin.Context) {
	stats, err := h.deps.Facets.FacetStats(c.Request.Context(), c.Param("kind"), c.Param("value"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
