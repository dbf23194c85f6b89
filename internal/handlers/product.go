// internal/handlers/product.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/catalog-api/internal/cache"
	"github.com/javajoker/catalog-api/internal/i18n"
	"github.com/javajoker/catalog-api/internal/pagination"
	"github.com/javajoker/catalog-api/internal/serializers"
	"github.com/javajoker/catalog-api/internal/services"
	"github.com/javajoker/catalog-api/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
	cache          *cache.Manager
	listEndpoint   cache.Endpoint
}

func NewProductHandler(productService *services.ProductService, cacheManager *cache.Manager, listEndpoint cache.Endpoint) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		cache:          cacheManager,
		listEndpoint:   listEndpoint,
	}
}

// GET /products/
func (h *ProductHandler) ListProducts(c *gin.Context) {
	cachedList(c, h.cache, h.listEndpoint, func() (interface{}, *utils.PaginationMeta, error) {
		page, err := h.productService.List(c.Request.Context(), pagination.RequestURL(c.Request))
		if err != nil {
			return nil, nil, err
		}
		return page.Results, page.Meta, nil
	})
}

// GET /products/info/
func (h *ProductHandler) GetProductInfo(c *gin.Context) {
	info, err := h.productService.Info(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, info)
}

// GET /products/:id/
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, i18n.KeyProductNotFound)
	if !ok {
		return
	}

	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// POST /products/
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req serializers.ProductWrite
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.CreatedResponse(c, product)
}

// PUT and PATCH /products/:id/
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, i18n.KeyProductNotFound)
	if !ok {
		return
	}

	var req serializers.ProductWrite
	if !bindJSON(c, &req) {
		return
	}

	partial := c.Request.Method == http.MethodPatch
	product, err := h.productService.Update(c.Request.Context(), id, &req, partial)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// DELETE /products/:id/
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, i18n.KeyProductNotFound)
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.NoContentResponse(c)
}
