// internal/handlers/order.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/catalog-api/internal/cache"
	"github.com/javajoker/catalog-api/internal/i18n"
	"github.com/javajoker/catalog-api/internal/pagination"
	"github.com/javajoker/catalog-api/internal/serializers"
	"github.com/javajoker/catalog-api/internal/services"
	"github.com/javajoker/catalog-api/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
	cache        *cache.Manager
	listEndpoint cache.Endpoint
}

func NewOrderHandler(orderService *services.OrderService, cacheManager *cache.Manager, listEndpoint cache.Endpoint) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		cache:        cacheManager,
		listEndpoint: listEndpoint,
	}
}

func parseOrderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		utils.HandleError(c, utils.NewNotFoundError(i18n.KeyOrderNotFound))
		return uuid.Nil, false
	}
	return id, true
}

// GET /orders/
func (h *OrderHandler) ListOrders(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	cachedList(c, h.cache, h.listEndpoint, func() (interface{}, *utils.PaginationMeta, error) {
		page, err := h.orderService.List(c.Request.Context(), caller, pagination.RequestURL(c.Request))
		if err != nil {
			return nil, nil, err
		}
		return page.Results, page.Meta, nil
	})
}

// GET /orders/user-orders/
func (h *OrderHandler) ListUserOrders(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	orders, err := h.orderService.UserOrders(c.Request.Context(), caller)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, orders)
}

// GET /orders/:order_id/
func (h *OrderHandler) GetOrder(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), caller, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, order)
}

// POST /orders/
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req serializers.OrderWriteRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), caller, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.CreatedResponse(c, order)
}

// PUT and PATCH /orders/:order_id/
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req serializers.OrderWriteRequest
	if !bindJSON(c, &req) {
		return
	}

	partial := c.Request.Method == http.MethodPatch
	order, err := h.orderService.Update(c.Request.Context(), caller, id, &req, partial)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, order)
}

// DELETE /orders/:order_id/
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), caller, id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.NoContentResponse(c)
}
