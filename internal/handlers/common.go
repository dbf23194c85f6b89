// internal/handlers/common.go
package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/catalog-api/internal/cache"
	"github.com/javajoker/catalog-api/internal/i18n"
	"github.com/javajoker/catalog-api/internal/utils"
)

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		appErr := utils.NewBadRequestError(i18n.KeyValidationInvalid, "JSON")
		appErr.Details = err.Error()
		utils.HandleError(c, appErr)
		return false
	}
	return true
}

func callerOrAbort(c *gin.Context) (*utils.Caller, bool) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.HandleError(c, utils.NewUnauthorizedError(i18n.KeyAuthRequired))
		return nil, false
	}
	return caller, true
}

// cachedList serves a list endpoint through the response cache. render runs
// only on a miss and returns the page data and its pagination metadata.
func cachedList(c *gin.Context, m *cache.Manager, endpoint cache.Endpoint, render func() (interface{}, *utils.PaginationMeta, error)) {
	ctx := c.Request.Context()

	body, hit, ticket := m.Lookup(ctx, endpoint, c.Request)
	if hit {
		c.Header("X-Cache", "HIT")
		utils.SetPaginationHeaders(c, metaOf(body))
		utils.RawJSONResponse(c, body)
		return
	}

	data, meta, err := render()
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	body, err = utils.RenderPage(data, meta)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	m.Remember(ctx, ticket, body)
	c.Header("X-Cache", "MISS")
	utils.SetPaginationHeaders(c, meta)
	utils.RawJSONResponse(c, body)
}

// metaOf recovers the pagination metadata of a cached body.
func metaOf(body []byte) *utils.PaginationMeta {
	var envelope struct {
		Meta struct {
			Pagination *utils.PaginationMeta `json:"pagination"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	return envelope.Meta.Pagination
}

func parseID(c *gin.Context, notFoundKey string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.HandleError(c, utils.NewNotFoundError(notFoundKey))
		return 0, false
	}
	return uint(id), true
}
