// internal/utils/response.go
package utils

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// PaginationMeta is rendered under meta.pagination for paginated lists.
type PaginationMeta struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

func NoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// RenderPage marshals a paginated list envelope. The bytes are what the list
// cache stores, so cached and fresh responses are identical.
func RenderPage(data interface{}, meta *PaginationMeta) ([]byte, error) {
	resp := APIResponse{Success: true, Data: data}
	if meta != nil {
		resp.Meta = gin.H{"pagination": meta}
	}
	return json.Marshal(resp)
}

// RawJSONResponse writes a pre-rendered envelope.
func RawJSONResponse(c *gin.Context, body []byte) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func SetPaginationHeaders(c *gin.Context, meta *PaginationMeta) {
	if meta == nil {
		return
	}
	c.Header("X-Total-Count", strconv.FormatInt(meta.Count, 10))
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

// Caller is the authenticated identity attached by the auth middleware.
type Caller struct {
	ID       uint
	Username string
	IsStaff  bool
}

func GetCallerFromContext(c *gin.Context) (*Caller, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return nil, false
	}
	id, ok := userID.(uint)
	if !ok {
		return nil, false
	}
	caller := &Caller{ID: id, IsStaff: c.GetBool("is_staff")}
	caller.Username = c.GetString("username")
	return caller, true
}
