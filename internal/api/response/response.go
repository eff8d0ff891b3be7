package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK writes body as a 200 JSON response.
func OK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// List writes items as a JSON array, never null.
func List[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, items)
}
