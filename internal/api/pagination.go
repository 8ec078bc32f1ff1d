package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gastro-elite/backend/internal/types"
)

func pageFromQuery(c *gin.Context) types.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return types.Page{Limit: limit, Offset: offset}.Normalize()
}

func pageResponse(items interface{}, total int64, page types.Page) gin.H {
	return gin.H{
		"items":  items,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	}
}
