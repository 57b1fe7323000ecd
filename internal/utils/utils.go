package utils

import (
	"topicslog/internal/domain"

	"github.com/gin-gonic/gin"
)

// GetRowQueryParams reads ?sort= and ?q= for rows listings and exports.
func GetRowQueryParams(c *gin.Context) (domain.RowOrder, string) {
	order := domain.ParseRowOrder(c.DefaultQuery("sort", domain.DefaultRowOrder.Name()))
	return order, c.Query("q")
}

// GetTopicQueryParams reads ?filter= and ?q= for the topics listing.
func GetTopicQueryParams(c *gin.Context) (domain.TopicFilter, string) {
	return domain.ParseTopicFilter(c.DefaultQuery("filter", string(domain.FilterAll))), c.Query("q")
}
