package utils

import (
	"net/http/httptest"
	"testing"

	"topicslog/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func contextFor(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestGetRowQueryParams(t *testing.T) {
	order, q := GetRowQueryParams(contextFor("/topics/1/rows?sort=date_asc&q=milk"))
	assert.Equal(t, domain.RowOrder{Field: domain.SortDate, Direction: domain.Asc}, order)
	assert.Equal(t, "milk", q)

	order, q = GetRowQueryParams(contextFor("/topics/1/rows"))
	assert.Equal(t, domain.DefaultRowOrder, order)
	assert.Equal(t, "", q)
}

func TestGetTopicQueryParams(t *testing.T) {
	filter, q := GetTopicQueryParams(contextFor("/topics?filter=shared&q=log"))
	assert.Equal(t, domain.FilterShared, filter)
	assert.Equal(t, "log", q)

	filter, _ = GetTopicQueryParams(contextFor("/topics?filter=nonsense"))
	assert.Equal(t, domain.FilterAll, filter)
}
