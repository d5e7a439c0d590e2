package pagination

import (
	"github.com/gin-gonic/gin"
	"github.com/studyhub/core/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
)

// Query is a 1-based page request.
type Query struct {
	Page int `form:"page"`
	Size int `form:"size"`
}

// Normalize clamps q into a valid page request.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	switch {
	case q.Size < 1:
		q.Size = DefaultSize
	case q.Size > MaxSize:
		q.Size = MaxSize
	}
	return q
}

func (q Query) Offset() int { return (q.Page - 1) * q.Size }

// FromContext reads ?page=&size= from the request. Unparsable values fall
// back to the defaults.
func FromContext(c *gin.Context) Query {
	var q Query
	if err := c.ShouldBindQuery(&q); err != nil {
		q = Query{}
	}
	return q.Normalize()
}

// Meta describes page q of a result set holding total rows.
func Meta(q Query, total int64) response.Pagination {
	q = q.Normalize()
	pages := int((total + int64(q.Size) - 1) / int64(q.Size))
	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   pages,
		Size:        q.Size,
		HasNextPage: q.Page < pages,
	}
}

// Paginate counts the rows matched by db and loads page q of them into dest.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	q = q.Normalize()
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}
	if err := db.Offset(q.Offset()).Limit(q.Size).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}
	return Meta(q, total), nil
}
