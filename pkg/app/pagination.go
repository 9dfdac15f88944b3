package app

import (
	"github.com/haierkeys/wicky/pkg/convert"

	"github.com/gin-gonic/gin"
)

type Pager struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	TotalRows int `json:"totalRows"`
}

// Offset 当前页第一条记录的偏移量
func (p *Pager) Offset() int {
	return GetPageOffset(p.Page, p.PageSize)
}

// PaginationConfig 分页配置
type PaginationConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

var DefaultPaginationConfig = PaginationConfig{
	DefaultPageSize: 10,
	MaxPageSize:     100,
}

// queryInt reads key from the query string, then from a posted form.
func queryInt(c *gin.Context, key string) int {
	if s, exist := c.GetQuery(key); exist {
		return convert.StrTo(s).MustInt()
	}
	if s := c.PostForm(key); s != "" {
		return convert.StrTo(s).MustInt()
	}
	return 0
}

func GetPage(c *gin.Context) int {
	if page := queryInt(c, "page"); page > 0 {
		return page
	}
	return 1
}

// GetPageSizeWithConfig 获取分页大小，超过上限时截断
func GetPageSizeWithConfig(c *gin.Context, cfg PaginationConfig) int {
	pageSize := queryInt(c, "pageSize")
	switch {
	case pageSize <= 0:
		return cfg.DefaultPageSize
	case pageSize > cfg.MaxPageSize:
		return cfg.MaxPageSize
	default:
		return pageSize
	}
}

func GetPageSize(c *gin.Context) int {
	return GetPageSizeWithConfig(c, DefaultPaginationConfig)
}

func GetPageOffset(page, pageSize int) int {
	if page <= 0 {
		return 0
	}
	return (page - 1) * pageSize
}

// NewPager builds the page request of c; TotalRows is filled in by ToResponseList.
// NewPager 解析请求中的翻页参数
func NewPager(c *gin.Context, cfg PaginationConfig) *Pager {
	return &Pager{
		Page:     GetPage(c),
		PageSize: GetPageSizeWithConfig(c, cfg),
	}
}
