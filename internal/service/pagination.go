package service

const (
	defaultPageSize = 20
	minPageSize     = 1
)

// Pagination 描述分页响应的元数据，页码从 1 开始。
type Pagination struct {
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	TotalItems   int64 `json:"total_items"`
	ItemsPerPage int   `json:"items_per_page"`
}

// normalizePageQuery 在服务入口统一收口分页参数：
// page < 1 回退到 1，limit < 1 回退到默认 20。
func normalizePageQuery(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < minPageSize {
		limit = defaultPageSize
	}
	return page, limit
}

// paginationFor 计算分页元数据，total_pages 向上取整。
func paginationFor(total int64, page, limit int) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
	}
}
