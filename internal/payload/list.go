package payload

// Sort order constants
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Pagination types shared by list endpoints.
type (
	// ListReqQuery holds pagination query parameters. Additional filters
	// must be declared directly on the handler's own struct (embedding
	// breaks Gin's binding validation).
	ListReqQuery struct {
		PageIndex *int `form:"page_index" binding:"required"`
		PageSize  *int `form:"page_size" binding:"required"`
	}
	ListResp[T any] struct {
		Rows  []T   `json:"rows"`
		Count int64 `json:"count"`
	}
)
