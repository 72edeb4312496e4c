package models

// Pagination — курсор списка. Всегда берётся из meta.pagination ответа
// сервера, на клиенте не вычисляется.
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// EmptyPagination — курсор, в который сбрасывается список после ошибки чтения.
func EmptyPagination(pageSize int) Pagination {
	return Pagination{Page: 1, PageSize: pageSize, PageCount: 1, Total: 0}
}
