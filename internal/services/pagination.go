package services

import "apimarket_backend/internal/repositories"

// PageResult - страница результатов для пагинированного ответа
type PageResult[T any] struct {
	Items    []T
	Total    int64
	Page     int
	PageSize int
}

func newPage[T any](items []T, total int64, p repositories.Page) *PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PageResult[T]{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}
}
