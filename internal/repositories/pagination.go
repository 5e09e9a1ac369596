package repositories

import "gorm.io/gorm"

// Page - параметры страницы (нумерация с 1)
type Page struct {
	Page     int
	PageSize int
}

func (p Page) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// paginate применяет LIMIT/OFFSET; нулевой PageSize - без ограничения
func paginate(p Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.PageSize <= 0 {
			return db
		}
		return db.Offset(p.Offset()).Limit(p.PageSize)
	}
}

// findPage считает total и загружает страницу одним набором условий.
// Preload применяется только к выборке, не к COUNT.
func findPage(query *gorm.DB, p Page, out interface{}, preloads ...string) (int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	find := query.Session(&gorm.Session{}).Scopes(paginate(p))
	for _, rel := range preloads {
		find = find.Preload(rel)
	}
	if err := find.Find(out).Error; err != nil {
		return 0, err
	}
	return total, nil
}
