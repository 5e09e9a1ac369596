package repositories

import (
	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/models"

	"gorm.io/gorm"
)

// childrenOf строит загрузчик дочерних строк по внешнему ключу
func childrenOf[T any, P interface {
	*T
	lifecycle.SoftDeletable
}](foreignKey string) lifecycle.DependentsFunc {
	return func(db *gorm.DB, parentID string, includeDeleted bool) ([]lifecycle.SoftDeletable, error) {
		var rows []T
		err := db.Scopes(lifecycle.Scope(includeDeleted)).
			Where(foreignKey+" = ?", parentID).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		out := make([]lifecycle.SoftDeletable, 0, len(rows))
		for i := range rows {
			out = append(out, P(&rows[i]))
		}
		return out, nil
	}
}

// RegisterCascades описывает владение: Category -> Endpoint -> {Example, ResponseModel, Media, Subscription} -> Usage.
// User и SubscriptionPlan не удаляются каскадом.
func RegisterCascades(m *lifecycle.Manager) {
	m.Register(models.Category{}.TableName(), childrenOf[models.Endpoint]("category_id"))

	endpoints := models.Endpoint{}.TableName()
	m.Register(endpoints, childrenOf[models.Example]("endpoint_id"))
	m.Register(endpoints, childrenOf[models.ResponseModel]("endpoint_id"))
	m.Register(endpoints, childrenOf[models.Media]("endpoint_id"))
	m.Register(endpoints, childrenOf[models.Subscription]("endpoint_id"))

	m.Register(models.Subscription{}.TableName(), childrenOf[models.Usage]("subscription_id"))
}
