package lifecycle

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// SoftDeletable - способность сущности к мягкому удалению.
// Реализуется один раз на models.BaseModel, TableName дает сама сущность.
type SoftDeletable interface {
	GetID() string
	TableName() string
	Deleted() bool
	MarkDeleted(now time.Time) bool
	MarkRestored() bool
}

// DependentsFunc загружает зависимые сущности родителя.
// includeDeleted=false - только живые (мягкий каскад), true - все (hard delete).
type DependentsFunc func(db *gorm.DB, parentID string, includeDeleted bool) ([]SoftDeletable, error)

// Manager выполняет delete / restore / hard delete с каскадом по зарегистрированным правилам
type Manager struct {
	mu         sync.RWMutex
	dependents map[string][]DependentsFunc
	now        func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		dependents: make(map[string][]DependentsFunc),
		now:        time.Now,
	}
}

// Register добавляет правило каскада для таблицы родителя
func (m *Manager) Register(parentTable string, fn DependentsFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dependents[parentTable] = append(m.dependents[parentTable], fn)
}

func (m *Manager) rules(table string) []DependentsFunc {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]DependentsFunc(nil), m.dependents[table]...)
}

// Delete мягко удаляет сущность и рекурсивно ее живых потомков.
// Повторный вызов на удаленной сущности ничего не делает.
// Каскад не атомарен: при сбое посередине родитель уже помечен удаленным.
func (m *Manager) Delete(db *gorm.DB, entity SoftDeletable) error {
	now := m.now().UTC()
	if !entity.MarkDeleted(now) {
		return nil
	}

	err := db.Table(entity.TableName()).
		Where("id = ?", entity.GetID()).
		UpdateColumns(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
		}).Error
	if err != nil {
		entity.MarkRestored()
		return fmt.Errorf("soft delete %s %s: %w", entity.TableName(), entity.GetID(), err)
	}

	for _, load := range m.rules(entity.TableName()) {
		children, err := load(db, entity.GetID(), false)
		if err != nil {
			return fmt.Errorf("load dependents of %s %s: %w", entity.TableName(), entity.GetID(), err)
		}
		for _, child := range children {
			if err := m.Delete(db, child); err != nil {
				return err
			}
		}
	}
	return nil
}

// Restore снимает пометку удаления. Потомки не восстанавливаются.
func (m *Manager) Restore(db *gorm.DB, entity SoftDeletable) error {
	if !entity.MarkRestored() {
		return nil
	}

	err := db.Table(entity.TableName()).
		Where("id = ?", entity.GetID()).
		UpdateColumns(map[string]interface{}{
			"is_deleted": false,
			"deleted_at": nil,
		}).Error
	if err != nil {
		return fmt.Errorf("restore %s %s: %w", entity.TableName(), entity.GetID(), err)
	}
	return nil
}

// HardDelete необратимо удаляет строку и всех потомков (включая уже удаленных),
// начиная с самых глубоких.
func (m *Manager) HardDelete(db *gorm.DB, entity SoftDeletable) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return m.hardDelete(tx, entity)
	})
}

func (m *Manager) hardDelete(db *gorm.DB, entity SoftDeletable) error {
	for _, load := range m.rules(entity.TableName()) {
		children, err := load(db, entity.GetID(), true)
		if err != nil {
			return fmt.Errorf("load dependents of %s %s: %w", entity.TableName(), entity.GetID(), err)
		}
		for _, child := range children {
			if err := m.hardDelete(db, child); err != nil {
				return err
			}
		}
	}

	err := db.Exec("DELETE FROM "+entity.TableName()+" WHERE id = ?", entity.GetID()).Error
	if err != nil {
		return fmt.Errorf("hard delete %s %s: %w", entity.TableName(), entity.GetID(), err)
	}
	return nil
}

// Scope - явный фильтр мягкого удаления для запросов репозиториев
func Scope(includeDeleted bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if includeDeleted {
			return db
		}
		return db.Where("is_deleted = ?", false)
	}
}

// ScopeFor - то же, что Scope, но с указанием таблицы (для запросов с JOIN)
func ScopeFor(table string, includeDeleted bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if includeDeleted {
			return db
		}
		return db.Where(table+".is_deleted = ?", false)
	}
}

// OnlyDeleted - для админских списков корзины
func OnlyDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", true)
}
