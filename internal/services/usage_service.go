package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"apimarket_backend/internal/lifecycle"
	"apimarket_backend/internal/logger"
	"apimarket_backend/internal/metrics"
	"apimarket_backend/internal/models"
	"apimarket_backend/internal/repositories"
	"apimarket_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// defaultUsageDays - период счетчика обращений по умолчанию
const defaultUsageDays = 30

// UsageObservation - снимок успешного запроса к отслеживаемому маршруту
type UsageObservation struct {
	UserID       string
	EndpointSlug string
	Path         string
	Method       string
	StatusCode   int
	RawBody      []byte
	Query        url.Values
}

// UsageRecorder - учет обращений; ошибки не возвращаются, а логируются
type UsageRecorder interface {
	Record(ctx context.Context, db *gorm.DB, obs UsageObservation)
}

type UsageService interface {
	UsageRecorder

	ListForUser(db *gorm.DB, userID string, query UsageQuery, page repositories.Page) (*PageResult[models.Usage], error)
	GetForUser(db *gorm.DB, userID, id string) (*models.Usage, error)
	// CountForUser: query.Days по умолчанию 30, query.Endpoint - slug или id
	CountForUser(db *gorm.DB, userID string, query UsageQuery) (*UsageCount, error)

	// Admin operations
	List(db *gorm.DB, query UsageQuery, page repositories.Page) (*PageResult[models.Usage], error)
	Get(db *gorm.DB, id string) (*models.Usage, error)
	Delete(db *gorm.DB, id string) error
}

// UsageQuery - фильтры журнала из параметров запроса
type UsageQuery struct {
	UserID         string
	Username       string
	Endpoint       string
	SubscriptionID string
	StatusCode     int
	// Days > 0 ограничивает журнал последними Days днями
	Days int
}

type UsageCount struct {
	Count      int64
	Since      time.Time
	EndpointID string
}

type usageService struct {
	repo         repositories.UsageRepository
	subRepo      repositories.SubscriptionRepository
	endpointRepo repositories.EndpointRepository
	metrics      *metrics.Metrics
	lifecycle    *lifecycle.Manager
	now          func() time.Time
}

func NewUsageService(
	repo repositories.UsageRepository,
	subRepo repositories.SubscriptionRepository,
	endpointRepo repositories.EndpointRepository,
	m *metrics.Metrics,
	lm *lifecycle.Manager,
) UsageService {
	return &usageService{
		repo:         repo,
		subRepo:      subRepo,
		endpointRepo: endpointRepo,
		metrics:      m,
		lifecycle:    lm,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *usageService) Record(ctx context.Context, db *gorm.DB, obs UsageObservation) {
	db = db.WithContext(ctx)

	endpoint, err := s.resolveEndpoint(db, obs)
	if err != nil {
		if !errors.Is(err, repositories.ErrEndpointNotFound) {
			s.fail(ctx, "Failed to resolve tracked endpoint", err, obs)
		}
		return
	}

	sub, _, err := s.subRepo.GetOrCreate(db, obs.UserID, endpoint.ID)
	if err != nil {
		s.fail(ctx, "Failed to get or create subscription", err, obs)
		return
	}

	now := s.now()
	usage := &models.Usage{
		SubscriptionID: sub.ID,
		RequestTime:    now,
		StatusCode:     obs.StatusCode,
		Method:         obs.Method,
		Path:           obs.Path,
		RequestBody:    bodyObject(obs.RawBody),
		QueryParams:    queryObject(obs.Query),
	}
	// запись и +1 к счетчику фиксируются вместе
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(tx, usage); err != nil {
			return fmt.Errorf("write usage record: %w", err)
		}
		if err := s.subRepo.IncrementUsage(tx, sub.ID, now); err != nil {
			return fmt.Errorf("increment usage count: %w", err)
		}
		return nil
	})
	if err != nil {
		s.fail(ctx, "Failed to record usage", err, obs)
		return
	}
	s.metrics.IncUsageRecorded(endpoint.Slug)
}

// resolveEndpoint: сначала по slug маршрута, затем по совпадению url с путем запроса
func (s *usageService) resolveEndpoint(db *gorm.DB, obs UsageObservation) (*models.Endpoint, error) {
	if obs.EndpointSlug != "" {
		endpoint, err := s.endpointRepo.FindBySlug(db, obs.EndpointSlug, false)
		if err == nil {
			return endpoint, nil
		}
		if !errors.Is(err, repositories.ErrEndpointNotFound) {
			return nil, err
		}
	}
	return s.endpointRepo.FindByURLMatch(db, obs.Path)
}

func (s *usageService) fail(ctx context.Context, msg string, err error, obs UsageObservation) {
	s.metrics.IncUsageFailure()
	logger.CtxWarn(ctx, msg,
		"endpoint", obs.EndpointSlug,
		"path", obs.Path,
		"user_id", obs.UserID,
		"error", err,
	)
}

func (s *usageService) ListForUser(db *gorm.DB, userID string, query UsageQuery, page repositories.Page) (*PageResult[models.Usage], error) {
	query.UserID = userID
	query.Username = ""
	return s.List(db, query, page)
}

func (s *usageService) GetForUser(db *gorm.DB, userID, id string) (*models.Usage, error) {
	if err := checkID(id, repositories.ErrUsageNotFound); err != nil {
		return nil, err
	}
	usage, err := s.repo.FindForUser(db, id, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return usage, nil
}

func (s *usageService) CountForUser(db *gorm.DB, userID string, query UsageQuery) (*UsageCount, error) {
	if query.Days == 0 {
		query.Days = defaultUsageDays
	}
	query.UserID = userID
	query.Username = ""
	filter, err := s.filter(db, query)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.Count(db, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &UsageCount{Count: count, Since: *filter.Since, EndpointID: filter.EndpointID}, nil
}

func (s *usageService) List(db *gorm.DB, query UsageQuery, page repositories.Page) (*PageResult[models.Usage], error) {
	filter, err := s.filter(db, query)
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.List(db, filter, page)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newPage(items, total, page), nil
}

// filter переводит UsageQuery в фильтр репозитория; неизвестный эндпоинт - 404
func (s *usageService) filter(db *gorm.DB, query UsageQuery) (repositories.UsageFilter, error) {
	filter := repositories.UsageFilter{
		UserID:         query.UserID,
		Username:       strings.TrimSpace(query.Username),
		SubscriptionID: query.SubscriptionID,
		StatusCode:     query.StatusCode,
	}
	if filter.UserID != "" {
		if err := checkID(filter.UserID, repositories.ErrUserNotFound); err != nil {
			return filter, err
		}
	}
	if filter.SubscriptionID != "" {
		if err := checkID(filter.SubscriptionID, repositories.ErrSubscriptionNotFound); err != nil {
			return filter, err
		}
	}
	if query.Days < 0 {
		return filter, fieldError("days", "Ensure this value is greater than or equal to 1.")
	}
	if query.Days > 0 {
		since := s.now().AddDate(0, 0, -query.Days)
		filter.Since = &since
	}
	if ref := strings.TrimSpace(query.Endpoint); ref != "" {
		endpoint, err := s.endpointRepo.FindBySlug(db, ref, false)
		if errors.Is(err, repositories.ErrEndpointNotFound) && isUUID(ref) {
			endpoint, err = s.endpointRepo.FindByID(db, ref, false)
		}
		if err != nil {
			return filter, mapRepoError(err)
		}
		filter.EndpointID = endpoint.ID
	}
	return filter, nil
}

func (s *usageService) Get(db *gorm.DB, id string) (*models.Usage, error) {
	if err := checkID(id, repositories.ErrUsageNotFound); err != nil {
		return nil, err
	}
	usage, err := s.repo.FindByID(db, id, false)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return usage, nil
}

func (s *usageService) Delete(db *gorm.DB, id string) error {
	usage, err := s.Get(db, id)
	if err != nil {
		return err
	}
	if err := s.lifecycle.Delete(db, usage); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// bodyObject: невалидный или пустой JSON - {}, не-объект оборачивается в {"_": value}
func bodyObject(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON("{}")
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return datatypes.JSON("{}")
	}
	if _, ok := value.(map[string]interface{}); ok {
		return datatypes.JSON(raw)
	}
	wrapped, err := json.Marshal(map[string]interface{}{"_": value})
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(wrapped)
}

// queryObject берет первое значение каждого параметра
func queryObject(query url.Values) datatypes.JSON {
	out := make(map[string]string, len(query))
	for key, values := range query {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
