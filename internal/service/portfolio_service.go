package service

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/repository"
)

// PortfolioService handles portfolio and user lifecycle plus the read side of
// the snapshot and activity history.
type PortfolioService struct {
	portfolioRepo *repository.PortfolioRepository
	userRepo      *repository.UserRepository
	snapshotRepo  *repository.SnapshotRepository
	activityRepo  *repository.ActivityRepository
	metricService *MetricService
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(
	portfolioRepo *repository.PortfolioRepository,
	userRepo *repository.UserRepository,
	snapshotRepo *repository.SnapshotRepository,
	activityRepo *repository.ActivityRepository,
	metricService *MetricService,
) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
		userRepo:      userRepo,
		snapshotRepo:  snapshotRepo,
		activityRepo:  activityRepo,
		metricService: metricService,
	}
}

// CreatePortfolio creates a portfolio for an existing user and writes its
// all-zero baseline metric row, so metric reads never face an empty history.
// A baseline write failure is logged, not returned: the next aggregation pass
// writes the row anyway.
func (s *PortfolioService) CreatePortfolio(userID, name, description string, isPublic bool) (model.Portfolio, error) {
	if _, err := s.userRepo.GetUserOnID(userID); err != nil {
		return model.Portfolio{}, err
	}

	portfolio := model.Portfolio{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		IsPublic:    isPublic,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.portfolioRepo.CreatePortfolio(portfolio); err != nil {
		return model.Portfolio{}, err
	}

	if _, err := s.metricService.CreateBaselineMetric(portfolio.ID); err != nil {
		log.Printf("baseline metric write failed for portfolio %s: %v", portfolio.ID, err)
	}

	return portfolio, nil
}

// CreateUser creates a new user account.
func (s *PortfolioService) CreateUser(username, displayName string) (model.User, error) {
	user := model.User{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// GetPortfolio retrieves a single portfolio by ID.
func (s *PortfolioService) GetPortfolio(portfolioID string) (model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolioOnID(portfolioID)
}

// GetPortfolios lists portfolios matching the filter.
func (s *PortfolioService) GetPortfolios(filter model.PortfolioFilter) ([]model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolios(filter)
}

// GetSnapshotsOnDate returns a portfolio's position snapshots for one date.
func (s *PortfolioService) GetSnapshotsOnDate(portfolioID string, date time.Time) ([]model.PositionSnapshot, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		return nil, err
	}
	return s.snapshotRepo.GetOnDate(portfolioID, repository.DateOnly(date))
}

// GetActivities returns a portfolio's activity ledger, oldest first.
func (s *PortfolioService) GetActivities(portfolioID string) ([]model.InvestmentActivity, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		return nil, err
	}
	return s.activityRepo.GetActivitiesOnPortfolioID(portfolioID)
}
