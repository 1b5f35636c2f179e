package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/repository"
)

// ActivityInput carries one user action against a portfolio position.
type ActivityInput struct {
	PortfolioID   string
	StockID       string
	ActionType    string
	Quantity      float64
	PricePerShare float64
	Date          time.Time
}

// ActivityService records buy/sell/add actions: it appends the immutable
// ledger entry and applies the position-level side effects (quantity and
// average-cost updates, trade open/close, weight refresh).
type ActivityService struct {
	activityRepo  *repository.ActivityRepository
	snapshotRepo  *repository.SnapshotRepository
	tradeRepo     *repository.TradeRepository
	portfolioRepo *repository.PortfolioRepository
	stockRepo     *repository.StockRepository
	tradeService  *TradeService
}

// NewActivityService creates a new ActivityService.
func NewActivityService(
	activityRepo *repository.ActivityRepository,
	snapshotRepo *repository.SnapshotRepository,
	tradeRepo *repository.TradeRepository,
	portfolioRepo *repository.PortfolioRepository,
	stockRepo *repository.StockRepository,
	tradeService *TradeService,
) *ActivityService {
	return &ActivityService{
		activityRepo:  activityRepo,
		snapshotRepo:  snapshotRepo,
		tradeRepo:     tradeRepo,
		portfolioRepo: portfolioRepo,
		stockRepo:     stockRepo,
		tradeService:  tradeService,
	}
}

// RecordActivity applies one action on behalf of callerUserID and appends the
// ledger entry. The caller identity is an explicit parameter: there is no
// ambient session state, and a portfolio owned by someone else behaves exactly
// like a missing one (apperrors.ErrPortfolioNotFound).
//
// The action date must not precede the pair's latest snapshot: rows after it
// were carried forward from that history, and rewriting it would leave them
// permanently disagreeing with their source (apperrors.ErrBackdatedActivity).
//
// BUY and ADD fold the new shares into the position at a weighted average
// cost and open a trade when the position goes from flat to held. SELL
// reduces quantity (apperrors.ErrInsufficientQuantity when the position can't
// cover it) and, on full liquidation, closes the open trade at the sale price
// and re-ranks the portfolio's best/worst trades.
//
// The ledger row records the position's weight before and after the action.
// The "after" weight is renormalized over the portfolio's same-date cost
// basis; sibling rows keep their stored weights until the next engine run.
func (s *ActivityService) RecordActivity(callerUserID string, input ActivityInput) (model.InvestmentActivity, error) {
	if err := s.validate(callerUserID, input); err != nil {
		return model.InvestmentActivity{}, err
	}

	date := repository.DateOnly(input.Date)
	now := time.Now().UTC()

	later, err := s.snapshotRepo.HasLaterSnapshot(input.PortfolioID, input.StockID, date)
	if err != nil {
		return model.InvestmentActivity{}, err
	}
	if later {
		return model.InvestmentActivity{}, fmt.Errorf("%w: %s", apperrors.ErrBackdatedActivity, repository.FormatDate(date))
	}

	current, onDate, err := s.currentPosition(input.PortfolioID, input.StockID, date)
	if err != nil {
		return model.InvestmentActivity{}, err
	}
	oldWeight := current.PositionWeight

	switch input.ActionType {
	case model.ActionBuy, model.ActionAdd:
		err = s.applyBuy(&current, onDate, input, date, now)
	case model.ActionSell:
		err = s.applySell(&current, onDate, input, date, now)
	}
	if err != nil {
		return model.InvestmentActivity{}, err
	}

	newWeight, err := s.refreshWeight(input.PortfolioID, input.StockID, date)
	if err != nil {
		return model.InvestmentActivity{}, err
	}

	activity := model.InvestmentActivity{
		ID:                uuid.NewString(),
		PortfolioID:       input.PortfolioID,
		StockID:           input.StockID,
		ActionType:        input.ActionType,
		Amount:            round2(input.Quantity * input.PricePerShare),
		StockQuantity:     input.Quantity,
		Date:              input.Date,
		OldPositionWeight: oldWeight,
		NewPositionWeight: newWeight,
	}
	if err := s.activityRepo.InsertActivity(activity); err != nil {
		return model.InvestmentActivity{}, err
	}

	return activity, nil
}

func (s *ActivityService) validate(callerUserID string, input ActivityInput) error {
	switch input.ActionType {
	case model.ActionBuy, model.ActionSell, model.ActionAdd:
	default:
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownActionType, input.ActionType)
	}
	if input.Quantity <= 0 {
		return apperrors.ErrNegativeQuantity
	}

	portfolio, err := s.portfolioRepo.GetPortfolioOnID(input.PortfolioID)
	if err != nil {
		return err
	}
	if portfolio.UserID != callerUserID {
		return apperrors.ErrPortfolioNotFound
	}

	_, err = s.stockRepo.GetStockOnID(input.StockID)
	return err
}

// currentPosition loads the position state the action applies to: the
// same-date snapshot when one exists, otherwise the latest earlier one, and
// a zero-valued position when the pair has no history at all. onDate reports
// whether the returned row lives on the action date (update vs insert later).
func (s *ActivityService) currentPosition(portfolioID, stockID string, date time.Time) (model.PositionSnapshot, bool, error) {
	snap, err := s.snapshotRepo.GetPairOnDate(portfolioID, stockID, date)
	if err == nil {
		return snap, true, nil
	}
	if !errors.Is(err, apperrors.ErrSnapshotNotFound) {
		return model.PositionSnapshot{}, false, err
	}

	snap, err = s.snapshotRepo.GetLatestBefore(portfolioID, stockID, date)
	if err == nil {
		return snap, false, nil
	}
	if !errors.Is(err, apperrors.ErrSnapshotNotFound) {
		return model.PositionSnapshot{}, false, err
	}

	return model.PositionSnapshot{PortfolioID: portfolioID, StockID: stockID}, false, nil
}

func (s *ActivityService) applyBuy(current *model.PositionSnapshot, onDate bool, input ActivityInput, date, now time.Time) error {
	oldQty := current.Quantity
	newQty := oldQty + input.Quantity
	newAvg := round2((oldQty*current.AverageCost + input.Quantity*input.PricePerShare) / newQty)

	if err := s.writePosition(current, onDate, newQty, newAvg, input, date, now); err != nil {
		return err
	}

	// A buy into a flat position starts a new trade cycle.
	if oldQty > 0 {
		return nil
	}
	_, err := s.tradeRepo.GetOpenTrade(input.PortfolioID, input.StockID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperrors.ErrTradeNotFound) {
		return err
	}

	return s.tradeRepo.CreateTrade(model.TradeMetric{
		ID:          uuid.NewString(),
		PortfolioID: input.PortfolioID,
		StockID:     input.StockID,
		EntryDate:   date,
		AverageCost: newAvg,
		Quantity:    input.Quantity,
	})
}

func (s *ActivityService) applySell(current *model.PositionSnapshot, onDate bool, input ActivityInput, date, now time.Time) error {
	if current.Quantity < input.Quantity {
		return fmt.Errorf("%w: have %.4f, sell %.4f", apperrors.ErrInsufficientQuantity, current.Quantity, input.Quantity)
	}

	avgCost := current.AverageCost
	newQty := current.Quantity - input.Quantity

	if err := s.writePosition(current, onDate, newQty, avgCost, input, date, now); err != nil {
		return err
	}

	if newQty > 0 {
		return nil
	}
	return s.closeTrade(input, date, avgCost)
}

// closeTrade settles the open trade on full liquidation and re-ranks the
// portfolio's flags. A missing open trade is tolerated (positions seeded
// before trade tracking existed); a ranking failure is logged, not returned,
// since the sale itself already committed.
func (s *ActivityService) closeTrade(input ActivityInput, date time.Time, avgCost float64) error {
	trade, err := s.tradeRepo.GetOpenTrade(input.PortfolioID, input.StockID)
	if errors.Is(err, apperrors.ErrTradeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	totalReturn := positionReturn(input.PricePerShare, avgCost)
	if err := s.tradeRepo.CloseTrade(trade.ID, date, input.PricePerShare, totalReturn); err != nil {
		return err
	}

	_, err = s.tradeService.RankTrades(model.TradeScope{PortfolioID: input.PortfolioID})
	if err != nil && !errors.Is(err, apperrors.ErrNoTradesFound) {
		log.Printf("trade ranking failed for portfolio %s: %v", input.PortfolioID, err)
	}
	return nil
}

// writePosition persists the post-action quantity and cost: updating the
// same-date row when one exists, otherwise inserting a fresh row on the
// action date valued at the transaction price.
func (s *ActivityService) writePosition(current *model.PositionSnapshot, onDate bool, newQty, newAvg float64, input ActivityInput, date, now time.Time) error {
	current.Quantity = newQty
	current.AverageCost = newAvg
	current.LastTransactionType = input.ActionType
	current.LastTransactionDate = date
	current.LastUpdated = now

	if onDate {
		return s.snapshotRepo.UpdatePosition(current.ID, newQty, newAvg, input.ActionType, date, now)
	}

	current.ID = uuid.NewString()
	current.Date = date
	current.CurrentValue = input.PricePerShare
	current.TotalReturn = positionReturn(input.PricePerShare, newAvg)
	return s.snapshotRepo.Insert(*current)
}

// refreshWeight renormalizes the acted-on position's weight over the
// portfolio's same-date cost basis and returns it for the ledger entry.
func (s *ActivityService) refreshWeight(portfolioID, stockID string, date time.Time) (float64, error) {
	snapshots, err := s.snapshotRepo.GetOnDate(portfolioID, date)
	if err != nil {
		return 0, err
	}

	var totalCostBasis float64
	for _, snap := range snapshots {
		totalCostBasis += snap.CostBasis()
	}

	for _, snap := range snapshots {
		if snap.StockID != stockID {
			continue
		}
		weight := 0.0
		if totalCostBasis > 0 {
			weight = round4(snap.CostBasis() / totalCostBasis)
		}
		if err := s.snapshotRepo.UpdateWeight(snap.ID, weight); err != nil {
			return 0, err
		}
		return weight, nil
	}

	return 0, apperrors.ErrSnapshotNotFound
}
