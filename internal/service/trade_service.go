package service

import (
	"fmt"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/repository"
)

// TradeService classifies closed trades as best/worst per portfolio or per
// user and keeps the exclusive flags consistent.
type TradeService struct {
	tradeRepo     *repository.TradeRepository
	portfolioRepo *repository.PortfolioRepository
	userRepo      *repository.UserRepository
}

// NewTradeService creates a new TradeService.
func NewTradeService(
	tradeRepo *repository.TradeRepository,
	portfolioRepo *repository.PortfolioRepository,
	userRepo *repository.UserRepository,
) *TradeService {
	return &TradeService{
		tradeRepo:     tradeRepo,
		portfolioRepo: portfolioRepo,
		userRepo:      userRepo,
	}
}

// RankTrades recomputes the best and worst closed trade for a scope: one
// portfolio, or every portfolio owned by one user.
//
// Stale flags are cleared before the new winners are set, in one transaction,
// so at most one row per scope carries each flag and old winners are demoted
// rather than left stale. An empty closed-trade scope returns
// apperrors.ErrNoTradesFound: "no data" is distinct from a 0% trade.
//
// Tie-breaks differ by scope on purpose. Best trade has no secondary rule at
// either scope (first found wins). Worst trade at portfolio scope also takes
// the first found; at user scope the tied loss with the most recent exit date
// wins, so the newest loss takes display priority.
func (s *TradeService) RankTrades(scope model.TradeScope) (model.RankedTrades, error) {
	portfolioIDs, err := s.resolveScope(scope)
	if err != nil {
		return model.RankedTrades{}, err
	}

	trades, err := s.tradeRepo.GetClosedTradesOnPortfolioIDs(portfolioIDs)
	if err != nil {
		return model.RankedTrades{}, err
	}
	if len(trades) == 0 {
		return model.RankedTrades{}, apperrors.ErrNoTradesFound
	}

	userScoped := scope.UserID != ""
	best := trades[0]
	worst := trades[0]

	for _, t := range trades[1:] {
		if t.TotalReturn > best.TotalReturn {
			best = t
		}

		if t.TotalReturn < worst.TotalReturn {
			worst = t
			continue
		}
		if userScoped && t.TotalReturn == worst.TotalReturn && t.ExitDate.After(*worst.ExitDate) {
			worst = t
		}
	}

	if err := s.tradeRepo.ReassignFlags(portfolioIDs, best.ID, worst.ID); err != nil {
		return model.RankedTrades{}, err
	}

	best.IsBestTrade = true
	best.IsWorstTrade = best.ID == worst.ID
	worst.IsWorstTrade = true
	worst.IsBestTrade = best.ID == worst.ID

	return model.RankedTrades{Best: best, Worst: worst}, nil
}

// resolveScope maps a TradeScope to the portfolio IDs it covers, validating
// that the portfolio or user actually exists.
func (s *TradeService) resolveScope(scope model.TradeScope) ([]string, error) {
	switch {
	case scope.PortfolioID != "" && scope.UserID == "":
		if _, err := s.portfolioRepo.GetPortfolioOnID(scope.PortfolioID); err != nil {
			return nil, err
		}
		return []string{scope.PortfolioID}, nil

	case scope.UserID != "" && scope.PortfolioID == "":
		if _, err := s.userRepo.GetUserOnID(scope.UserID); err != nil {
			return nil, err
		}
		ids, err := s.portfolioRepo.GetPortfolioIDsOnUserID(scope.UserID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, apperrors.ErrNoTradesFound
		}
		return ids, nil

	default:
		return nil, fmt.Errorf("%w: scope must name exactly one of portfolio or user", apperrors.ErrEmptyID)
	}
}
