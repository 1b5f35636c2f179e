package service_test

import (
	"errors"
	"testing"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/testutil"
)

// TestPortfolioService_CreatePortfolio tests portfolio creation and the
// baseline metric it seeds.
func TestPortfolioService_CreatePortfolio(t *testing.T) {
	t.Run("creates a portfolio with its baseline metric", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)
		metricSvc := testutil.NewTestMetricService(t, db)

		user := testutil.NewUser().Build(t, db)

		// Execute
		portfolio, err := svc.CreatePortfolio(user.ID, "Growth", "long-term picks", true)

		// Assert
		if err != nil {
			t.Fatalf("CreatePortfolio() returned unexpected error: %v", err)
		}
		if portfolio.Name != "Growth" || !portfolio.IsPublic {
			t.Errorf("Expected public portfolio named Growth, got %+v", portfolio)
		}

		// The baseline row exists before any engine pass has run
		metric, err := metricSvc.GetCurrentMetric(portfolio.ID)
		if err != nil {
			t.Fatalf("GetCurrentMetric() returned unexpected error: %v", err)
		}
		if metric.PortfolioValue != 0 || metric.RiskCategory != model.RiskConservative {
			t.Errorf("Expected all-zero Conservative baseline, got %+v", metric)
		}
	})

	t.Run("rejects an unknown owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		_, err := svc.CreatePortfolio(testutil.MakeID(), "Orphan", "", false)
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			t.Errorf("Expected ErrUserNotFound, got %v", err)
		}
	})
}

// TestPortfolioService_GetPortfolios tests the list filters backing the API
// and the leaderboard universe.
func TestPortfolioService_GetPortfolios(t *testing.T) {
	// Setup
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestPortfolioService(t, db)

	alice := testutil.NewUser().Build(t, db)
	bob := testutil.NewUser().Build(t, db)
	alicePublic := testutil.NewPortfolio(alice.ID).Public().Build(t, db)
	alicePrivate := testutil.NewPortfolio(alice.ID).Build(t, db)
	testutil.NewPortfolio(bob.ID).Public().Build(t, db)

	t.Run("no filter returns everything", func(t *testing.T) {
		portfolios, err := svc.GetPortfolios(model.PortfolioFilter{})
		if err != nil {
			t.Fatalf("GetPortfolios() returned unexpected error: %v", err)
		}
		if len(portfolios) != 3 {
			t.Errorf("Expected 3 portfolios, got %d", len(portfolios))
		}
	})

	t.Run("public filter drops private portfolios", func(t *testing.T) {
		portfolios, err := svc.GetPortfolios(model.PortfolioFilter{PublicOnly: true})
		if err != nil {
			t.Fatalf("GetPortfolios() returned unexpected error: %v", err)
		}
		if len(portfolios) != 2 {
			t.Errorf("Expected 2 public portfolios, got %d", len(portfolios))
		}
		for _, p := range portfolios {
			if p.ID == alicePrivate.ID {
				t.Error("Private portfolio leaked through the public filter")
			}
		}
	})

	t.Run("user filter scopes to the owner", func(t *testing.T) {
		portfolios, err := svc.GetPortfolios(model.PortfolioFilter{UserID: alice.ID})
		if err != nil {
			t.Fatalf("GetPortfolios() returned unexpected error: %v", err)
		}
		if len(portfolios) != 2 {
			t.Errorf("Expected 2 portfolios for owner, got %d", len(portfolios))
		}
	})

	t.Run("filters combine", func(t *testing.T) {
		portfolios, err := svc.GetPortfolios(model.PortfolioFilter{PublicOnly: true, UserID: alice.ID})
		if err != nil {
			t.Fatalf("GetPortfolios() returned unexpected error: %v", err)
		}
		if len(portfolios) != 1 || portfolios[0].ID != alicePublic.ID {
			t.Errorf("Expected only the owner's public portfolio, got %+v", portfolios)
		}
	})
}

// TestPortfolioService_GetActivities covers the ledger read path.
func TestPortfolioService_GetActivities(t *testing.T) {
	t.Run("unknown portfolio returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		_, err := svc.GetActivities(testutil.MakeID())
		if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
			t.Errorf("Expected ErrPortfolioNotFound, got %v", err)
		}
	})

	t.Run("empty ledger yields an empty list", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		user := testutil.NewUser().Build(t, db)
		portfolio := testutil.NewPortfolio(user.ID).Build(t, db)

		activities, err := svc.GetActivities(portfolio.ID)
		if err != nil {
			t.Fatalf("GetActivities() returned unexpected error: %v", err)
		}
		if len(activities) != 0 {
			t.Errorf("Expected empty ledger, got %d entries", len(activities))
		}
	})
}
