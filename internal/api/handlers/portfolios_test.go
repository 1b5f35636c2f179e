package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/testutil"
)

func newPortfolioHandler(t *testing.T) (*PortfolioHandler, *portfolioFixture) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	handler := NewPortfolioHandler(
		testutil.NewTestPortfolioService(t, db),
		testutil.NewTestActivityService(t, db),
	)

	user := testutil.NewUser().Build(t, db)
	portfolio := testutil.NewPortfolio(user.ID).Public().Build(t, db)
	stock := testutil.NewStock().Build(t, db)

	return handler, &portfolioFixture{user: user, portfolio: portfolio, stock: stock}
}

type portfolioFixture struct {
	user      model.User
	portfolio model.Portfolio
	stock     model.Stock
}

// withUUID attaches a chi route context carrying the uuid URL parameter.
func withUUID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("uuid", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestPortfolioHandler_Portfolio(t *testing.T) {
	t.Run("returns the portfolio", func(t *testing.T) {
		handler, fx := newPortfolioHandler(t)

		req := withUUID(httptest.NewRequest(http.MethodGet, "/api/portfolio/"+fx.portfolio.ID, nil), fx.portfolio.ID)
		w := httptest.NewRecorder()

		handler.Portfolio(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response model.Portfolio
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.ID != fx.portfolio.ID {
			t.Errorf("Expected portfolio %s, got %s", fx.portfolio.ID, response.ID)
		}
	})

	t.Run("returns 404 for an unknown portfolio", func(t *testing.T) {
		handler, _ := newPortfolioHandler(t)

		unknown := testutil.MakeID()
		req := withUUID(httptest.NewRequest(http.MethodGet, "/api/portfolio/"+unknown, nil), unknown)
		w := httptest.NewRecorder()

		handler.Portfolio(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestPortfolioHandler_Portfolios(t *testing.T) {
	t.Run("public filter excludes private portfolios", func(t *testing.T) {
		handler, fx := newPortfolioHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/portfolio?public=true&user="+fx.user.ID, nil)
		w := httptest.NewRecorder()

		handler.Portfolios(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response []model.Portfolio
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if len(response) != 1 || response[0].ID != fx.portfolio.ID {
			t.Errorf("Expected only the public portfolio, got %+v", response)
		}
	})
}

func TestPortfolioHandler_CreatePortfolio(t *testing.T) {
	t.Run("creates a portfolio", func(t *testing.T) {
		handler, fx := newPortfolioHandler(t)

		body := `{"userId": "` + fx.user.ID + `", "name": "Dividend picks", "isPublic": true}`
		req := httptest.NewRequest(http.MethodPost, "/api/portfolio", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.CreatePortfolio(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var response model.Portfolio
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.Name != "Dividend picks" || !response.IsPublic {
			t.Errorf("Expected created public portfolio, got %+v", response)
		}
	})

	t.Run("rejects a missing name", func(t *testing.T) {
		handler, fx := newPortfolioHandler(t)

		body := `{"userId": "` + fx.user.ID + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/portfolio", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.CreatePortfolio(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 404 for an unknown owner", func(t *testing.T) {
		handler, _ := newPortfolioHandler(t)

		body := `{"userId": "` + testutil.MakeID() + `", "name": "Orphan"}`
		req := httptest.NewRequest(http.MethodPost, "/api/portfolio", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.CreatePortfolio(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestPortfolioHandler_RecordActivity(t *testing.T) {
	t.Run("records a buy", func(t *testing.T) {
		handler, fx := newPortfolioHandler(t)

		body := `{
			"userId": "` + fx.user.ID + `",
			"stockId": "` + fx.stock.ID + `",
			"actionType": "BUY",
			"quantity": 10,
			"pricePerShare": 5,
			"date": "2025-03-03"
		}`
		req := withUUID(httptest.NewRequest(http.MethodPost, "/api/portfolio/"+fx.portfolio.ID+"/activities", strings.NewReader(body)), fx.portfolio.ID)
		w := httptest.NewRecorder()

		handler.RecordActivity(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var response model.InvestmentActivity
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.Amount != 50 || response.ActionType != model.ActionBuy {
			t.Errorf("Expected BUY of amount 50, got %+v", response)
		}
	})

	t.Run("rejects an unknown action type", func(t *testing.T) {
		handler, fx := newPortfolioHandler(t)

		body := `{
			"userId": "` + fx.user.ID + `",
			"stockId": "` + fx.stock.ID + `",
			"actionType": "SHORT",
			"quantity": 10,
			"pricePerShare": 5
		}`
		req := withUUID(httptest.NewRequest(http.MethodPost, "/api/portfolio/"+fx.portfolio.ID+"/activities", strings.NewReader(body)), fx.portfolio.ID)
		w := httptest.NewRecorder()

		handler.RecordActivity(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("rejects a malformed date", func(t *testing.T) {
		handler, fx := newPortfolioHandler(t)

		body := `{
			"userId": "` + fx.user.ID + `",
			"stockId": "` + fx.stock.ID + `",
			"actionType": "BUY",
			"quantity": 10,
			"pricePerShare": 5,
			"date": "03/03/2025"
		}`
		req := withUUID(httptest.NewRequest(http.MethodPost, "/api/portfolio/"+fx.portfolio.ID+"/activities", strings.NewReader(body)), fx.portfolio.ID)
		w := httptest.NewRecorder()

		handler.RecordActivity(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}
