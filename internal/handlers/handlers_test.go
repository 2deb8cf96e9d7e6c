package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gurnoorsh/wealthwise/internal/errors"
	"github.com/gurnoorsh/wealthwise/internal/models"
	"github.com/gurnoorsh/wealthwise/internal/scheduler"
	"github.com/gurnoorsh/wealthwise/internal/services"
)

// ---- Mocks ----

type mockPortfolioService struct {
	portfolios  []models.PortfolioValuation
	err         error
	gotUser     uint
	gotInput    models.PositionInput
	gotCost     decimal.Decimal
	deletedID   uint
	createdName string
}

func (m *mockPortfolioService) ValuateUser(ctx context.Context, userID uint) (*models.UserValuation, error) {
	return &models.UserValuation{UserID: userID, Portfolios: m.portfolios}, m.err
}
func (m *mockPortfolioService) GetUserPortfoliosWithValuations(ctx context.Context, userID uint) ([]models.PortfolioValuation, error) {
	m.gotUser = userID
	return m.portfolios, m.err
}
func (m *mockPortfolioService) GetPortfolioValuation(ctx context.Context, userID, portfolioID uint) (*models.PortfolioValuation, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.portfolios {
		if m.portfolios[i].PortfolioID == portfolioID {
			return &m.portfolios[i], nil
		}
	}
	return nil, apperrors.ErrNotFound
}
func (m *mockPortfolioService) CreatePortfolio(ctx context.Context, userID uint, name string, description *string) (*models.Portfolio, error) {
	m.createdName = name
	return &models.Portfolio{ID: 10, UserID: userID, Name: name}, m.err
}
func (m *mockPortfolioService) AddPosition(ctx context.Context, userID, portfolioID uint, input models.PositionInput) (*models.Position, error) {
	m.gotInput = input
	return &models.Position{ID: 3, PortfolioID: portfolioID, Symbol: input.Symbol}, m.err
}
func (m *mockPortfolioService) UpdatePositionCostBasis(ctx context.Context, userID, portfolioID, positionID uint, costBasis decimal.Decimal) error {
	m.gotCost = costBasis
	return m.err
}
func (m *mockPortfolioService) DeletePortfolio(ctx context.Context, userID, portfolioID uint) error {
	m.deletedID = portfolioID
	return m.err
}

var _ services.PortfolioService = (*mockPortfolioService)(nil)

type mockPriceService struct {
	latest  *models.PriceObservation
	history []*models.PriceObservation
	err     error
	limit   int
}

func (m *mockPriceService) FetchAndStore(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.PriceObservation{Symbol: symbol, AssetClass: class, Price: decimal.NewFromInt(1)}, nil
}
func (m *mockPriceService) GetLatestPrice(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error) {
	return m.latest, m.err
}
func (m *mockPriceService) GetPriceHistory(ctx context.Context, symbol string, class models.AssetClass, limit int) ([]*models.PriceObservation, error) {
	m.limit = limit
	return m.history, m.err
}

var _ services.PriceService = (*mockPriceService)(nil)

type mockNetWorthService struct {
	snapshots []*models.NetWorthSnapshot
	limit     int
}

func (m *mockNetWorthService) CaptureSnapshot(ctx context.Context, userID uint) (*models.NetWorthSnapshot, bool, error) {
	return nil, false, nil
}
func (m *mockNetWorthService) ListSnapshots(ctx context.Context, userID uint, limit int) ([]*models.NetWorthSnapshot, error) {
	m.limit = limit
	return m.snapshots, nil
}
func (m *mockNetWorthService) CurrentNetWorth(ctx context.Context, userID uint) (*services.CurrentNetWorth, error) {
	last := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	return &services.CurrentNetWorth{UserValuation: models.UserValuation{UserID: userID}, LastUpdated: &last}, nil
}

var _ services.NetWorthService = (*mockNetWorthService)(nil)

type mockRunner struct {
	err error
}

func (m *mockRunner) RunNow(ctx context.Context) (*scheduler.RunReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &scheduler.RunReport{RunID: "run-1", PricesStored: 2, PriceFailures: []scheduler.ItemFailure{{Item: "ETH/crypto", Err: errors.New("timeout")}}}, nil
}
func (m *mockRunner) State() scheduler.State { return scheduler.Idle }

type fixture struct {
	portfolios *mockPortfolioService
	prices     *mockPriceService
	networth   *mockNetWorthService
	runner     *mockRunner
	healthErr  error
	handler    http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		portfolios: &mockPortfolioService{},
		prices:     &mockPriceService{},
		networth:   &mockNetWorthService{},
		runner:     &mockRunner{},
	}
	rt := &Router{
		Portfolios: NewPortfolioHandler(f.portfolios),
		NetWorth:   NewNetWorthHandler(f.networth),
		Prices:     NewPriceHandler(f.prices),
		Admin:      NewAdminHandler(f.runner),
		Health:     func(ctx context.Context) error { return f.healthErr },
	}
	f.handler = rt.Handler()
	return f
}

func (f *fixture) do(method, target, body string, user string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != "" {
		req.Header.Set(UserIDHeader, user)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

// ---- Tests ----

func TestPortfolios_RequireUser(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/portfolios", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/portfolios", "", "abc").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/networth/current", "", "0").Code)
}

func TestPortfolios_ListRendersUnknownPriceAsNull(t *testing.T) {
	f := newFixture()
	f.portfolios.portfolios = []models.PortfolioValuation{{
		PortfolioID: 1,
		Name:        "Main",
		Positions: []models.PositionValuation{{
			PositionID: 4, Symbol: "NEWCO", AssetClass: models.AssetClassStock,
			Quantity: decimal.NewFromInt(5), CostBasis: decimal.NewFromInt(20), CostBasisAvailable: true,
			ValuationResult: models.ValuationResult{PurchaseValue: decimal.NewFromInt(100)},
		}},
	}}

	rr := f.do(http.MethodGet, "/api/portfolios", "", "42")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint(42), f.portfolios.gotUser)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body, 1)
	positions := body[0]["positions"].([]interface{})
	pos := positions[0].(map[string]interface{})
	assert.Nil(t, pos["current_price"])
	assert.Nil(t, pos["current_value"])
	assert.Nil(t, pos["gain_loss"])
	assert.Equal(t, false, pos["price_available"])
	assert.Equal(t, "100", pos["purchase_value"])
	assert.NotContains(t, pos, "cost_basis_encrypted")
}

func TestPortfolios_GetNotFound(t *testing.T) {
	f := newFixture()
	rr := f.do(http.MethodGet, "/api/portfolios/99", "", "1")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPortfolios_Mutations(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodPost, "/api/portfolios", `{"name":"Brokerage"}`, "1")
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Brokerage", f.portfolios.createdName)

	rr = f.do(http.MethodPost, "/api/portfolios", `{bad`, "1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(http.MethodPost, "/api/portfolios/10/positions",
		`{"symbol":"btc","asset_class":"crypto","quantity":"0.5","cost_basis":"30000.10","acquired_at":"2024-01-15T00:00:00Z"}`, "1")
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "btc", f.portfolios.gotInput.Symbol)
	assert.Equal(t, "30000.1", f.portfolios.gotInput.CostBasis.String())

	rr = f.do(http.MethodPost, "/api/portfolios/10/positions", `{"quantity":"1"}`, "1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(http.MethodPut, "/api/portfolios/10/positions/3/cost-basis", `{"cost_basis":"12.5"}`, "1")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "12.5", f.portfolios.gotCost.String())

	rr = f.do(http.MethodDelete, "/api/portfolios/10", "", "1")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, uint(10), f.portfolios.deletedID)

	f.portfolios.err = &apperrors.ErrValidation{Field: "cost_basis", Message: "cannot be negative"}
	rr = f.do(http.MethodPut, "/api/portfolios/10/positions/3/cost-basis", `{"cost_basis":"-1"}`, "1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPrices_Latest(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodGet, "/api/prices/latest?symbol=newco&asset_class=stock", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "NEWCO", body["symbol"])
	assert.Nil(t, body["price"])
	assert.Equal(t, false, body["price_available"])

	f.prices.latest = &models.PriceObservation{Symbol: "BTC", AssetClass: models.AssetClassCrypto, Price: decimal.RequireFromString("64000.5")}
	rr = f.do(http.MethodGet, "/api/prices/latest?symbol=BTC&asset_class=crypto", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"price":"64000.5"`)

	rr = f.do(http.MethodGet, "/api/prices/latest?asset_class=crypto", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPrices_HistoryAndRefresh(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodGet, "/api/prices/history?symbol=AAPL&asset_class=stock&limit=7", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 7, f.prices.limit)
	assert.Equal(t, "[]\n", rr.Body.String())

	rr = f.do(http.MethodGet, "/api/prices/history?symbol=AAPL&asset_class=stock&limit=x", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(http.MethodPost, "/api/prices/refresh?symbol=ETH&asset_class=crypto", "", "")
	assert.Equal(t, http.StatusCreated, rr.Code)

	f.prices.err = apperrors.NewTransportError("coingecko", "ETH", errors.New("timeout"))
	rr = f.do(http.MethodPost, "/api/prices/refresh?symbol=ETH&asset_class=crypto", "", "")
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	f.prices.err = apperrors.NewNoDataError("feed", "T-BILL", nil)
	rr = f.do(http.MethodPost, "/api/prices/refresh?symbol=T-BILL&asset_class=bond", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = f.do(http.MethodGet, "/api/prices/refresh?symbol=ETH&asset_class=crypto", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestNetWorth(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodGet, "/api/networth/current", "", "3")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"last_updated":"2025-06-01T02:00:00Z"`)

	rr = f.do(http.MethodGet, "/api/networth/history", "", "3")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, f.networth.limit)
	assert.Equal(t, "[]\n", rr.Body.String())

	f.networth.snapshots = []*models.NetWorthSnapshot{{UserID: 3, TotalValue: decimal.NewFromInt(10)}}
	rr = f.do(http.MethodGet, "/api/networth/history?limit=90", "", "3")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 90, f.networth.limit)
	assert.Contains(t, rr.Body.String(), `"total_value":"10"`)
}

func TestAdmin_RunSnapshots(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodPost, "/api/admin/snapshots/run", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"run_id":"run-1"`)
	assert.Contains(t, rr.Body.String(), `{"item":"ETH/crypto","error":"timeout"}`)

	f.runner.err = scheduler.ErrRunInProgress
	rr = f.do(http.MethodPost, "/api/admin/snapshots/run", "", "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = f.do(http.MethodGet, "/api/admin/snapshots/status", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"state":"idle"`)
}

func TestHealthAndCORS(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	f.healthErr = errors.New("connection refused")
	rr = f.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = f.do(http.MethodOptions, "/api/portfolios", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), UserIDHeader)
}
