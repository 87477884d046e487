package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"rifa/application"
	"rifa/config"
	"rifa/domain/entities"
	"rifa/domain/interfaces"
	"rifa/domain/testhelpers"
	"rifa/infrastructure"

	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	router   *gin.Engine
	sessions *application.SessionManager
}

func newTestServer(t *testing.T, ledger interfaces.PurchaseLedgerRepository) *testServer {
	t.Helper()

	cfg := config.NewTestConfig()
	timings := application.TimingsFromConfig(cfg)
	sessions := application.NewSessionManager(
		application.NewSessionFactory(cfg, infrastructure.NewNoopEventPublisher()),
		timings,
	)
	t.Cleanup(sessions.CloseAll)

	return &testServer{
		router:   NewRouter(NewHandler(sessions, ledger)),
		sessions: sessions,
	}
}

func (s *testServer) do(t *testing.T, method, path, session string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	got := decode[errorResponse](t, rec)
	assert.Equal(t, code, got.Error)
	assert.NotEmpty(t, got.Message)
}

func TestRouter_RequiresSession(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodGet, "/api/raffle", "", nil)
	assertError(t, rec, http.StatusBadRequest, codeMissingSession)
	assert.Zero(t, srv.sessions.Count())
}

func TestRouter_Raffle(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/api/raffle", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	raffle := decode[RaffleResponse](t, rec)
	assert.Equal(t, 100, raffle.TotalNumbers)
	assert.Equal(t, 1, raffle.Pages)
	assert.Equal(t, 7, raffle.Purchased)
	assert.Equal(t, 93, raffle.Available)
	assert.Zero(t, raffle.Selected)

	t.Run("numbers page", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/raffle/numbers?page=0", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		page := decode[NumbersResponse](t, rec)
		assert.Equal(t, 1, page.Page.Start)
		assert.Equal(t, 100, page.Page.End)
		assert.Len(t, page.Numbers, 100)
		assert.Equal(t, entities.NumberStatusPurchased, page.Numbers[2].Status)
		assert.Equal(t, 7, page.Stats.Purchased)

		assertError(t, srv.do(t, http.MethodGet, "/api/raffle/numbers?page=1", "alice", nil), http.StatusNotFound, codeNotFound)
		assertError(t, srv.do(t, http.MethodGet, "/api/raffle/numbers?page=x", "alice", nil), http.StatusBadRequest, codeInvalidRequest)
	})

	t.Run("update config", func(t *testing.T) {
		rec := srv.do(t, http.MethodPatch, "/api/raffle/config", "alice", map[string]any{
			"price_per_number": "2.50",
			"total_numbers":    250,
			"title":            "PlayStation 5",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		updated := decode[RaffleResponse](t, rec)
		assert.Equal(t, "PlayStation 5", updated.Title)
		assert.Equal(t, 250, updated.TotalNumbers)
		assert.Equal(t, 3, updated.Pages)
		price, err := decimal.Parse(updated.PricePerNumber)
		require.NoError(t, err)
		assert.Zero(t, price.Cmp(decimal.MustNew(250, 2)))

		assertError(t, srv.do(t, http.MethodPatch, "/api/raffle/config", "alice", map[string]any{"total_numbers": 0}),
			http.StatusUnprocessableEntity, codeInvalidConfig)
		assertError(t, srv.do(t, http.MethodPatch, "/api/raffle/config", "alice", map[string]any{"total_numbers": entities.MaxTotalNumbers + 1}),
			http.StatusUnprocessableEntity, codeInvalidConfig)
		assertError(t, srv.do(t, http.MethodPatch, "/api/raffle/config", "alice", map[string]any{"price_per_number": "dez"}),
			http.StatusUnprocessableEntity, codeInvalidConfig)
		assertError(t, srv.do(t, http.MethodPatch, "/api/raffle/config", "alice", map[string]any{}),
			http.StatusBadRequest, codeInvalidRequest)
	})
}

func TestRouter_Selection(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/selection/toggle", "bob", NumberRequest{Number: 10})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{10}, decode[SelectionResponse](t, rec).Numbers)

	rec = srv.do(t, http.MethodPost, "/api/selection/manual", "bob", NumberRequest{Number: 42})
	require.Equal(t, http.StatusOK, rec.Code)
	sel := decode[SelectionResponse](t, rec)
	assert.Equal(t, []int{10, 42}, sel.Numbers)
	assert.Equal(t, 2, sel.Count)

	assertError(t, srv.do(t, http.MethodPost, "/api/selection/toggle", "bob", NumberRequest{Number: 3}),
		http.StatusConflict, codeNumberTaken)
	assertError(t, srv.do(t, http.MethodPost, "/api/selection/manual", "bob", NumberRequest{Number: 101}),
		http.StatusUnprocessableEntity, codeNumberOutOfRange)
	assertError(t, srv.do(t, http.MethodPost, "/api/selection/random", "bob", RandomRequest{Count: 0}),
		http.StatusUnprocessableEntity, codeInvalidRequest)

	rec = srv.do(t, http.MethodPost, "/api/selection/random", "bob", RandomRequest{Count: 5})
	require.Equal(t, http.StatusOK, rec.Code)
	random := decode[RandomResponse](t, rec)
	assert.Len(t, random.Added, 5)
	assert.Equal(t, 7, random.Selection.Count)

	rec = srv.do(t, http.MethodDelete, "/api/selection", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[SelectionResponse](t, rec).Numbers)

	// another client has its own selection
	rec = srv.do(t, http.MethodGet, "/api/selection", "carol", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[SelectionResponse](t, rec).Numbers)
	assert.Equal(t, 2, srv.sessions.Count())
}

func TestRouter_PurchaseLifecycle(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	const session = "dave"

	assertError(t, srv.do(t, http.MethodPost, "/api/purchases", session, nil), http.StatusUnprocessableEntity, codeEmptySelection)
	assertError(t, srv.do(t, http.MethodGet, "/api/purchases/current", session, nil), http.StatusNotFound, codeNoPendingPurchase)
	assertError(t, srv.do(t, http.MethodPost, "/api/purchases/current/payment", session, nil), http.StatusNotFound, codeNoPendingPurchase)

	srv.do(t, http.MethodPost, "/api/selection/toggle", session, NumberRequest{Number: 4})
	srv.do(t, http.MethodPost, "/api/selection/toggle", session, NumberRequest{Number: 8})

	rec := srv.do(t, http.MethodPost, "/api/purchases", session, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	purchase := decode[PurchaseResponse](t, rec)
	assert.Equal(t, []int{4, 8}, purchase.Numbers)
	assert.Equal(t, string(entities.PurchaseStatusPending), purchase.Status)
	assert.NotEmpty(t, purchase.PixCode)

	assertError(t, srv.do(t, http.MethodPost, "/api/purchases", session, nil), http.StatusConflict, codePurchasePending)
	assertError(t, srv.do(t, http.MethodPost, "/api/purchases/current/confirm", session, nil), http.StatusConflict, codePaymentNotPending)

	rec = srv.do(t, http.MethodPost, "/api/purchases/current/payment", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	current := decode[CurrentPurchaseResponse](t, rec)
	assert.Equal(t, application.PaymentStatePending, current.Payment.State)
	assert.NotNil(t, current.Payment.Deadline)
	assert.Equal(t, purchase.ID, current.Purchase.ID)

	assertError(t, srv.do(t, http.MethodPost, "/api/purchases/current/payment", session, nil), http.StatusConflict, codePurchasePending)

	rec = srv.do(t, http.MethodPost, "/api/purchases/current/confirm", session, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, application.PaymentStateProcessing, decode[CurrentPurchaseResponse](t, rec).Payment.State)

	assertError(t, srv.do(t, http.MethodDelete, "/api/purchases/current", session, nil), http.StatusConflict, codePaymentNotPending)

	assert.Eventually(t, func() bool {
		rec := srv.do(t, http.MethodGet, "/api/purchases", session, nil)
		return rec.Code == http.StatusOK && decode[HistoryResponse](t, rec).Numbers == 2
	}, 2*time.Second, 10*time.Millisecond)

	history := decode[HistoryResponse](t, srv.do(t, http.MethodGet, "/api/purchases", session, nil))
	require.Len(t, history.Purchases, 1)
	assert.Equal(t, purchase.ID, history.Purchases[0].ID)
	assert.NotNil(t, history.Purchases[0].ConfirmedAt)

	// the bought numbers are sold for this session now
	assertError(t, srv.do(t, http.MethodPost, "/api/selection/toggle", session, NumberRequest{Number: 4}),
		http.StatusConflict, codeNumberTaken)
}

func TestRouter_CancelPurchase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		startPayment bool
	}{
		{name: "before payment"},
		{name: "during payment", startPayment: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, nil)
			const session = "erin"

			assertError(t, srv.do(t, http.MethodDelete, "/api/purchases/current", session, nil), http.StatusNotFound, codeNoPendingPurchase)

			srv.do(t, http.MethodPost, "/api/selection/toggle", session, NumberRequest{Number: 50})
			require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/purchases", session, nil).Code)
			if tt.startPayment {
				require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/purchases/current/payment", session, nil).Code)
			}

			rec := srv.do(t, http.MethodDelete, "/api/purchases/current", session, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, string(entities.PurchaseStatusCancelled), decode[PurchaseResponse](t, rec).Status)

			// the selection survives a cancelled purchase
			sel := decode[SelectionResponse](t, srv.do(t, http.MethodGet, "/api/selection", session, nil))
			assert.Equal(t, []int{50}, sel.Numbers)
			assertError(t, srv.do(t, http.MethodGet, "/api/purchases/current", session, nil), http.StatusNotFound, codeNoPendingPurchase)
		})
	}
}

func TestRouter_Debug(t *testing.T) {
	t.Parallel()

	t.Run("health and sessions", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, nil)
		assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/health", "", nil).Code)
		srv.do(t, http.MethodGet, "/api/raffle", "frank", nil)

		rec := srv.do(t, http.MethodGet, "/debug/sessions", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[struct {
			Count int      `json:"count"`
			Keys  []string `json:"keys"`
		}](t, rec)
		assert.Equal(t, 1, body.Count)
		assert.Equal(t, []string{application.HTTPSessionKey("frank")}, body.Keys)
	})

	t.Run("ledger not configured", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, nil)
		assertError(t, srv.do(t, http.MethodGet, "/debug/purchases", "", nil), http.StatusServiceUnavailable, codeUnavailable)
	})

	t.Run("ledger rows", func(t *testing.T) {
		t.Parallel()

		ledger := new(testhelpers.MockPurchaseLedgerRepository)
		ledger.On("ListRecent", mock.Anything, maxLedgerLimit).Return([]*interfaces.LedgerEntry{
			{SessionKey: "discord:1:2", RaffleTitle: "iPhone", Purchase: &entities.Purchase{ID: "PUR-1", Numbers: []int{1}}},
		}, nil)
		ledger.On("ListRecent", mock.Anything, 5).Return(nil, errors.New("db down"))

		srv := newTestServer(t, ledger)

		rec := srv.do(t, http.MethodGet, "/debug/purchases?limit=500", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "PUR-1")

		assertError(t, srv.do(t, http.MethodGet, "/debug/purchases?limit=5", "", nil), http.StatusInternalServerError, codeInternal)
		assertError(t, srv.do(t, http.MethodGet, "/debug/purchases?limit=0", "", nil), http.StatusBadRequest, codeInvalidRequest)
		ledger.AssertExpectations(t)
	})
}
