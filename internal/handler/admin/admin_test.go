package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/incentive-backend/internal/common/errors"
	"github.com/dumeirei/incentive-backend/internal/models"
	"github.com/dumeirei/incentive-backend/internal/repository"
	campaignService "github.com/dumeirei/incentive-backend/internal/service/campaign"
	eventService "github.com/dumeirei/incentive-backend/internal/service/event"
	financeService "github.com/dumeirei/incentive-backend/internal/service/finance"
	"github.com/dumeirei/incentive-backend/internal/service/progression"
	redemptionService "github.com/dumeirei/incentive-backend/internal/service/redemption"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	db         *gorm.DB
	router     *gin.Engine
	redemption *redemptionService.Service
}

func setupAdmin(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))

	campaignRepo := repository.NewCampaignRepository(db)
	eventRepo := repository.NewEventRepository(db)
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	completionRepo := repository.NewCompletionRepository(db)

	campaignSvc := campaignService.NewService(db, campaignRepo, repository.NewOpticianRepository(db), eventRepo,
		nil, nil, eventService.DefaultPolicy, time.UTC)
	eventSvc := eventService.NewService(db, eventRepo, campaignRepo, nil, eventService.DefaultPolicy, time.UTC)
	redemptionSvc := redemptionService.NewService(db, repository.NewPrizeRepository(db),
		repository.NewRedemptionRepository(db), userRepo, ledgerRepo, nil)
	ledgerSvc := financeService.NewLedgerService(userRepo, campaignRepo, progressRepo, completionRepo, ledgerRepo)
	progressionSvc := progression.NewService(db, campaignSvc, progression.Repositories{
		Users:       userRepo,
		Events:      eventRepo,
		Progress:    progressRepo,
		Sales:       repository.NewSaleLineRepository(db),
		Completions: completionRepo,
		Ledger:      ledgerRepo,
	}, progression.Options{})

	r := gin.New()
	api := r.Group("/api/admin")
	NewCampaignHandler(campaignSvc, ledgerSvc).RegisterRoutes(api)
	NewEventHandler(eventSvc, time.UTC).RegisterRoutes(api)
	NewPrizeHandler(redemptionSvc).RegisterRoutes(api)
	NewLedgerHandler(ledgerSvc, financeService.NewExportService(ledgerRepo), progressionSvc).RegisterRoutes(api)

	return &testEnv{db: db, router: r, redemption: redemptionSvc}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
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
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func lensCard(seq int) campaignService.CardInput {
	return campaignService.CardInput{
		Sequence:    seq,
		Description: fmt.Sprintf("Cartela %d", seq),
		Requirements: []campaignService.RequirementInput{{
			Description: "Lentes",
			Quantity:    5,
			Unit:        models.UnitPar,
			Ordem:       1,
			Conditions: []campaignService.ConditionInput{
				{Field: models.FieldCategoriaProduto, Operator: models.OperatorIgualA, Value: "lentes"},
			},
		}},
	}
}

func campaignRequest(start time.Time) *campaignService.CreateRequest {
	return &campaignService.CreateRequest{
		Title:          "Campanha de lentes",
		StartAt:        start,
		EndAt:          start.Add(30 * 24 * time.Hour),
		CoinReward:     2500,
		RealReward:     decimal.NewFromInt(1500),
		CommissionRate: decimal.RequireFromString("0.15"),
		AllOpticians:   true,
		CardMode:       models.CardModeManual,
		IncrementType:  models.IncrementNenhum,
		Cards:          []campaignService.CardInput{lensCard(1), lensCard(2), lensCard(3)},
	}
}

func (e *testEnv) createCampaign(t *testing.T, start time.Time) models.Campaign {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/api/admin/campaigns", campaignRequest(start))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var c models.Campaign
	require.NoError(t, json.Unmarshal(env.Data, &c))
	require.NotZero(t, c.ID)
	return c
}

func TestCampaignHandler(t *testing.T) {
	env := setupAdmin(t)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("校验接口返回全部失败项", func(t *testing.T) {
		req := campaignRequest(start)
		req.CoinReward = 10
		req.CommissionRate = decimal.NewFromInt(2)
		w, resp := env.do(t, http.MethodPost, "/api/admin/campaigns/validate", req)
		require.Equal(t, http.StatusOK, w.Code)

		var result struct {
			Valid  bool `json:"valid"`
			Errors []struct {
				Field string `json:"field"`
			} `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.False(t, result.Valid)
		fields := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			fields = append(fields, e.Field)
		}
		assert.Contains(t, fields, "coin_reward")
		assert.Contains(t, fields, "commission_rate")
	})

	t.Run("创建失败返回定义错误", func(t *testing.T) {
		req := campaignRequest(start)
		req.Cards = nil
		w, resp := env.do(t, http.MethodPost, "/api/admin/campaigns", req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errors.ErrDefinitionInvalid.Code, resp.Code)
	})

	created := env.createCampaign(t, start)

	w, resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/campaigns/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Campaign
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Len(t, got.Cards, 3)
	assert.Equal(t, "Campanha de lentes", got.Title)

	w, _ = env.do(t, http.MethodPut, fmt.Sprintf("/api/admin/campaigns/%d/status", created.ID), gin.H{"enabled": false})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = env.do(t, http.MethodGet, "/api/admin/campaigns?status=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, int64(1), page.Total)

	w, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/campaigns/%d/summary", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary financeService.CampaignSummary
	require.NoError(t, json.Unmarshal(resp.Data, &summary))
	assert.Zero(t, summary.CardsCompleted)

	t.Run("参数与不存在", func(t *testing.T) {
		w, resp := env.do(t, http.MethodGet, "/api/admin/campaigns/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, errors.ErrCampaignNotFound.Code, resp.Code)

		w, _ = env.do(t, http.MethodGet, "/api/admin/campaigns/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = env.do(t, http.MethodPut, fmt.Sprintf("/api/admin/campaigns/%d/status", created.ID), gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEventHandler(t *testing.T) {
	env := setupAdmin(t)
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	campaign := env.createCampaign(t, start)

	eventBody := func(from time.Time) gin.H {
		return gin.H{
			"name":            "Semana dupla",
			"multiplier":      "2",
			"start_at":        from.Format(time.RFC3339),
			"end_at":          from.Add(24 * time.Hour).Format(time.RFC3339),
			"highlight_color": "#00AA00",
		}
	}

	w, resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/campaigns/%d/events", campaign.ID), eventBody(start.Add(24*time.Hour)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ev models.SpecialEvent
	require.NoError(t, json.Unmarshal(resp.Data, &ev))
	assert.True(t, ev.Active)

	t.Run("时间重叠被拒绝", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/campaigns/%d/events", campaign.ID), eventBody(start.Add(36*time.Hour)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errors.ErrEventOverlap.Code, resp.Code)
	})

	t.Run("首尾相接允许创建", func(t *testing.T) {
		w, _ := env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/campaigns/%d/events", campaign.ID), eventBody(start.Add(48*time.Hour)))
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	w, resp = env.do(t, http.MethodPut, fmt.Sprintf("/api/admin/events/%d/active", ev.ID), gin.H{"active": false})
	require.Equal(t, http.StatusOK, w.Code)
	var paused models.SpecialEvent
	require.NoError(t, json.Unmarshal(resp.Data, &paused))
	assert.False(t, paused.Active)

	at := start.Add(30 * time.Hour).Format(time.RFC3339)
	w, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/campaigns/%d/multiplier?at=%s", campaign.ID, at), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var m eventService.Multiplier
	require.NoError(t, json.Unmarshal(resp.Data, &m))
	assert.Equal(t, "1", m.Value.String())

	w, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/campaigns/%d/events", campaign.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []models.SpecialEvent
	require.NoError(t, json.Unmarshal(resp.Data, &events))
	assert.Len(t, events, 2)

	w, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/events/%d", ev.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/events/%d", ev.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.ErrEventNotFound.Code, resp.Code)
}

func TestPrizeHandler(t *testing.T) {
	env := setupAdmin(t)
	ctx := context.Background()

	w, resp := env.do(t, http.MethodPost, "/api/admin/prizes", gin.H{"name": "Fone", "coin_cost": 3000, "stock": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var prize models.Prize
	require.NoError(t, json.Unmarshal(resp.Data, &prize))

	w, _ = env.do(t, http.MethodPost, "/api/admin/prizes", gin.H{"name": "Fone"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	seller := &models.User{Name: "Vendedor", Role: models.RoleSeller, CoinBalance: 5000, Status: models.StatusActive}
	require.NoError(t, env.db.Create(seller).Error)
	r, err := env.redemption.Solicit(ctx, seller.ID, prize.ID)
	require.NoError(t, err)

	w, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/redemptions?seller_id=%d&status=SOLICITADO", seller.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, int64(1), page.Total)

	w, resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/redemptions/%d/send", r.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sent models.Redemption
	require.NoError(t, json.Unmarshal(resp.Data, &sent))
	assert.Equal(t, models.RedemptionEnviado, sent.Status)

	w, resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/redemptions/%d/cancel", r.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrRedemptionStatus.Code, resp.Code)

	w, resp = env.do(t, http.MethodPost, "/api/admin/redemptions/verify", gin.H{"content": redemptionService.VoucherContent(r)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var verified models.Redemption
	require.NoError(t, json.Unmarshal(resp.Data, &verified))
	assert.Equal(t, r.ID, verified.ID)

	w, _ = env.do(t, http.MethodPost, "/api/admin/redemptions/verify", gin.H{"content": "REDEMPTION:" + r.RedemptionNo + ":XXXX"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/admin/redemptions/verify", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPut, fmt.Sprintf("/api/admin/prizes/%d/status", prize.ID), gin.H{"enabled": false})
	assert.Equal(t, http.StatusOK, w.Code)
	w, resp = env.do(t, http.MethodGet, "/api/admin/prizes?active=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Zero(t, page.Total)
}

func TestLedgerHandler(t *testing.T) {
	env := setupAdmin(t)
	ctx := context.Background()

	seller := &models.User{Name: "Vendedor", Role: models.RoleSeller, CoinBalance: 2500,
		RealBalance: decimal.NewFromInt(1500), Status: models.StatusActive}
	require.NoError(t, env.db.Create(seller).Error)
	ledger := repository.NewLedgerRepository(env.db)
	require.NoError(t, ledger.Create(ctx, &models.LedgerEntry{UserID: seller.ID, Kind: models.LedgerCoins, Amount: decimal.NewFromInt(2500)}))
	require.NoError(t, ledger.Create(ctx, &models.LedgerEntry{UserID: seller.ID, Kind: models.LedgerReal, Amount: decimal.NewFromInt(1500)}))

	w, resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/ledger/users/%d", seller.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st financeService.Statement
	require.NoError(t, json.Unmarshal(resp.Data, &st))
	assert.Equal(t, int64(2500), st.CoinBalance)

	w, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/ledger/users/%d/reconcile", seller.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rec financeService.Reconciliation
	require.NoError(t, json.Unmarshal(resp.Data, &rec))
	assert.True(t, rec.Balanced)

	w, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/ledger/entries?user_id=%d&kind=COINS", seller.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, int64(1), page.Total)

	w, _ = env.do(t, http.MethodGet, "/api/admin/ledger/entries?kind=BONUS", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/ledger/export?user_id=%d", seller.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ledger_")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))

	w, _ = env.do(t, http.MethodGet, "/api/admin/sales?outcome=PROCESSED", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
