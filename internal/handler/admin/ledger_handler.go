package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/incentive-backend/internal/common/handler"
	"github.com/dumeirei/incentive-backend/internal/common/response"
	"github.com/dumeirei/incentive-backend/internal/models"
	financeService "github.com/dumeirei/incentive-backend/internal/service/finance"
	"github.com/dumeirei/incentive-backend/internal/service/progression"
)

// LedgerHandler 账本管理处理器
type LedgerHandler struct {
	ledgerService      *financeService.LedgerService
	exportService      *financeService.ExportService
	progressionService *progression.Service
}

// NewLedgerHandler 创建账本管理处理器
func NewLedgerHandler(
	ledgerSvc *financeService.LedgerService,
	exportSvc *financeService.ExportService,
	progressionSvc *progression.Service,
) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:      ledgerSvc,
		exportService:      exportSvc,
		progressionService: progressionSvc,
	}
}

// Statement 用户账单
// @Summary 用户余额与流水汇总
// @Tags 管理-账本
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response{data=financeService.Statement}
// @Router /api/admin/ledger/users/{id} [get]
func (h *LedgerHandler) Statement(c *gin.Context) {
	id, ok := handler.ParseID(c, "用户")
	if !ok {
		return
	}

	st, err := h.ledgerService.Statement(c.Request.Context(), id)
	handler.MustSucceed(c, err, st)
}

// Reconcile 核对用户余额与流水
// @Summary 对账
// @Tags 管理-账本
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response{data=financeService.Reconciliation}
// @Router /api/admin/ledger/users/{id}/reconcile [get]
func (h *LedgerHandler) Reconcile(c *gin.Context) {
	id, ok := handler.ParseID(c, "用户")
	if !ok {
		return
	}

	rec, err := h.ledgerService.Reconcile(c.Request.Context(), id)
	if rec != nil {
		// 不一致也返回差异明细
		response.Success(c, rec)
		return
	}
	handler.MustSucceed(c, err, rec)
}

// bindEntriesFilter 解析流水筛选参数
func bindEntriesFilter(c *gin.Context) (*financeService.ListEntriesRequest, bool) {
	p := handler.BindPagination(c)
	userID, ok := handler.ParseQueryID(c, "user_id", "用户")
	if !ok {
		return nil, false
	}
	campaignID, ok := handler.ParseQueryID(c, "campaign_id", "活动")
	if !ok {
		return nil, false
	}
	start, end, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return nil, false
	}

	req := &financeService.ListEntriesRequest{
		Page:       p.Page,
		PageSize:   p.PageSize,
		CampaignID: campaignID,
		Kind:       models.LedgerKind(c.Query("kind")),
		StartDate:  start,
		EndDate:    end,
	}
	if userID != nil {
		req.UserID = *userID
	}
	return req, true
}

// ListEntries 流水列表
// @Summary 流水列表
// @Tags 管理-账本
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param user_id query int false "用户ID"
// @Param campaign_id query int false "活动ID"
// @Param kind query string false "类型"
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=response.ListData}
// @Router /api/admin/ledger/entries [get]
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	req, ok := bindEntriesFilter(c)
	if !ok {
		return
	}

	list, total, err := h.ledgerService.ListEntries(c.Request.Context(), req)
	handler.MustSucceedPage(c, err, list, total, req.Page, req.PageSize)
}

// ExportEntries 导出流水
// @Summary 导出流水 CSV
// @Tags 管理-账本
// @Produce text/csv
// @Param user_id query int false "用户ID"
// @Param campaign_id query int false "活动ID"
// @Param kind query string false "类型"
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {file} file
// @Router /api/admin/ledger/export [get]
func (h *LedgerHandler) ExportEntries(c *gin.Context) {
	filter, ok := bindEntriesFilter(c)
	if !ok {
		return
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		response.BadRequest(c, "无效的流水类型")
		return
	}

	data, filename, err := h.exportService.ExportEntries(c.Request.Context(), &financeService.ExportEntriesRequest{
		UserID:     filter.UserID,
		CampaignID: filter.CampaignID,
		Kind:       filter.Kind,
		StartDate:  filter.StartDate,
		EndDate:    filter.EndDate,
	})
	if handler.HandleError(c, err) {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", data)
}

// ListSales 已处理的销售明细
// @Summary 销售明细列表
// @Tags 管理-账本
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param seller_id query int false "销售员ID"
// @Param campaign_id query int false "活动ID"
// @Param outcome query string false "处理结果 PROCESSED/SKIPPED"
// @Success 200 {object} response.Response{data=response.ListData}
// @Router /api/admin/sales [get]
func (h *LedgerHandler) ListSales(c *gin.Context) {
	p := handler.BindPagination(c)
	sellerID, ok := handler.ParseQueryID(c, "seller_id", "销售员")
	if !ok {
		return
	}
	campaignID, ok := handler.ParseQueryID(c, "campaign_id", "活动")
	if !ok {
		return
	}

	req := &progression.ListSalesRequest{
		Page:     p.Page,
		PageSize: p.PageSize,
		Outcome:  models.SaleOutcome(c.Query("outcome")),
	}
	if sellerID != nil {
		req.SellerID = *sellerID
	}
	if campaignID != nil {
		req.CampaignID = *campaignID
	}

	list, total, err := h.progressionService.ListSales(c.Request.Context(), req)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// RegisterRoutes 注册路由
func (h *LedgerHandler) RegisterRoutes(r *gin.RouterGroup) {
	ledger := r.Group("/ledger")
	{
		ledger.GET("/users/:id", h.Statement)
		ledger.GET("/users/:id/reconcile", h.Reconcile)
		ledger.GET("/entries", h.ListEntries)
		ledger.GET("/export", h.ExportEntries)
	}
	r.GET("/sales", h.ListSales)
}
