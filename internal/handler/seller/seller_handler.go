// Package seller 提供销售员端的 HTTP Handler
package seller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/incentive-backend/internal/common/handler"
	"github.com/dumeirei/incentive-backend/internal/common/response"
	"github.com/dumeirei/incentive-backend/internal/models"
	financeService "github.com/dumeirei/incentive-backend/internal/service/finance"
	"github.com/dumeirei/incentive-backend/internal/service/progression"
	redemptionService "github.com/dumeirei/incentive-backend/internal/service/redemption"
)

// Handler 销售员处理器
type Handler struct {
	progressionService *progression.Service
	redemptionService  *redemptionService.Service
	ledgerService      *financeService.LedgerService
}

// NewHandler 创建销售员处理器
func NewHandler(
	progressionSvc *progression.Service,
	redemptionSvc *redemptionService.Service,
	ledgerSvc *financeService.LedgerService,
) *Handler {
	return &Handler{
		progressionService: progressionSvc,
		redemptionService:  redemptionSvc,
		ledgerService:      ledgerSvc,
	}
}

// ProgressView 进度视图
type ProgressView struct {
	SellerID    int64                   `json:"seller_id"`
	CampaignID  int64                   `json:"campaign_id"`
	Snapshot    *progression.Snapshot   `json:"snapshot"`
	Completions []models.CardCompletion `json:"completions"`
}

// GetProgress 销售员在活动中的进度
// @Summary 活动进度
// @Tags 销售员
// @Produce json
// @Param seller_id path int true "销售员ID"
// @Param campaign_id path int true "活动ID"
// @Success 200 {object} response.Response{data=ProgressView}
// @Router /api/v1/sellers/{seller_id}/campaigns/{campaign_id}/progress [get]
func (h *Handler) GetProgress(c *gin.Context) {
	sellerID, ok := handler.ParseParamID(c, "seller_id", "销售员")
	if !ok {
		return
	}
	campaignID, ok := handler.ParseParamID(c, "campaign_id", "活动")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	snap, err := h.progressionService.GetSnapshot(ctx, sellerID, campaignID)
	if handler.HandleError(c, err) {
		return
	}
	completions, err := h.progressionService.Completions(ctx, sellerID, campaignID)
	if handler.HandleError(c, err) {
		return
	}

	response.Success(c, ProgressView{
		SellerID:    sellerID,
		CampaignID:  campaignID,
		Snapshot:    snap,
		Completions: completions,
	})
}

// GetCard 指定序号的卡片，复制模式下按需派生
// @Summary 卡片详情
// @Tags 销售员
// @Produce json
// @Param id path int true "活动ID"
// @Param sequence path int true "卡片序号"
// @Success 200 {object} response.Response{data=models.Card}
// @Router /api/v1/campaigns/{id}/cards/{sequence} [get]
func (h *Handler) GetCard(c *gin.Context) {
	campaignID, ok := handler.ParseID(c, "活动")
	if !ok {
		return
	}
	seq, ok := handler.ParseParamInt(c, "sequence", "卡片序号")
	if !ok {
		return
	}

	card, err := h.progressionService.Card(c.Request.Context(), campaignID, seq)
	handler.MustSucceed(c, err, card)
}

// SolicitRequest 兑换请求
type SolicitRequest struct {
	PrizeID int64 `json:"prize_id" binding:"required"`
}

// Solicit 发起兑换
// @Summary 发起兑换
// @Tags 销售员
// @Accept json
// @Produce json
// @Param seller_id path int true "销售员ID"
// @Param request body SolicitRequest true "奖品"
// @Success 200 {object} response.Response{data=models.Redemption}
// @Router /api/v1/sellers/{seller_id}/redemptions [post]
func (h *Handler) Solicit(c *gin.Context) {
	sellerID, ok := handler.ParseParamID(c, "seller_id", "销售员")
	if !ok {
		return
	}
	var req SolicitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	r, err := h.redemptionService.Solicit(c.Request.Context(), sellerID, req.PrizeID)
	handler.MustSucceed(c, err, r)
}

// Cancel 取消兑换
// @Summary 取消兑换
// @Tags 销售员
// @Produce json
// @Param seller_id path int true "销售员ID"
// @Param id path int true "兑换ID"
// @Success 200 {object} response.Response{data=models.Redemption}
// @Router /api/v1/sellers/{seller_id}/redemptions/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	sellerID, ok := handler.ParseParamID(c, "seller_id", "销售员")
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "兑换")
	if !ok {
		return
	}

	r, err := h.redemptionService.Cancel(c.Request.Context(), sellerID, id)
	handler.MustSucceed(c, err, r)
}

// ListRedemptions 销售员的兑换记录
// @Summary 兑换记录
// @Tags 销售员
// @Produce json
// @Param seller_id path int true "销售员ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param status query string false "状态"
// @Success 200 {object} response.Response{data=response.ListData}
// @Router /api/v1/sellers/{seller_id}/redemptions [get]
func (h *Handler) ListRedemptions(c *gin.Context) {
	sellerID, ok := handler.ParseParamID(c, "seller_id", "销售员")
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	list, total, err := h.redemptionService.List(c.Request.Context(), &redemptionService.ListRequest{
		Page:     p.Page,
		PageSize: p.PageSize,
		SellerID: sellerID,
		Status:   models.RedemptionStatus(c.Query("status")),
	})
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// Voucher 兑换凭证二维码
// @Summary 兑换凭证二维码
// @Tags 销售员
// @Produce png
// @Param seller_id path int true "销售员ID"
// @Param id path int true "兑换ID"
// @Success 200 {file} file
// @Router /api/v1/sellers/{seller_id}/redemptions/{id}/voucher.png [get]
func (h *Handler) Voucher(c *gin.Context) {
	sellerID, ok := handler.ParseParamID(c, "seller_id", "销售员")
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "兑换")
	if !ok {
		return
	}

	png, err := h.redemptionService.Voucher(c.Request.Context(), sellerID, id)
	if handler.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// Statement 销售员账单
// @Summary 余额与流水汇总
// @Tags 销售员
// @Produce json
// @Param seller_id path int true "销售员ID"
// @Success 200 {object} response.Response{data=financeService.Statement}
// @Router /api/v1/sellers/{seller_id}/statement [get]
func (h *Handler) Statement(c *gin.Context) {
	sellerID, ok := handler.ParseParamID(c, "seller_id", "销售员")
	if !ok {
		return
	}

	st, err := h.ledgerService.Statement(c.Request.Context(), sellerID)
	handler.MustSucceed(c, err, st)
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	sellers := r.Group("/sellers/:seller_id")
	{
		sellers.GET("/campaigns/:campaign_id/progress", h.GetProgress)
		sellers.POST("/redemptions", h.Solicit)
		sellers.GET("/redemptions", h.ListRedemptions)
		sellers.POST("/redemptions/:id/cancel", h.Cancel)
		sellers.GET("/redemptions/:id/voucher.png", h.Voucher)
		sellers.GET("/statement", h.Statement)
	}

	r.GET("/campaigns/:id/cards/:sequence", h.GetCard)
}
