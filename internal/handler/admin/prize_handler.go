package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/incentive-backend/internal/common/handler"
	"github.com/dumeirei/incentive-backend/internal/common/response"
	"github.com/dumeirei/incentive-backend/internal/models"
	redemptionService "github.com/dumeirei/incentive-backend/internal/service/redemption"
)

// PrizeHandler 奖品与兑换管理处理器
type PrizeHandler struct {
	redemptionService *redemptionService.Service
}

// NewPrizeHandler 创建奖品与兑换管理处理器
func NewPrizeHandler(redemptionSvc *redemptionService.Service) *PrizeHandler {
	return &PrizeHandler{redemptionService: redemptionSvc}
}

// CreatePrize 创建奖品
// @Summary 创建奖品
// @Tags 管理-兑换
// @Accept json
// @Produce json
// @Param request body redemptionService.PrizeRequest true "奖品"
// @Success 200 {object} response.Response{data=models.Prize}
// @Router /api/admin/prizes [post]
func (h *PrizeHandler) CreatePrize(c *gin.Context) {
	var req redemptionService.PrizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	prize, err := h.redemptionService.CreatePrize(c.Request.Context(), &req)
	handler.MustSucceed(c, err, prize)
}

// ListPrizes 奖品列表
// @Summary 奖品列表
// @Tags 管理-兑换
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param active query bool false "仅上架中"
// @Success 200 {object} response.Response{data=response.ListData}
// @Router /api/admin/prizes [get]
func (h *PrizeHandler) ListPrizes(c *gin.Context) {
	p := handler.BindPagination(c)

	list, total, err := h.redemptionService.ListPrizes(c.Request.Context(), p.Page, p.PageSize, c.Query("active") == "true")
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// SetPrizeStatus 上架或下架奖品
// @Summary 上架或下架奖品
// @Tags 管理-兑换
// @Accept json
// @Produce json
// @Param id path int true "奖品ID"
// @Param request body StatusRequest true "状态"
// @Success 200 {object} response.Response
// @Router /api/admin/prizes/{id}/status [put]
func (h *PrizeHandler) SetPrizeStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "奖品")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.redemptionService.SetPrizeStatus(c.Request.Context(), id, *req.Enabled)
	handler.MustSucceed(c, err, nil)
}

// ListRedemptions 兑换记录列表
// @Summary 兑换记录列表
// @Tags 管理-兑换
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param seller_id query int false "销售员ID"
// @Param status query string false "状态 SOLICITADO/ENVIADO/CANCELADO"
// @Success 200 {object} response.Response{data=response.ListData}
// @Router /api/admin/redemptions [get]
func (h *PrizeHandler) ListRedemptions(c *gin.Context) {
	p := handler.BindPagination(c)
	sellerID, ok := handler.ParseQueryID(c, "seller_id", "销售员")
	if !ok {
		return
	}
	req := &redemptionService.ListRequest{
		Page:     p.Page,
		PageSize: p.PageSize,
		Status:   models.RedemptionStatus(c.Query("status")),
	}
	if sellerID != nil {
		req.SellerID = *sellerID
	}

	list, total, err := h.redemptionService.List(c.Request.Context(), req)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// Send 标记兑换已发货
// @Summary 标记兑换已发货
// @Tags 管理-兑换
// @Produce json
// @Param id path int true "兑换ID"
// @Success 200 {object} response.Response{data=models.Redemption}
// @Router /api/admin/redemptions/{id}/send [post]
func (h *PrizeHandler) Send(c *gin.Context) {
	id, ok := handler.ParseID(c, "兑换")
	if !ok {
		return
	}

	r, err := h.redemptionService.MarkSent(c.Request.Context(), id)
	handler.MustSucceed(c, err, r)
}

// Cancel 管理员取消兑换并退回金币
// @Summary 取消兑换
// @Tags 管理-兑换
// @Produce json
// @Param id path int true "兑换ID"
// @Success 200 {object} response.Response{data=models.Redemption}
// @Router /api/admin/redemptions/{id}/cancel [post]
func (h *PrizeHandler) Cancel(c *gin.Context) {
	id, ok := handler.ParseID(c, "兑换")
	if !ok {
		return
	}

	r, err := h.redemptionService.Cancel(c.Request.Context(), 0, id)
	handler.MustSucceed(c, err, r)
}

// VerifyRequest 凭证核验请求
type VerifyRequest struct {
	Content string `json:"content" binding:"required"`
}

// Verify 核验扫码得到的领奖凭证
// @Summary 核验领奖凭证
// @Tags 管理-兑换
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "凭证内容"
// @Success 200 {object} response.Response{data=models.Redemption}
// @Router /api/admin/redemptions/verify [post]
func (h *PrizeHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	r, err := h.redemptionService.VerifyVoucher(c.Request.Context(), req.Content)
	handler.MustSucceed(c, err, r)
}

// RegisterRoutes 注册路由
func (h *PrizeHandler) RegisterRoutes(r *gin.RouterGroup) {
	prizes := r.Group("/prizes")
	{
		prizes.POST("", h.CreatePrize)
		prizes.GET("", h.ListPrizes)
		prizes.PUT("/:id/status", h.SetPrizeStatus)
	}

	redemptions := r.Group("/redemptions")
	{
		redemptions.GET("", h.ListRedemptions)
		redemptions.POST("/verify", h.Verify)
		redemptions.POST("/:id/send", h.Send)
		redemptions.POST("/:id/cancel", h.Cancel)
	}
}
