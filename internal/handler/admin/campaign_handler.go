// Package admin 管理端 HTTP Handler
package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/incentive-backend/internal/common/handler"
	"github.com/dumeirei/incentive-backend/internal/common/response"
	campaignService "github.com/dumeirei/incentive-backend/internal/service/campaign"
	financeService "github.com/dumeirei/incentive-backend/internal/service/finance"
)

// CampaignHandler 活动管理处理器
type CampaignHandler struct {
	campaignService *campaignService.Service
	ledgerService   *financeService.LedgerService
}

// NewCampaignHandler 创建活动管理处理器
func NewCampaignHandler(campaignSvc *campaignService.Service, ledgerSvc *financeService.LedgerService) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignSvc,
		ledgerService:   ledgerSvc,
	}
}

// Create 创建活动
// @Summary 创建活动（含卡片树与特殊活动）
// @Tags 管理-活动
// @Accept json
// @Produce json
// @Param request body campaignService.CreateRequest true "活动定义"
// @Success 200 {object} response.Response{data=models.Campaign}
// @Router /api/admin/campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	var req campaignService.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	campaign, err := h.campaignService.Create(c.Request.Context(), &req)
	handler.MustSucceed(c, err, campaign)
}

// ValidateResult 校验结果
type ValidateResult struct {
	Valid  bool        `json:"valid"`
	Errors interface{} `json:"errors,omitempty"`
}

// Validate 校验活动定义但不保存
// @Summary 校验活动定义
// @Tags 管理-活动
// @Accept json
// @Produce json
// @Param request body campaignService.CreateRequest true "活动定义"
// @Success 200 {object} response.Response{data=ValidateResult}
// @Router /api/admin/campaigns/validate [post]
func (h *CampaignHandler) Validate(c *gin.Context) {
	var req campaignService.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	r, err := h.campaignService.Validate(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	result := ValidateResult{Valid: r.Valid()}
	if !result.Valid {
		result.Errors = r.Errors
	}
	response.Success(c, result)
}

// List 活动列表
// @Summary 活动列表
// @Tags 管理-活动
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param status query int false "状态 0停用 1启用"
// @Param keyword query string false "标题关键字"
// @Param active query bool false "仅进行中"
// @Success 200 {object} response.Response{data=response.ListData}
// @Router /api/admin/campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	p := handler.BindPagination(c)
	req := &campaignService.ListRequest{
		Page:       p.Page,
		PageSize:   p.PageSize,
		Keyword:    c.Query("keyword"),
		ActiveOnly: c.Query("active") == "true",
	}
	if s := c.Query("status"); s != "" {
		v, err := strconv.ParseInt(s, 10, 8)
		if err != nil {
			response.BadRequest(c, "无效的状态")
			return
		}
		status := int8(v)
		req.Status = &status
	}

	list, total, err := h.campaignService.List(c.Request.Context(), req)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// Get 活动详情
// @Summary 活动详情（含卡片树与特殊活动）
// @Tags 管理-活动
// @Produce json
// @Param id path int true "活动ID"
// @Success 200 {object} response.Response{data=models.Campaign}
// @Router /api/admin/campaigns/{id} [get]
func (h *CampaignHandler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "活动")
	if !ok {
		return
	}

	campaign, err := h.campaignService.GetWithEvents(c.Request.Context(), id)
	handler.MustSucceed(c, err, campaign)
}

// StatusRequest 启用/停用请求
type StatusRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetStatus 启用或停用活动
// @Summary 启用或停用活动
// @Tags 管理-活动
// @Accept json
// @Produce json
// @Param id path int true "活动ID"
// @Param request body StatusRequest true "状态"
// @Success 200 {object} response.Response
// @Router /api/admin/campaigns/{id}/status [put]
func (h *CampaignHandler) SetStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "活动")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.campaignService.SetStatus(c.Request.Context(), id, *req.Enabled)
	handler.MustSucceed(c, err, nil)
}

// Summary 活动奖励汇总
// @Summary 活动奖励汇总
// @Tags 管理-活动
// @Produce json
// @Param id path int true "活动ID"
// @Success 200 {object} response.Response{data=financeService.CampaignSummary}
// @Router /api/admin/campaigns/{id}/summary [get]
func (h *CampaignHandler) Summary(c *gin.Context) {
	id, ok := handler.ParseID(c, "活动")
	if !ok {
		return
	}

	summary, err := h.ledgerService.CampaignSummary(c.Request.Context(), id)
	handler.MustSucceed(c, err, summary)
}

// RegisterRoutes 注册路由
func (h *CampaignHandler) RegisterRoutes(r *gin.RouterGroup) {
	campaigns := r.Group("/campaigns")
	{
		campaigns.POST("", h.Create)
		campaigns.GET("", h.List)
		campaigns.POST("/validate", h.Validate)
		campaigns.GET("/:id", h.Get)
		campaigns.PUT("/:id/status", h.SetStatus)
		campaigns.GET("/:id/summary", h.Summary)
	}
}
