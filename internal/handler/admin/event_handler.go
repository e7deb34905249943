package admin

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/incentive-backend/internal/common/handler"
	"github.com/dumeirei/incentive-backend/internal/common/response"
	eventService "github.com/dumeirei/incentive-backend/internal/service/event"
)

// EventHandler 特殊活动管理处理器
type EventHandler struct {
	eventService *eventService.Service
	loc          *time.Location
}

// NewEventHandler 创建特殊活动管理处理器
func NewEventHandler(eventSvc *eventService.Service, loc *time.Location) *EventHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &EventHandler{eventService: eventSvc, loc: loc}
}

// List 活动下的特殊活动
// @Summary 特殊活动列表
// @Tags 管理-特殊活动
// @Produce json
// @Param id path int true "活动ID"
// @Success 200 {object} response.Response{data=[]models.SpecialEvent}
// @Router /api/admin/campaigns/{id}/events [get]
func (h *EventHandler) List(c *gin.Context) {
	campaignID, ok := handler.ParseID(c, "活动")
	if !ok {
		return
	}

	events, err := h.eventService.ListByCampaign(c.Request.Context(), campaignID)
	handler.MustSucceed(c, err, events)
}

// Create 创建特殊活动
// @Summary 创建特殊活动
// @Tags 管理-特殊活动
// @Accept json
// @Produce json
// @Param id path int true "活动ID"
// @Param request body eventService.Request true "特殊活动"
// @Success 200 {object} response.Response{data=models.SpecialEvent}
// @Router /api/admin/campaigns/{id}/events [post]
func (h *EventHandler) Create(c *gin.Context) {
	campaignID, ok := handler.ParseID(c, "活动")
	if !ok {
		return
	}
	var req eventService.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), campaignID, &req)
	handler.MustSucceed(c, err, event)
}

// Update 修改特殊活动
// @Summary 修改特殊活动
// @Tags 管理-特殊活动
// @Accept json
// @Produce json
// @Param id path int true "特殊活动ID"
// @Param request body eventService.Request true "特殊活动"
// @Success 200 {object} response.Response{data=models.SpecialEvent}
// @Router /api/admin/events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "特殊活动")
	if !ok {
		return
	}
	var req eventService.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	event, err := h.eventService.Update(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, event)
}

// ActiveRequest 启用/暂停请求
type ActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive 启用或暂停特殊活动
// @Summary 启用或暂停特殊活动
// @Tags 管理-特殊活动
// @Accept json
// @Produce json
// @Param id path int true "特殊活动ID"
// @Param request body ActiveRequest true "状态"
// @Success 200 {object} response.Response{data=models.SpecialEvent}
// @Router /api/admin/events/{id}/active [put]
func (h *EventHandler) SetActive(c *gin.Context) {
	id, ok := handler.ParseID(c, "特殊活动")
	if !ok {
		return
	}
	var req ActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	event, err := h.eventService.SetActive(c.Request.Context(), id, *req.Active)
	handler.MustSucceed(c, err, event)
}

// Delete 删除特殊活动
// @Summary 删除特殊活动
// @Tags 管理-特殊活动
// @Produce json
// @Param id path int true "特殊活动ID"
// @Success 200 {object} response.Response
// @Router /api/admin/events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "特殊活动")
	if !ok {
		return
	}

	err := h.eventService.Delete(c.Request.Context(), id)
	handler.MustSucceed(c, err, nil)
}

// Multiplier 活动在指定时刻的奖励倍数
// @Summary 查询奖励倍数
// @Tags 管理-特殊活动
// @Produce json
// @Param id path int true "活动ID"
// @Param at query string false "时刻，默认当前时间"
// @Success 200 {object} response.Response{data=eventService.Multiplier}
// @Router /api/admin/campaigns/{id}/multiplier [get]
func (h *EventHandler) Multiplier(c *gin.Context) {
	campaignID, ok := handler.ParseID(c, "活动")
	if !ok {
		return
	}
	at, ok := handler.ParseQueryTime(c, "at", h.loc, time.Now())
	if !ok {
		return
	}

	m, err := h.eventService.CurrentMultiplier(c.Request.Context(), campaignID, at.UTC())
	handler.MustSucceed(c, err, m)
}

// RegisterRoutes 注册路由
func (h *EventHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/campaigns/:id/events", h.List)
	r.POST("/campaigns/:id/events", h.Create)
	r.GET("/campaigns/:id/multiplier", h.Multiplier)

	events := r.Group("/events")
	{
		events.PUT("/:id", h.Update)
		events.DELETE("/:id", h.Delete)
		events.PUT("/:id/active", h.SetActive)
	}
}
