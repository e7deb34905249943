// Package sales 提供销售明细接入的 HTTP Handler
package sales

import (
	"bytes"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/dumeirei/incentive-backend/internal/common/handler"
	"github.com/dumeirei/incentive-backend/internal/common/response"
	"github.com/dumeirei/incentive-backend/internal/service/progression"
)

// MaxBatchSize 单次提交的最大明细条数
const MaxBatchSize = 500

// Handler 销售明细处理器
type Handler struct {
	progressionService *progression.Service
}

// NewHandler 创建销售明细处理器
func NewHandler(progressionSvc *progression.Service) *Handler {
	return &Handler{progressionService: progressionSvc}
}

// BatchResult 批量处理结果
type BatchResult struct {
	Items     []progression.BatchItem `json:"items"`
	Succeeded int                     `json:"succeeded"`
	Failed    int                     `json:"failed"`
}

// Ingest 接收销售明细
// 请求体为单个对象时同步返回处理结果，为数组时逐条处理并返回每条的结果
// @Summary 提交销售明细
// @Tags 销售
// @Accept json
// @Produce json
// @Param request body progression.SaleInput true "销售明细（或其数组）"
// @Success 200 {object} response.Response{data=progression.SaleResult}
// @Router /api/v1/sales [post]
func (h *Handler) Ingest(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		response.BadRequest(c, "参数错误")
		return
	}

	if raw[0] == '[' {
		var inputs []progression.SaleInput
		if err := json.Unmarshal(raw, &inputs); err != nil {
			response.BadRequest(c, "参数错误")
			return
		}
		if len(inputs) == 0 || len(inputs) > MaxBatchSize {
			response.BadRequest(c, "明细条数超出范围")
			return
		}

		items := h.progressionService.ProcessBatch(c.Request.Context(), inputs)
		result := BatchResult{Items: items}
		for _, item := range items {
			if item.Code == 0 {
				result.Succeeded++
			} else {
				result.Failed++
			}
		}
		response.Success(c, result)
		return
	}

	var in progression.SaleInput
	if err := json.Unmarshal(raw, &in); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	if err := binding.Validator.ValidateStruct(&in); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	res, err := h.progressionService.ProcessSale(c.Request.Context(), in)
	handler.MustSucceed(c, err, res)
}

// RegisterRoutes 注册路由，middlewares 作用于销售接入接口（如限流）
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	handlers := append(middlewares, h.Ingest)
	r.POST("/sales", handlers...)
}
