package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/incentive-backend/internal/common/validation"
	"github.com/dumeirei/incentive-backend/internal/models"
)

var (
	minMultiplier = decimal.NewFromInt(1)
	maxMultiplier = decimal.NewFromInt(10)
)

// Policy 特殊活动时间约束
type Policy struct {
	MinLead     time.Duration // 开始时间距创建时刻的最短间隔
	MinDuration time.Duration // 最短持续时间
}

// DefaultPolicy 默认约束：提前1小时创建，至少持续1小时
var DefaultPolicy = Policy{MinLead: time.Hour, MinDuration: time.Hour}

// Request 创建或修改特殊活动的请求
type Request struct {
	Name           string          `json:"name" yaml:"name" binding:"required"`
	Description    string          `json:"description" yaml:"description"`
	Multiplier     decimal.Decimal `json:"multiplier" yaml:"multiplier"`
	StartAt        time.Time       `json:"start_at" yaml:"start_at" binding:"required"`
	EndAt          time.Time       `json:"end_at" yaml:"end_at" binding:"required"`
	Active         *bool           `json:"active,omitempty" yaml:"active"`
	HighlightColor string          `json:"highlight_color" yaml:"highlight_color"`
}

// Validate 校验特殊活动定义
// checkLead 为 true 时要求开始时间不早于 clock.Now + MinLead
func Validate(req *Request, campaign *models.Campaign, clock validation.Clock, policy Policy, checkLead bool) *validation.Result {
	r := &validation.Result{}

	validation.RuneLength(r, "name", req.Name, 3, 100)
	validation.RuneLength(r, "description", req.Description, 0, 500)
	validation.HexColor(r, "highlight_color", req.HighlightColor)
	checkMultiplier(r, req.Multiplier)
	checkWindow(r, req, campaign, clock, policy, checkLead)

	return r
}

func checkMultiplier(r *validation.Result, m decimal.Decimal) {
	validation.DecimalRange(r, "multiplier", m, minMultiplier, maxMultiplier)
	validation.MaxPlaces(r, "multiplier", m, 2)
}

func checkWindow(r *validation.Result, req *Request, campaign *models.Campaign, clock validation.Clock, policy Policy, checkLead bool) {
	if req.StartAt.IsZero() {
		r.Add("start_at", "不能为空")
	}
	if req.EndAt.IsZero() {
		r.Add("end_at", "不能为空")
	}
	if r.Has("start_at") || r.Has("end_at") {
		return
	}

	if !req.EndAt.After(req.StartAt) {
		r.Add("end_at", "结束时间必须晚于开始时间")
		return
	}
	if req.EndAt.Sub(req.StartAt) < policy.MinDuration {
		r.Addf("end_at", "持续时间不能少于%d分钟", int(policy.MinDuration.Minutes()))
	}
	if checkLead && req.StartAt.Before(clock.Now.Add(policy.MinLead)) {
		r.Addf("start_at", "开始时间需晚于当前时间%d分钟以上", int(policy.MinLead.Minutes()))
	}
	if campaign != nil {
		if req.StartAt.Before(campaign.StartAt) {
			r.Add("start_at", "开始时间不能早于活动开始时间")
		}
		if req.EndAt.After(campaign.EndAt) {
			r.Add("end_at", "结束时间不能晚于活动结束时间")
		}
	}
}
