package campaign

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/incentive-backend/internal/common/validation"
	"github.com/dumeirei/incentive-backend/internal/models"
	"github.com/dumeirei/incentive-backend/internal/service/event"
)

const (
	minPeriod = 24 * time.Hour
	maxPeriod = 365 * 24 * time.Hour
)

var maxCommissionRate = decimal.RequireFromString("0.30")

// ValidateCampaign 校验完整的活动定义，一次性返回全部失败项
func ValidateCampaign(req *CreateRequest, clock validation.Clock, policy event.Policy) *validation.Result {
	r := &validation.Result{}

	validation.RuneLength(r, "title", req.Title, 5, 120)
	validation.RuneLength(r, "description", req.Description, 0, 2000)
	checkPeriod(r, req)
	checkEconomy(r, req)
	checkTargeting(r, req)
	checkReplication(r, req)
	checkCards(r, req)
	checkEvents(r, req, clock, policy)

	return r
}

func checkPeriod(r *validation.Result, req *CreateRequest) {
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
	d := req.EndAt.Sub(req.StartAt)
	if d < minPeriod || d > maxPeriod {
		r.Add("end_at", "活动周期需在1到365天之间")
	}
}

func checkEconomy(r *validation.Result, req *CreateRequest) {
	if req.CoinReward < 0 {
		r.Add("coin_reward", "不能为负数")
	}
	if req.RealReward.IsNegative() {
		r.Add("real_reward", "不能为负数")
	}
	validation.MaxPlaces(r, "real_reward", req.RealReward, 2)
	if decimal.NewFromInt(req.CoinReward).LessThan(req.RealReward) {
		r.Add("coin_reward", "金币奖励不能低于现金积分奖励")
	}
	validation.DecimalRange(r, "commission_rate", req.CommissionRate, decimal.Zero, maxCommissionRate)
	validation.MaxPlaces(r, "commission_rate", req.CommissionRate, 4)
}

func checkTargeting(r *validation.Result, req *CreateRequest) {
	if req.AllOpticians {
		return
	}
	if len(req.OpticianIDs) == 0 {
		r.Add("optician_ids", "未选择全部门店时至少指定一个门店")
		return
	}
	seen := make(map[int64]struct{}, len(req.OpticianIDs))
	for i, id := range req.OpticianIDs {
		field := validation.Index("optician_ids", i)
		if id <= 0 {
			r.Add(field, "无效的门店ID")
			continue
		}
		if _, dup := seen[id]; dup {
			r.Add(field, "门店重复")
		}
		seen[id] = struct{}{}
	}
}

func checkReplication(r *validation.Result, req *CreateRequest) {
	if !req.CardMode.IsValid() {
		r.Add("card_mode", "无效的卡片模式")
		return
	}
	if !req.IncrementType.IsValid() {
		r.Add("increment_type", "无效的递增类型")
		return
	}

	switch req.CardMode {
	case models.CardModeManual:
		if req.IncrementType != models.IncrementNenhum {
			r.Add("increment_type", "手动模式不支持递增")
		}
		if req.IncrementFactor != nil {
			r.Add("increment_factor", "手动模式不支持递增系数")
		}
		if req.CardCeiling != nil {
			r.Add("card_ceiling", "手动模式不支持卡片上限")
		}
		checkManualSequences(r, req.Cards)

	case models.CardModeAutoReplicante:
		if len(req.Cards) != 1 || req.Cards[0].Sequence != 1 {
			r.Add("cards", "自动复制模式需且仅需一张序号为1的基础卡片")
		}
		switch req.IncrementType {
		case models.IncrementMultiplicador:
			if req.IncrementFactor == nil {
				r.Add("increment_factor", "递增类型为 MULTIPLICADOR 时必须填写递增系数")
			} else {
				validation.IntRange(r, "increment_factor", *req.IncrementFactor, 1, 100)
			}
		case models.IncrementNenhum:
			if req.IncrementFactor != nil {
				r.Add("increment_factor", "递增类型为 NENHUM 时不能填写递增系数")
			}
		}
		if req.CardCeiling != nil {
			validation.IntRange(r, "card_ceiling", *req.CardCeiling, 2, 1000)
		}
	}
}

// checkManualSequences 手动模式卡片序号需为 1..N 连续
func checkManualSequences(r *validation.Result, cards []CardInput) {
	if len(cards) == 0 {
		return
	}
	seqs := make([]int, 0, len(cards))
	for _, c := range cards {
		seqs = append(seqs, c.Sequence)
	}
	sort.Ints(seqs)
	for i, seq := range seqs {
		if seq != i+1 {
			r.Add("cards", "卡片序号需从1开始连续且不重复")
			return
		}
	}
}

func checkCards(r *validation.Result, req *CreateRequest) {
	if len(req.Cards) == 0 {
		r.Add("cards", "至少需要一张卡片")
		return
	}
	for i := range req.Cards {
		validateCard(r, validation.Index("cards", i), &req.Cards[i])
	}
}

func validateCard(r *validation.Result, path string, card *CardInput) {
	if card.Sequence < 1 {
		r.Add(validation.Path(path, "sequence"), "序号必须大于0")
	}
	validation.RuneLength(r, validation.Path(path, "description"), card.Description, 0, 255)

	if len(card.Requirements) == 0 {
		r.Add(validation.Path(path, "requirements"), "至少需要一个要求")
		return
	}
	ordens := make(map[int]struct{}, len(card.Requirements))
	for i := range card.Requirements {
		reqPath := validation.Index(validation.Path(path, "requirements"), i)
		req := &card.Requirements[i]
		if _, dup := ordens[req.Ordem]; dup {
			r.Add(validation.Path(reqPath, "ordem"), "同一卡片内 ordem 不能重复")
		}
		ordens[req.Ordem] = struct{}{}
		validateRequirement(r, reqPath, req)
	}
}

func validateRequirement(r *validation.Result, path string, req *RequirementInput) {
	validation.RuneLength(r, validation.Path(path, "description"), req.Description, 3, 255)
	validation.IntRange(r, validation.Path(path, "quantity"), req.Quantity, 1, 100000)
	if !req.Unit.IsValid() {
		r.Add(validation.Path(path, "unit"), "无效的单位")
	}
	if req.Ordem < 1 {
		r.Add(validation.Path(path, "ordem"), "ordem 必须大于0")
	}

	if len(req.Conditions) == 0 {
		r.Add(validation.Path(path, "conditions"), "至少需要一个条件")
		return
	}
	for i := range req.Conditions {
		validateCondition(r, validation.Index(validation.Path(path, "conditions"), i), &req.Conditions[i])
	}
}

func validateCondition(r *validation.Result, path string, cond *ConditionInput) {
	fieldOK := cond.Field.IsValid()
	opOK := cond.Operator.IsValid()
	if !fieldOK {
		r.Add(validation.Path(path, "field"), "无效的条件字段")
	}
	if !opOK {
		r.Add(validation.Path(path, "operator"), "无效的条件运算符")
	}
	if fieldOK && opOK && !cond.Operator.Supports(cond.Field) {
		r.Addf(validation.Path(path, "operator"), "字段 %s 不支持运算符 %s", cond.Field, cond.Operator)
	}

	valuePath := validation.Path(path, "value")
	validation.RuneLength(r, valuePath, cond.Value, 1, 255)
	if fieldOK && cond.Field.IsNumeric() && !r.Has(valuePath) {
		if _, err := validation.ParseDecimal(cond.Value); err != nil {
			r.Add(valuePath, "销售金额条件的值必须是数字")
		}
	}
}

// checkEvents 校验随活动一起创建的特殊活动，活动边界取请求中的时间
func checkEvents(r *validation.Result, req *CreateRequest, clock validation.Clock, policy event.Policy) {
	if len(req.Events) == 0 {
		return
	}
	bounds := &models.Campaign{StartAt: req.StartAt, EndAt: req.EndAt}
	for i := range req.Events {
		path := validation.Index("events", i)
		sub := event.Validate(&req.Events[i], bounds, clock, policy, true)
		for _, fe := range sub.Errors {
			r.Add(validation.Path(path, fe.Field), fe.Message)
		}
	}

	events := req.EventModels()
	for i := range events {
		if other := event.FindOverlap(&events[i], events[:i]); other != nil {
			r.Addf(validation.Path(validation.Index("events", i), "start_at"), "与特殊活动「%s」时间重叠", other.Name)
		}
	}
}
