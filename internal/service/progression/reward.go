package progression

import (
	"github.com/shopspring/decimal"

	"github.com/dumeirei/incentive-backend/internal/models"
)

// Reward 单张卡片完成时的奖励
type Reward struct {
	Coins      int64           `json:"coins"`
	Real       decimal.Decimal `json:"real"`
	Commission decimal.Decimal `json:"commission"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// ComputeReward 按倍数计算奖励
// 金币取整，现金积分与佣金保留两位小数，佣金基于倍数后的现金积分
func ComputeReward(c *models.Campaign, multiplier decimal.Decimal) Reward {
	if multiplier.LessThanOrEqual(decimal.Zero) {
		multiplier = decimal.NewFromInt(1)
	}
	coins := decimal.NewFromInt(c.CoinReward).Mul(multiplier).Round(0).IntPart()
	realAmt := c.RealReward.Mul(multiplier).Round(2)
	commission := realAmt.Mul(c.CommissionRate).Round(2)
	return Reward{
		Coins:      coins,
		Real:       realAmt,
		Commission: commission,
		Multiplier: multiplier,
	}
}
