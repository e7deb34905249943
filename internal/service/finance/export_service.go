package finance

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/dumeirei/incentive-backend/internal/common/errors"
	"github.com/dumeirei/incentive-backend/internal/models"
	"github.com/dumeirei/incentive-backend/internal/repository"
)

// exportLimit 单次导出的最大条数
const exportLimit = 10000

// ExportService 账本导出服务
type ExportService struct {
	ledgerRepo *repository.LedgerRepository
	now        func() time.Time
}

// NewExportService 创建账本导出服务
func NewExportService(ledgerRepo *repository.LedgerRepository) *ExportService {
	return &ExportService{ledgerRepo: ledgerRepo, now: time.Now}
}

// ExportEntriesRequest 导出流水请求
type ExportEntriesRequest struct {
	UserID     int64
	CampaignID *int64
	Kind       models.LedgerKind
	StartDate  *time.Time
	EndDate    *time.Time
}

// ExportEntries 导出账本流水为 CSV
func (s *ExportService) ExportEntries(ctx context.Context, req *ExportEntriesRequest) ([]byte, string, error) {
	entries, _, err := s.ledgerRepo.List(ctx, repository.LedgerListParams{
		Offset:     0,
		Limit:      exportLimit,
		UserID:     req.UserID,
		CampaignID: req.CampaignID,
		Kind:       req.Kind,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	})
	if err != nil {
		return nil, "", errors.ErrExportFailed.WithError(err)
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 显示
	buf.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(buf)
	headers := []string{"流水ID", "用户ID", "类型", "金额", "活动ID", "卡片序号", "倍数", "特殊活动ID", "兑换ID", "备注", "创建时间"}
	if err := writer.Write(headers); err != nil {
		return nil, "", errors.ErrExportFailed.WithError(err)
	}

	for _, e := range entries {
		multiplier := ""
		if e.Multiplier != nil {
			multiplier = e.Multiplier.StringFixed(2)
		}
		row := []string{
			fmt.Sprintf("%d", e.ID),
			fmt.Sprintf("%d", e.UserID),
			getKindName(e.Kind),
			e.Amount.StringFixed(2),
			optionalInt64(e.CampaignID),
			optionalInt(e.CardSequence),
			multiplier,
			optionalInt64(e.EventID),
			optionalInt64(e.RedemptionID),
			e.Remark,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(row); err != nil {
			return nil, "", errors.ErrExportFailed.WithError(err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", errors.ErrExportFailed.WithError(err)
	}

	filename := fmt.Sprintf("ledger_%s.csv", s.now().Format("20060102150405"))
	return buf.Bytes(), filename, nil
}

func getKindName(kind models.LedgerKind) string {
	switch kind {
	case models.LedgerCoins:
		return "金币奖励"
	case models.LedgerReal:
		return "现金积分奖励"
	case models.LedgerCommission:
		return "店长佣金"
	case models.LedgerRedemption:
		return "兑换扣减"
	case models.LedgerRedemptionRefund:
		return "兑换退回"
	default:
		return string(kind)
	}
}

func optionalInt64(v *int64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}
