package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dumeirei/incentive-backend/internal/common/validation"
	"github.com/dumeirei/incentive-backend/internal/service/campaign"
	"github.com/dumeirei/incentive-backend/internal/service/event"
)

type validateOptions struct {
	*cliOptions
	now string
}

func newValidateCmd(root *cliOptions) *cobra.Command {
	opts := &validateOptions{cliOptions: root}
	cmd := &cobra.Command{
		Use:   "validate <campaign.yaml>",
		Short: "校验活动定义",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.now, "now", "", "参考时间（RFC3339），默认当前时间")
	return cmd
}

func (o *validateOptions) run(cmd *cobra.Command, path string) error {
	incentive, err := o.loadConfig()
	if err != nil {
		return err
	}
	now := time.Now()
	if o.now != "" {
		if now, err = time.Parse(time.RFC3339, o.now); err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
	}

	var req campaign.CreateRequest
	if err := readYAML(path, &req); err != nil {
		return err
	}

	policy := event.Policy{MinLead: incentive.EventMinLead(), MinDuration: incentive.EventMinDuration()}
	result := campaign.ValidateCampaign(&req, validation.NewClock(now, incentive.Location()), policy)

	out := cmd.OutOrStdout()
	if result.Valid() {
		fmt.Fprintf(out, "活动定义有效\n")
		fmt.Fprintf(out, "  标题: %s\n", req.Title)
		fmt.Fprintf(out, "  模式: %s / %s\n", req.CardMode, req.IncrementType)
		fmt.Fprintf(out, "  卡片: %d\n", len(req.Cards))
		fmt.Fprintf(out, "  特殊活动: %d\n", len(req.Events))
		return nil
	}

	fmt.Fprintf(out, "活动定义无效，共 %d 项错误:\n", len(result.Errors))
	for _, fe := range result.Errors {
		fmt.Fprintf(out, "  - %s: %s\n", fe.Field, fe.Message)
	}
	return fmt.Errorf("campaign definition is invalid")
}
