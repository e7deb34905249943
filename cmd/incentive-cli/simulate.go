package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dumeirei/incentive-backend/internal/common/validation"
	"github.com/dumeirei/incentive-backend/internal/service/campaign"
	"github.com/dumeirei/incentive-backend/internal/service/event"
	"github.com/dumeirei/incentive-backend/internal/service/progression"
)

type simulateOptions struct {
	*cliOptions
	salesFile string
	asJSON    bool
}

// salesFile 销售明细文件
type salesFile struct {
	Sales []progression.SimulatedSale `yaml:"sales"`
}

func newSimulateCmd(root *cliOptions) *cobra.Command {
	opts := &simulateOptions{cliOptions: root}
	cmd := &cobra.Command{
		Use:   "simulate <campaign.yaml>",
		Short: "用销售明细模拟卡片进度",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.salesFile, "sales", "s", "", "销售明细 YAML 文件 (required)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "以 JSON 输出结果")
	_ = cmd.MarkFlagRequired("sales")
	return cmd
}

func (o *simulateOptions) run(cmd *cobra.Command, path string) error {
	incentive, err := o.loadConfig()
	if err != nil {
		return err
	}

	var req campaign.CreateRequest
	if err := readYAML(path, &req); err != nil {
		return err
	}
	var sales salesFile
	if err := readYAML(o.salesFile, &sales); err != nil {
		return err
	}

	// 历史活动也可模拟，不检查特殊活动的创建提前量
	policy := event.Policy{MinDuration: incentive.EventMinDuration()}
	result := campaign.ValidateCampaign(&req, validation.NewClock(time.Time{}, incentive.Location()), policy)
	if !result.Valid() {
		return fmt.Errorf("campaign definition is invalid: %w", result.Err())
	}

	events := req.EventModels()
	for i := range events {
		events[i].ID = int64(i + 1)
	}
	sim, err := progression.Simulate(req.ToModel(), events, sales.Sales)
	if err != nil {
		return err
	}

	if o.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sim)
	}
	printSimulation(cmd.OutOrStdout(), sim)
	return nil
}

func printSimulation(out io.Writer, sim *progression.Simulation) {
	for _, line := range sim.Lines {
		switch {
		case line.Duplicate:
			fmt.Fprintf(out, "%-12s 重复明细，已忽略\n", line.ExternalID)
			continue
		case line.SkipReason != "":
			fmt.Fprintf(out, "%-12s 跳过 (%s)\n", line.ExternalID, line.SkipReason)
			continue
		}
		fmt.Fprintf(out, "%-12s 计入 %d，丢弃 %d\n", line.ExternalID, line.UnitsAllocated, line.UnitsDiscarded)
		for _, c := range line.Completions {
			fmt.Fprintf(out, "  完成卡片 #%d  倍数 %s  金币 %d  现金积分 %s  佣金 %s\n",
				c.Sequence, c.Reward.Multiplier.String(), c.Reward.Coins,
				c.Reward.Real.StringFixed(2), c.Reward.Commission.StringFixed(2))
		}
	}

	snap := sim.Snapshot
	fmt.Fprintf(out, "\n合计: 金币 %d  现金积分 %s  佣金 %s\n", sim.Coins, sim.Real.StringFixed(2), sim.Commission.StringFixed(2))
	if snap.Exhausted {
		fmt.Fprintf(out, "全部卡片已完成\n")
	} else {
		fmt.Fprintf(out, "当前卡片: #%d\n", snap.ActiveSequence)
	}
	for _, card := range snap.Cards {
		mark := " "
		if card.Complete {
			mark = "x"
		}
		fmt.Fprintf(out, "  [%s] #%d %s\n", mark, card.Sequence, card.Description)
		for _, r := range card.Requirements {
			fmt.Fprintf(out, "      ordem %d  %s  %d/%d %s\n", r.Ordem, r.Description, r.Accumulated, r.Target, r.Unit)
		}
	}
}
