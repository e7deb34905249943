// Package main 激励活动命令行工具，离线校验活动定义并模拟销售进度
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dumeirei/incentive-backend/internal/common/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cliOptions 全局参数
type cliOptions struct {
	cfgFile string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "incentive-cli",
		Short:         "激励活动工具",
		Long:          `离线校验激励活动定义，并用一组销售明细模拟卡片进度与奖励。`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "配置文件路径")

	root.AddCommand(newValidateCmd(opts), newSimulateCmd(opts), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "打印版本",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "incentive-cli version %s\n", version)
		},
	}
}

// loadConfig 加载业务配置，未指定文件时使用默认值
func (o *cliOptions) loadConfig() (*config.IncentiveConfig, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg.Business.Incentive, nil
}

// readYAML 读取 YAML 文件到 out
func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
