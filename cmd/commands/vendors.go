package commands

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"market_admin_v1/internal/model"
)

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "商家审核",
}

var vendorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出商家",
	RunE:  runVendorsList,
}

var vendorsSetStatusCmd = &cobra.Command{
	Use:   "set-status <pending|approved|rejected> <id>...",
	Short: "修改商家审核状态，多个 ID 时批量执行",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runVendorsSetStatus,
}

func init() {
	vendorsListCmd.Flags().String("status", "", "按状态过滤")
	vendorsSetStatusCmd.Flags().String("reason", "", "审核说明")

	vendorsCmd.AddCommand(vendorsListCmd, vendorsSetStatusCmd)
	rootCmd.AddCommand(vendorsCmd)
}

func runVendorsList(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("status")
	status := model.VendorStatus(raw)
	if raw != "" && !status.Valid() {
		return fmt.Errorf("未知的商家状态: %s", raw)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	deps, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	vendors, err := deps.Services.Catalog.ListVendors(ctx, status)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tREASON")
	for _, v := range vendors {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", v.ID, v.Name, v.Status, v.StatusReason)
	}
	return tw.Flush()
}

func runVendorsSetStatus(cmd *cobra.Command, args []string) error {
	target := model.VendorStatus(args[0])
	if !target.Valid() {
		return fmt.Errorf("未知的商家状态: %s", args[0])
	}
	ids := make([]int64, 0, len(args)-1)
	for _, a := range args[1:] {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("无效的商家 ID: %s", a)
		}
		ids = append(ids, id)
	}
	reason, _ := cmd.Flags().GetString("reason")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	deps, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	coord := deps.Services.VendorStatus
	if err := coord.Refresh(ctx); err != nil {
		return fmt.Errorf("加载商家列表失败: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(ids) == 1 {
		if err := coord.Transition(ctx, model.StatusTransitionRequest[model.VendorStatus]{
			EntityID:      ids[0],
			Target:        target,
			Justification: reason,
		}); err != nil {
			return err
		}
		fmt.Fprintf(out, "vendor %d -> %s\n", ids[0], target)
		return nil
	}

	result, err := coord.BulkTransition(ctx, ids, target, reason)
	fmt.Fprintf(out, "succeeded=%d failed=%d\n", result.SucceededCount, result.FailedCount)
	for _, id := range result.FailedIDs {
		fmt.Fprintf(out, "failed: %d\n", id)
	}
	if err != nil {
		return fmt.Errorf("列表刷新失败: %w", err)
	}
	return nil
}
