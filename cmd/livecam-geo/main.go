// 程序入口：读取配置、组装数据源与管道并执行一次对账；无参数为完整运行，带任意参数只做存活校验
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"livecam-geo/internal/logger"
	"livecam-geo/internal/version"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var red = color.New(color.FgRed, color.Bold)

func newRootCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "livecam-geo [maintenance]",
		Short: "Reconcile the live camera geo snapshot",
		Long: `livecam-geo validates the previous geo snapshot against the liveness API,
discovers new live cameras, resolves their coordinates and writes geo.csv.gz.

With any positional argument only validation runs and geo.csv.gz is rewritten;
blacklist and diagnostic files are left untouched.`,
		Args:          cobra.ArbitraryArgs,
		Version:       version.Commit,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load(envFile)
			l := logger.Setup()
			runID := logger.WithRun()
			l.Debug("log_init_ok")
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, runID, len(args) == 0)
		},
	}
	cmd.Flags().StringVar(&envFile, "env", ".env", "dotenv file loaded before reading the environment")
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		red.Fprintf(os.Stderr, "livecam-geo: %v\n", err)
		os.Exit(1)
	}
}
