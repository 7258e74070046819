package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/Alijeyrad/spa_backend/cmd/http"
	systemcmd "github.com/Alijeyrad/spa_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "spa",
	Short: "Spa back office: treatment packages, appointments and resource scheduling.",
	Long: `spa runs the back office of a spa: the product catalog, sales that issue
prepaid treatment packages, and appointments that consume package items while
keeping technicians and beds from being double-booked.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
