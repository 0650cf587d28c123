package cmd

import (
	"fmt"
	"os"

	"cycleplot/internal/cmd/root"
	"cycleplot/pkg/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "cycleplot [workbook.xlsx ...]",
	Short: "Convert battery cycling workbooks into plot projects",
	Long: `cycleplot reads electrochemical cycling workbooks (sheet "Record Sheet"),
extracts the specific-capacity and voltage columns of every cycle, writes a
wide plot-data CSV and saves a plot project with one trace per cycle.

Without arguments it opens an interactive form. With --no-tui (or in watch
mode) it runs headlessly.`,
	Run: root.Run,
}

func init() {
	cobra.OnInitialize(initLogger)

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("no-tui", false, "Run without TUI (batch mode)")
	rootCmd.PersistentFlags().String("template", "", "Plot template name (default: built-in)")
	rootCmd.PersistentFlags().String("templates-dir", "", "Directory with additional plot templates")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("no-tui", rootCmd.PersistentFlags().Lookup("no-tui"))
	viper.BindPFlag("template", rootCmd.PersistentFlags().Lookup("template"))
	viper.BindPFlag("templates-dir", rootCmd.PersistentFlags().Lookup("templates-dir"))

	// Set default values
	viper.SetDefault("debug", false)
	viper.SetDefault("no-tui", false)
	viper.SetDefault("template", "")
	viper.SetDefault("templates-dir", "")
}

func initLogger() {
	log.InitLogger(viper.GetBool("debug"))
}

func Execute() {
	defer log.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
