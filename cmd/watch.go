package cmd

import (
	"cycleplot/internal/cmd/watch"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <directory>",
	Short: "Watch a directory and convert workbooks as they appear",
	Args:  cobra.ExactArgs(1),
	Run:   watch.Run,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
