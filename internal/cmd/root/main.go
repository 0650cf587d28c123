package root

import (
	"context"
	"fmt"

	"cycleplot/internal/batch"
	"cycleplot/internal/displayer"
	"cycleplot/internal/template"
	"cycleplot/pkg/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func Run(cmd *cobra.Command, args []string) {
	registry, err := template.NewRegistry(viper.GetString("templates-dir"))
	if err != nil {
		log.Fatal("failed to load templates", zap.Error(err))
	}

	runner := batch.New(nil)

	if viper.GetBool("no-tui") {
		runBatch(runner, registry, args)
		return
	}

	d := displayer.New(runner, registry, args)
	if err := d.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func runBatch(runner *batch.Runner, registry *template.Registry, files []string) {
	if len(files) == 0 {
		log.Fatal("no input workbooks given")
	}
	tpl, err := registry.Get(viper.GetString("template"))
	if err != nil {
		log.Fatal("failed to resolve template", zap.Error(err))
	}

	reports, err := runner.ProcessBatch(context.Background(), files, tpl, batch.Callbacks{})
	for _, r := range reports {
		fmt.Printf("- %s: %d cycles -> %s\n", r.Input, r.CycleCount, r.Project)
	}
	if err != nil {
		log.Fatal("batch failed", zap.Error(err))
	}
	fmt.Printf("Processed %d files successfully.\n", len(reports))
}
