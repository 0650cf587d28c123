package watch

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cycleplot/internal/batch"
	"cycleplot/internal/template"
	"cycleplot/internal/watcher"
	"cycleplot/pkg/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func Run(cmd *cobra.Command, args []string) {
	dir := args[0]

	registry, err := template.NewRegistry(viper.GetString("templates-dir"))
	if err != nil {
		log.Fatal("failed to load templates", zap.Error(err))
	}
	tpl, err := registry.Get(viper.GetString("template"))
	if err != nil {
		log.Fatal("failed to resolve template", zap.Error(err))
	}

	w, err := watcher.New(dir, batch.New(nil), tpl)
	if err != nil {
		log.Fatal("failed to create watcher", zap.Error(err))
	}
	if err := w.Start(context.Background()); err != nil {
		log.Fatal("failed to watch directory", zap.String("dir", dir), zap.Error(err))
	}
	log.Info("watching for workbooks", zap.String("dir", dir), zap.String("template", tpl.Name))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	w.Stop()
	log.Info("watcher stopped")
}
