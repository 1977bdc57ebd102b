package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"CourtGrid/pkg/config"
	"CourtGrid/pkg/log"
	"CourtGrid/pkg/pipeline"
	"CourtGrid/pkg/sites"
	"go.uber.org/zap"
)

const (
	flagConfigUsage = "path to a YAML config file layered over the defaults"
	flagOutUsage    = "markdown report to overwrite (default from config: README.md)"
	flagSitesUsage  = "comma separated sites to scrape, in report order"
	flagStrictUsage = "stop at the first failed step instead of leaving cells empty"
	flagReplayUsage = "directory with replay.yaml and captured pages; skips Chrome"
	flagICSUsage    = "also write available slots as an iCalendar feed to this path"
	flagXLSXUsage   = "also write the grids as a workbook to this path"
	flagCronUsage   = `repeat on this cron schedule, e.g. "0 */2 * * *"`
	flagProdUsage   = "JSON logs"
	defaultSites    = "changi,expo"
)

func main() {
	configPath := flag.String("config", "", flagConfigUsage)
	outputPath := flag.String("out", "", flagOutUsage)
	siteNames := flag.String("sites", defaultSites, flagSitesUsage)
	strict := flag.Bool("strict", false, flagStrictUsage)
	replayDir := flag.String("replay", "", flagReplayUsage)
	icsPath := flag.String("ics", "", flagICSUsage)
	xlsxPath := flag.String("xlsx", "", flagXLSXUsage)
	schedule := flag.String("cron", "", flagCronUsage)
	prod := flag.Bool("prod", false, flagProdUsage)
	flag.Parse()

	if err := log.Init(*prod); err != nil {
		panic(err)
	}
	defer log.Sync()

	settings, err := config.Load(*configPath)
	if err != nil {
		log.L().Fatal("config_invalid", zap.Error(err))
	}
	if *outputPath != "" {
		settings.Output = *outputPath
	}
	if *strict {
		settings.Strict = true
	}
	selected, err := sites.Select(sites.Registry(settings), *siteNames)
	if err != nil {
		log.L().Fatal("sites_invalid", zap.Error(err))
	}
	request := pipeline.Request{
		Config:    settings,
		Sites:     selected,
		ReplayDir: *replayDir,
		ICSPath:   *icsPath,
		XLSXPath:  *xlsxPath,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *schedule == "" {
		if _, err := pipeline.Run(ctx, request); err != nil {
			stop()
			log.L().Fatal("update_failed", zap.Error(err))
		}
		return
	}

	scheduler := newScheduler(log.L())
	if _, err := scheduler.AddFunc(*schedule, func() {
		if _, err := pipeline.Run(ctx, request); err != nil {
			log.L().Error("update_failed", zap.Error(err))
		}
	}); err != nil {
		log.L().Fatal("cron_invalid", zap.String("spec", *schedule), zap.Error(err))
	}
	scheduler.Start()
	log.L().Info("scheduler_started", zap.String("spec", *schedule), zap.String("sites", *siteNames))
	<-ctx.Done()
	<-scheduler.Stop().Done()
	log.L().Info("scheduler_stopped")
}
