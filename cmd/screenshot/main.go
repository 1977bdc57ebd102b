package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"CourtGrid/pkg/browser"
	"CourtGrid/pkg/config"
	"CourtGrid/pkg/log"
	"CourtGrid/pkg/sites"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const loginSUTD = "sutd"

func main() {
	pageURL := flag.String("url", "", "page to capture")
	outputPath := flag.String("out", "", "PNG path (default screenshot.png, or the config's sutd.screenshot with -login)")
	login := flag.String("login", "", `log in first; only "sutd" is known`)
	envPath := flag.String("env", ".env", "dotenv file holding IBMS_USERNAME and IBMS_PASSWORD")
	configPath := flag.String("config", "", "path to a YAML config file layered over the defaults")
	headful := flag.Bool("show", false, "run Chrome with a window")
	flag.Parse()

	runID := uuid.NewString()
	if err := log.Init(false, zap.String("run", runID)); err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(*configPath, *pageURL, *outputPath, *login, *envPath, *headful, runID); err != nil {
		log.L().Fatal("screenshot_failed", zap.Error(err))
	}
}

func run(configPath, pageURL, outputPath, login, envPath string, headful bool, runID string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if headful {
		settings.Browser.Headless = false
	}

	var check *sites.SUTD
	switch login {
	case "":
		if pageURL == "" {
			return errors.New("-url is required without -login")
		}
		if outputPath == "" {
			outputPath = "screenshot.png"
		}
	case loginSUTD:
		credentials, err := config.LoadCredentials(envPath)
		if err != nil {
			return err
		}
		check = sites.NewSUTD(settings.SUTD, credentials)
		if outputPath == "" {
			outputPath = settings.SUTD.Screenshot
		}
	default:
		return fmt.Errorf("unknown -login %q", login)
	}

	ctx := context.Background()
	session, err := browser.Start(ctx, settings.BrowserOptions(runID))
	if err != nil {
		return err
	}
	defer session.Close()

	if check != nil {
		return check.Check(ctx, session, outputPath)
	}
	if _, err := session.Fetch(ctx, pageURL); err != nil {
		return err
	}
	return session.Screenshot(ctx, outputPath)
}
