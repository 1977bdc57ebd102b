// Package config holds the run settings: built-in defaults, overlaid by an
// optional YAML file, overlaid in turn by command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"CourtGrid/pkg/browser"
	"gopkg.in/yaml.v3"
)

const (
	defaultOutput     = "README.md"
	defaultTimezone   = "Asia/Singapore"
	defaultScreenshot = "demo.png"

	changiURL   = "https://www.carc.org.sg/FacilityBooking.aspx"
	changiLabel = "Changi Airport Badminton Courts"
	expoURL     = "https://singaporebadmintonhall.getomnify.com/widgets/O3MRKGBH359GA55KHMG1RD"
	expoLabel   = "SBH Expo Badminton Courts"
	sutdLogin   = "https://usermgmtsys.sutd.edu.sg/login"
	sutdCourts  = "https://facilitybookingsys.sutd.edu.sg/bookings/booking-scheduler-search?building_id=19"
)

type Config struct {
	Output   string  `yaml:"output"`
	Timezone string  `yaml:"timezone"`
	Strict   bool    `yaml:"strict"`
	Browser  Browser `yaml:"browser"`
	Changi   Changi  `yaml:"changi"`
	Expo     Expo    `yaml:"expo"`
	SUTD     SUTD    `yaml:"sutd"`
}

type Browser struct {
	ExecPath        string        `yaml:"exec_path"`
	Headless        bool          `yaml:"headless"`
	UserAgent       string        `yaml:"user_agent"`
	PageTimeout     time.Duration `yaml:"page_timeout"`
	WaitTimeout     time.Duration `yaml:"wait_timeout"`
	OptionalTimeout time.Duration `yaml:"optional_timeout"`
	PageInterval    time.Duration `yaml:"page_interval"`
	DiagnosticsDir  string        `yaml:"diagnostics_dir"`
}

type Changi struct {
	URL        string   `yaml:"url"`
	Label      string   `yaml:"label"`
	Facilities []string `yaml:"facilities"`
}

type Expo struct {
	URL          string `yaml:"url"`
	Label        string `yaml:"label"`
	FirstHour    int    `yaml:"first_hour"`
	LastHour     int    `yaml:"last_hour"`
	DisplayLimit int    `yaml:"display_limit"`
}

type SUTD struct {
	LoginURL   string `yaml:"login_url"`
	CourtsURL  string `yaml:"courts_url"`
	Screenshot string `yaml:"screenshot"`
}

// Default is the configuration used when no file is given.
func Default() Config {
	options := browser.DefaultOptions()
	return Config{
		Output:   defaultOutput,
		Timezone: defaultTimezone,
		Browser: Browser{
			ExecPath:        options.ExecPath,
			Headless:        options.Headless,
			UserAgent:       options.UserAgent,
			PageTimeout:     options.PageTimeout,
			WaitTimeout:     options.WaitTimeout,
			OptionalTimeout: options.OptionalTimeout,
			PageInterval:    options.PageInterval,
			DiagnosticsDir:  options.DiagnosticsDir,
		},
		Changi: Changi{
			URL:        changiURL,
			Label:      changiLabel,
			Facilities: []string{"Badminton Court 1", "Badminton Court 2"},
		},
		Expo: Expo{
			URL:          expoURL,
			Label:        expoLabel,
			FirstHour:    8,
			LastHour:     23,
			DisplayLimit: 3,
		},
		SUTD: SUTD{
			LoginURL:   sutdLogin,
			CourtsURL:  sutdCourts,
			Screenshot: defaultScreenshot,
		},
	}
}

// Load overlays the YAML file at path on the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

func (c Config) Validate() error {
	var problems []error
	if c.Output == "" {
		problems = append(problems, errors.New("output is empty"))
	}
	if len(c.Changi.Facilities) != 2 {
		problems = append(problems, fmt.Errorf("changi needs exactly two facilities, got %d", len(c.Changi.Facilities)))
	}
	if c.Expo.FirstHour < 0 || c.Expo.LastHour > 23 || c.Expo.FirstHour > c.Expo.LastHour {
		problems = append(problems, fmt.Errorf("expo hours %d..%d out of range", c.Expo.FirstHour, c.Expo.LastHour))
	}
	if c.Expo.DisplayLimit < 0 {
		problems = append(problems, errors.New("expo display_limit is negative"))
	}
	if c.Browser.WaitTimeout <= 0 || c.Browser.PageTimeout <= 0 {
		problems = append(problems, errors.New("browser timeouts must be positive"))
	}
	return errors.Join(problems...)
}

func (c Config) Policy() browser.Policy {
	if c.Strict {
		return browser.Strict
	}
	return browser.BestEffort
}

// BrowserOptions turns the browser section into session options for one run.
func (c Config) BrowserOptions(runID string) browser.Options {
	return browser.Options{
		ExecPath:        c.Browser.ExecPath,
		Headless:        c.Browser.Headless,
		UserAgent:       c.Browser.UserAgent,
		PageTimeout:     c.Browser.PageTimeout,
		WaitTimeout:     c.Browser.WaitTimeout,
		OptionalTimeout: c.Browser.OptionalTimeout,
		PageInterval:    c.Browser.PageInterval,
		DiagnosticsDir:  c.Browser.DiagnosticsDir,
		RunID:           runID,
	}
}
