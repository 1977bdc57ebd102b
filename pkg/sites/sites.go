// Package sites holds the per-website flows that turn a browser session into
// a report section.
package sites

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"CourtGrid/pkg/browser"
	"CourtGrid/pkg/config"
	"CourtGrid/pkg/report"
)

// Site scrapes one booking website.
type Site interface {
	Name() string
	Scrape(ctx context.Context, fetcher browser.Fetcher) (report.Section, error)
}

// Registry returns every grid site known to the configuration, keyed by name.
func Registry(settings config.Config) map[string]Site {
	policy := settings.Policy()
	return map[string]Site{
		changiName: &Changi{
			URL:        settings.Changi.URL,
			Label:      settings.Changi.Label,
			Facilities: settings.Changi.Facilities,
			Policy:     policy,
		},
		expoName: &Expo{
			URL:          settings.Expo.URL,
			Label:        settings.Expo.Label,
			FirstHour:    settings.Expo.FirstHour,
			LastHour:     settings.Expo.LastHour,
			DisplayLimit: settings.Expo.DisplayLimit,
			Policy:       policy,
		},
	}
}

// Select picks sites by a comma separated list of names, keeping the list
// order. Unknown names are an error.
func Select(registry map[string]Site, names string) ([]Site, error) {
	var selected []Site
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		site, ok := registry[name]
		if !ok {
			known := make([]string, 0, len(registry))
			for key := range registry {
				known = append(known, key)
			}
			sort.Strings(known)
			return nil, fmt.Errorf("unknown site %q (known: %s)", name, strings.Join(known, ", "))
		}
		selected = append(selected, site)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no sites selected")
	}
	return selected, nil
}
