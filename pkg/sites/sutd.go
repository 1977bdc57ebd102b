package sites

import (
	"context"
	"fmt"

	"CourtGrid/pkg/browser"
	"CourtGrid/pkg/config"
	"CourtGrid/pkg/log"
	"go.uber.org/zap"
)

const (
	sutdUsernameField = "username"
	sutdPasswordField = "password"
	sutdSubmit        = "btn_submit"
	sutdPageBody      = "body"
)

// Interactive is a Fetcher that can also type into fields and capture the
// screen.
type Interactive interface {
	browser.Fetcher
	Type(ctx context.Context, selector browser.Selector, text string) error
	Screenshot(ctx context.Context, path string) error
}

// SUTD logs in to the campus booking system and screenshots the court
// scheduler. It checks that the credentials still work; no grid is read.
type SUTD struct {
	LoginURL    string
	CourtsURL   string
	Credentials config.Credentials
}

func NewSUTD(settings config.SUTD, credentials config.Credentials) *SUTD {
	return &SUTD{LoginURL: settings.LoginURL, CourtsURL: settings.CourtsURL, Credentials: credentials}
}

func (s *SUTD) Check(ctx context.Context, session Interactive, screenshotPath string) error {
	log.FromContext(ctx).Info("login_start", zap.String("url", s.LoginURL), zap.String("user", s.Credentials.Username))
	if _, err := session.Fetch(ctx, s.LoginURL); err != nil {
		return fmt.Errorf("sutd login page: %w", err)
	}
	if err := session.Type(ctx, browser.ByID(sutdUsernameField), s.Credentials.Username); err != nil {
		return fmt.Errorf("sutd username: %w", err)
	}
	if err := session.Type(ctx, browser.ByID(sutdPasswordField), s.Credentials.Password); err != nil {
		return fmt.Errorf("sutd password: %w", err)
	}
	if err := session.ClickAndWait(ctx, browser.ByID(sutdSubmit)); err != nil {
		return fmt.Errorf("sutd submit: %w", err)
	}
	if _, err := session.Fetch(ctx, s.CourtsURL); err != nil {
		return fmt.Errorf("sutd courts: %w", err)
	}
	if _, err := session.WaitForPresence(ctx, browser.ByCSS(sutdPageBody)); err != nil {
		return fmt.Errorf("sutd courts: %w", err)
	}
	if err := session.Screenshot(ctx, screenshotPath); err != nil {
		return err
	}
	log.FromContext(ctx).Info("login_checked", zap.String("screenshot", screenshotPath))
	return nil
}

var _ Interactive = (*browser.Session)(nil)
