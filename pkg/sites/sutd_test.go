package sites

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"CourtGrid/pkg/browser"
	"CourtGrid/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testLoginURL  = "https://login.test/login"
	testCourtsURL = "https://courts.test/scheduler"
	loginPage     = `<html><body><form><input id="username"><input id="password" type="password">
<button id="btn_submit">Sign in</button></form></body></html>`
	courtsPage = `<html><body><div class="scheduler">Courts</div></body></html>`
)

// recorder is a replayed browser that remembers what was typed and saves the
// current markup in place of a screenshot.
type recorder struct {
	*browser.Replay
	typed   map[string]string
	current string
}

func (r *recorder) Fetch(ctx context.Context, url string) (browser.Snapshot, error) {
	snapshot, err := r.Replay.Fetch(ctx, url)
	r.current = snapshot.HTML
	return snapshot, err
}

func (r *recorder) Type(ctx context.Context, selector browser.Selector, text string) error {
	if _, err := r.Replay.WaitForPresence(ctx, selector); err != nil {
		return err
	}
	r.typed[selector.Value] = text
	return nil
}

func (r *recorder) Screenshot(_ context.Context, path string) error {
	return os.WriteFile(path, []byte(r.current), 0o644)
}

func newRecorder(pages map[string]string) *recorder {
	return &recorder{Replay: &browser.Replay{Pages: pages}, typed: map[string]string{}}
}

func sutd() *SUTD {
	return NewSUTD(
		config.SUTD{LoginURL: testLoginURL, CourtsURL: testCourtsURL},
		config.Credentials{Username: "student", Password: "s3cret"},
	)
}

func TestSUTDLogsInAndCapturesCourts(t *testing.T) {
	session := newRecorder(map[string]string{testLoginURL: loginPage, testCourtsURL: courtsPage})
	path := filepath.Join(t.TempDir(), "demo.png")

	require.NoError(t, sutd().Check(context.Background(), session, path))
	assert.Equal(t, map[string]string{"username": "student", "password": "s3cret"}, session.typed)

	captured, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(captured), "scheduler")
}

func TestSUTDMissingLoginFormFails(t *testing.T) {
	session := newRecorder(map[string]string{testLoginURL: courtsPage, testCourtsURL: courtsPage})
	err := sutd().Check(context.Background(), session, filepath.Join(t.TempDir(), "demo.png"))
	assert.ErrorIs(t, err, browser.ErrTimeout)
	assert.ErrorContains(t, err, "sutd username")
}

func TestRegistryAndSelect(t *testing.T) {
	registry := Registry(config.Default())

	selected, err := Select(registry, "expo, changi")
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "expo", selected[0].Name())
	assert.Equal(t, "changi", selected[1].Name())

	_, err = Select(registry, "changi,tennis")
	assert.ErrorContains(t, err, `unknown site "tennis"`)

	_, err = Select(registry, " , ")
	assert.Error(t, err)
}
