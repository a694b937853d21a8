package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david/grant-agent/internal/app"
	"github.com/david/grant-agent/internal/config"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	dir := t.TempDir()
	a, err := app.Build(context.Background(), &config.Options{
		DataDir:               dir,
		GrantsFile:            filepath.Join(dir, "grants.js"),
		RunLogFile:            filepath.Join(dir, "runs.json"),
		Backend:               config.BackendFile,
		WebhookTimeoutSeconds: 5,
		AlertThreshold:        85,
		Source:                "mock_scan",
		Timezone:              "UTC",
	})
	require.NoError(t, err)
	return a
}

func runMenu(t *testing.T, a *app.App, input string) (*Menu, string) {
	t.Helper()
	var out bytes.Buffer
	m := NewMenu(a, strings.NewReader(input), &out)
	require.NoError(t, m.Run(context.Background()))
	return m, out.String()
}

func TestMenu_ScanThenStats(t *testing.T) {
	a := newTestApp(t)
	_, out := runMenu(t, a, "1\n2\n5\n")

	assert.Contains(t, out, "Total grants")
	assert.Contains(t, out, "Goodbye")
	assert.Equal(t, 3, a.Store.Len())

	entries, err := a.RunLog.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMenu_TestAlertCountsWithoutSink(t *testing.T) {
	a := newTestApp(t)
	m, out := runMenu(t, a, "3\n5\n")

	assert.Contains(t, out, "No webhook configured")
	assert.Equal(t, 1, m.Session().Test)
}

func TestMenu_FunnelConfirmAdds(t *testing.T) {
	a := newTestApp(t)
	input := "4\nGrant Name: Harbor Innovation Fund\nAmount: $20,000\nDeadline: 2030-01-15\nEND\ny\n5\n"
	_, out := runMenu(t, a, input)

	assert.Contains(t, out, "Harbor Innovation Fund")
	assert.Equal(t, 1, a.Store.Len())
	assert.Equal(t, "2030-01-15", a.Store.Records()[0].Deadline)
}

func TestMenu_FunnelDiscard(t *testing.T) {
	a := newTestApp(t)
	_, out := runMenu(t, a, "4\nTitle: Something\nEND\nn\n5\n")

	assert.Contains(t, out, "Discarded")
	assert.Equal(t, 0, a.Store.Len())
}

func TestMenu_InvalidAndEOF(t *testing.T) {
	a := newTestApp(t)
	_, out := runMenu(t, a, "9\n")
	assert.Contains(t, out, "Invalid command.")
}
