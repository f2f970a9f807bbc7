package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/sigil/internal/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
store:
  driver: memory
storage:
  driver: memory
archive:
  bucket: sigil
app:
  tick_interval_millis: 10
`

func newTestApp(t *testing.T, yaml string) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml), defaults(t.TempDir()))
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	a, err := NewWithOptions(t.Context(), Options{
		Config: cfg,
		Stdin:  &bytes.Buffer{},
		Stdout: &stdout,
		Stderr: &stderr,
	})
	require.NoError(t, err)

	return a, &stdout, &stderr
}

func run(t *testing.T, a *App, args ...string) {
	t.Helper()

	select {
	case <-a.Start(args):
	case <-time.After(5 * time.Second):
		t.Fatal("command did not finish")
	}
}

func TestApp_StartAddAndList(t *testing.T) {
	a, stdout, stderr := newTestApp(t, testConfig)

	run(t, a, "add", "-issuer", "Example", "-label", "alice", "-secret", "JBSWY3DPEHPK3PXP")

	list, err := a.Authenticator().ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Example", list[0].Issuer)

	a.Stop(context.Background())
	assert.Equal(t, 0, a.ExitCode())
	assert.Empty(t, stderr.String())
	assert.NotEmpty(t, stdout.String())
}

func TestApp_StartUsageError(t *testing.T) {
	a, _, stderr := newTestApp(t, testConfig)

	run(t, a, "frobnicate")
	a.Stop(context.Background())

	assert.Equal(t, exitUsage, a.ExitCode())
	assert.Contains(t, stderr.String(), "unknown command")
}

func TestApp_StartFailure(t *testing.T) {
	a, _, stderr := newTestApp(t, testConfig)

	run(t, a, "uri", "missing")
	a.Stop(context.Background())

	assert.Equal(t, exitFailure, a.ExitCode())
	assert.Contains(t, stderr.String(), "sigil:")
}

func TestApp_Watch(t *testing.T) {
	a, _, _ := newTestApp(t, testConfig)
	t.Cleanup(func() { a.Stop(context.Background()) })

	_, err := a.Authenticator().ImportURI(context.Background(), "otpauth://totp/Example:alice?secret=JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ch := a.Watch(ctx)

	for range 2 {
		select {
		case displays := <-ch:
			require.Len(t, displays, 1)
			assert.Len(t, displays[0].Code, 6)
		case <-time.After(2 * time.Second):
			t.Fatal("no snapshot received")
		}
	}

	cancel()
	for range ch {
	}
}

func TestNewWithOptions_UnknownStoreDriver(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("store:\n  driver: sqlite\n"), defaults(t.TempDir()))
	require.NoError(t, err)

	a, err := NewWithOptions(t.Context(), Options{Config: cfg})

	assert.Nil(t, a)
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestNewWithOptions_BoltStore(t *testing.T) {
	home := t.TempDir()
	cfg, err := config.NewViperFromBytes("yaml", []byte("store:\n  driver: bolt\n"), defaults(home))
	require.NoError(t, err)

	a, err := NewWithOptions(t.Context(), Options{Config: cfg, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	require.NoError(t, err)
	require.NotNil(t, a.boltStore)

	a.Stop(context.Background())
	assert.Empty(t, a.closers)
}
