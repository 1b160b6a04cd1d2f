package tunables

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yanqian/solarinfra/internal/domain/estimator"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSource_NoFileServesBase(t *testing.T) {
	src, err := NewSource("", estimator.DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	require.Equal(t, estimator.DefaultConfig(), src.Current())
	require.NoError(t, src.Watch(context.Background()))
	require.Zero(t, src.Reloads())
}

func TestParseFile_OverlaysAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tunables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("heuristic:\n  tariffPerKwh: 9\n"), 0o600))

	cfg, err := ParseFile(path, estimator.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 9.0, cfg.Heuristic.TariffPerKWh)
	require.Equal(t, estimator.DefaultYieldFactor, cfg.Sizing.YieldFactor)

	require.NoError(t, os.WriteFile(path, []byte("sizing:\n  safetyMargin: 0.5\n"), 0o600))
	_, err = ParseFile(path, estimator.DefaultConfig())
	require.ErrorIs(t, err, estimator.ErrInvalidSizingInput)

	require.NoError(t, os.WriteFile(path, []byte("sizing: ["), 0o600))
	_, err = ParseFile(path, estimator.DefaultConfig())
	require.Error(t, err)
}

func TestSource_WatchReloadsAndRejectsBadEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tunables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sizing:\n  yieldFactor: 4.2\n"), 0o600))

	src, err := NewSource(path, estimator.DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	src.debounce = 10 * time.Millisecond
	require.Equal(t, 4.2, src.Current().Sizing.YieldFactor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, src.Watch(ctx))

	require.NoError(t, os.WriteFile(path, []byte("sizing:\n  yieldFactor: 5\n"), 0o600))
	require.Eventually(t, func() bool { return src.Current().Sizing.YieldFactor == 5 }, 3*time.Second, 20*time.Millisecond)

	reloads := src.Reloads()
	require.NoError(t, os.WriteFile(path, []byte("sizing:\n  yieldFactor: -1\n"), 0o600))
	time.Sleep(200 * time.Millisecond)
	require.Equal(t, 5.0, src.Current().Sizing.YieldFactor)
	require.Equal(t, reloads, src.Reloads())
}
