package record

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"linecap/internal/capture"
	"linecap/pkg/line"
)

func TestRecorder_FinishAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	rec, err := Create(dir, "sh -c 'echo hi; echo oops >&2; exit 3'")
	require.NoError(t, err)

	cmd := exec.Command("sh", "-c", "echo hi; echo oops >&2; exit 3")
	res, err := capture.RunFuncsWithLines(cmd,
		capture.Collector(line.Stdout, rec.Observer()),
		capture.Collector(line.Stderr, rec.Observer()),
	)
	require.NoError(t, err)
	require.NoError(t, rec.Finish(res))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "sh -c 'echo hi; echo oops >&2; exit 3'", loaded.Command)
	require.Equal(t, res.ID(), loaded.ID)
	require.True(t, loaded.Completed)
	require.True(t, loaded.Captured)
	require.Equal(t, 3, loaded.Status.Code)
	require.True(t, loaded.Status.Exited())
	require.True(t, loaded.StartTime.Equal(res.StartTime()))
	require.True(t, loaded.EndTime.Equal(res.EndTime()))
	require.Equal(t, res.Duration(), loaded.Duration())

	require.Len(t, loaded.Lines, 2)
	byContent := map[string]line.Stream{}
	for _, l := range loaded.Lines {
		byContent[l.Content] = l.PrintedTo
	}
	require.Equal(t, map[string]line.Stream{"hi": line.Stdout, "oops": line.Stderr}, byContent)
}

func TestRecorder_Signal(t *testing.T) {
	dir := t.TempDir()
	res, err := capture.Run(exec.Command("sh", "-c", "kill -9 $$"))
	require.NoError(t, err)
	require.NoError(t, Save(dir, "kill", res))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.False(t, loaded.Status.Exited())
	require.Equal(t, res.ExitStatus(), loaded.Status)
	require.Empty(t, loaded.Lines)
}

func TestRecorder_Incomplete(t *testing.T) {
	dir := t.TempDir()
	rec, err := Create(dir, "sleep 100")
	require.NoError(t, err)
	require.NoError(t, rec.Observer()(line.FromStdout("partial")))
	require.NoError(t, rec.Abort())

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.False(t, loaded.Completed)
	require.True(t, loaded.Captured)
	require.Empty(t, loaded.ID)
	require.True(t, loaded.StartTime.IsZero())
	require.Zero(t, loaded.Duration())
	require.Len(t, loaded.Lines, 1)
	require.Equal(t, "partial", loaded.Lines[0].Content)
}

func TestSave_NotCaptured(t *testing.T) {
	dir := t.TempDir()
	res, err := capture.RunFuncs(exec.Command("echo", "hello"), nil, nil)
	require.NoError(t, err)
	require.NoError(t, Save(dir, "echo hello", res))

	_, err = os.Stat(filepath.Join(dir, "output.log"))
	require.True(t, os.IsNotExist(err))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.True(t, loaded.Completed)
	require.False(t, loaded.Captured)
	require.Equal(t, 0, loaded.Status.Code)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing cmd", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
	})

	t.Run("bad starttime", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cmd"), []byte("true\n"), 0600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "starttime"), []byte("yesterday\n"), 0600))
		_, err := Load(dir)
		require.ErrorContains(t, err, "starttime")
	})

	t.Run("bad exit status", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cmd"), []byte("true\n"), 0600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "exit-status"), []byte("zero\n"), 0600))
		_, err := Load(dir)
		require.ErrorContains(t, err, "exit-status")
	})

	t.Run("corrupt output log", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cmd"), []byte("true\n"), 0600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "output.log"), []byte("garbage\n"), 0600))
		_, err := Load(dir)
		require.ErrorContains(t, err, "output log")
	})
}

func TestLoad_PrefersMeasuredDuration(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cmd"), []byte("true\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "starttime"), []byte(start.Format(time.RFC3339Nano)+"\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "endtime"), []byte(start.Add(time.Second).Format(time.RFC3339Nano)+"\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "duration"), []byte("999999917\n"), 0600))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 999999917*time.Nanosecond, loaded.Duration())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "duration"), []byte("soon\n"), 0600))
	_, err = Load(dir)
	require.ErrorContains(t, err, "duration")
}

func TestRecorder_DurationSurvivesRepeatedRuns(t *testing.T) {
	for range 20 {
		dir := t.TempDir()
		res, err := capture.Run(exec.Command("true"))
		require.NoError(t, err)
		require.NoError(t, Save(dir, "true", res))

		loaded, err := Load(dir)
		require.NoError(t, err)
		require.Equal(t, res.Duration(), loaded.Duration())
	}
}

func TestLoad_TimesAreRFC3339Nano(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cmd"), []byte("true\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "starttime"), []byte(start.Format(time.RFC3339Nano)+"\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "endtime"), []byte(start.Add(time.Second).Format(time.RFC3339Nano)+"\n"), 0600))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.True(t, loaded.StartTime.Equal(start))
	require.Equal(t, time.Second, loaded.Duration())
}
