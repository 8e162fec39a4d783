package launcher

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperr "s2klaunch/cli/internal/errors"
	"s2klaunch/cli/internal/journal"
	"s2klaunch/cli/internal/logging"
	"s2klaunch/cli/internal/project"
	"s2klaunch/cli/internal/transport"
	"s2klaunch/cli/internal/transport/transporttest"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	launcher *Launcher
	stub     *transporttest.Stub
	journal  *journal.Memory
}

func newFixture(t *testing.T, cfg Config, setup project.Setup) fixture {
	t.Helper()
	if cfg.Mode == "" {
		cfg.Mode = transport.ModeCOM
	}
	stub := transporttest.New(cfg.Mode)
	mem := &journal.Memory{}

	clock := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	c, err := New(cfg, stub, WithLogger(logging.Discard()), WithRecorder(mem), WithClock(now))
	require.NoError(t, err)
	return fixture{launcher: NewLauncher(c, setup), stub: stub, journal: mem}
}

func value(s string) *string { return &s }

func TestLaunchEndToEnd(t *testing.T) {
	f := newFixture(t, Config{ProgramPath: `C:\SAP2000\SAP2000.exe`}, project.Setup{})

	h, err := f.launcher.Launch(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Valid())
	assert.NotEqual(t, uuid.Nil, h.CycleID)
	assert.Equal(t, "23.3.0", h.Version.External)

	assert.Equal(t, []string{
		"Helper", "CreateFromPath", "Start",
		"Session", "InitializeNewModel", "Version",
		"NewBlank", "SetPresentUnits", "DeleteAllMaterials",
	}, f.stub.Names())
	for _, name := range []string{"CreateFromPath", "Start", "InitializeNewModel"} {
		assert.Equal(t, 1, f.stub.Count(name), name)
	}
	assert.Equal(t, h, f.launcher.Handles())
}

func TestLaunchAppliesProjectInfo(t *testing.T) {
	setup := project.Setup{
		Units: project.KipFtF,
		Info: project.ProjectInfo{
			{Key: "Company Name", Value: value("ACME")},
			{Key: "Engineer"},
		},
	}
	f := newFixture(t, Config{}, setup)

	_, err := f.launcher.Launch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int(project.KipFtF), f.stub.Units)
	assert.Equal(t, map[string]string{"Company Name": "ACME"}, f.stub.Info)
	assert.Empty(t, f.stub.Materials)
}

func TestLaunchFailureHoldsNoHandles(t *testing.T) {
	f := newFixture(t, Config{}, project.Setup{})
	f.stub.ReturnStatus("InitializeNewModel", 1)

	h, err := f.launcher.Launch(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.BootstrapFailed, apperr.KindOf(err))
	assert.False(t, h.Valid())
	assert.False(t, f.launcher.Handles().Valid())
	assert.Zero(t, f.stub.Count("NewBlank"))
	assert.True(t, f.launcher.IsClosed(context.Background()))
}

func TestLaunchSetupFailure(t *testing.T) {
	f := newFixture(t, Config{}, project.Setup{})
	f.stub.ReturnStatus("DeleteAllMaterials", 2)

	_, err := f.launcher.Launch(context.Background())
	assert.Equal(t, apperr.OperationFailed, apperr.KindOf(err))
	assert.False(t, f.launcher.Handles().Valid())
}

func TestRelaunchAbandonsPreviousProcess(t *testing.T) {
	setup := project.Setup{Info: project.ProjectInfo{{Key: "Company Name", Value: value("ACME")}}}
	f := newFixture(t, Config{}, setup)

	first, err := f.launcher.Launch(context.Background())
	require.NoError(t, err)
	info := map[string]string{}
	for k, v := range f.stub.Info {
		info[k] = v
	}

	second, err := f.launcher.Relaunch(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.CycleID, second.CycleID)
	assert.Zero(t, f.stub.Count("Exit"))
	assert.Equal(t, 2, f.stub.Count("CreateFromProgID"))
	assert.Equal(t, 2, f.stub.Count("InitializeNewModel"))
	assert.Equal(t, info, f.stub.Info)
	assert.Empty(t, f.stub.Materials)
}

func TestRelaunchWithoutPreviousLaunch(t *testing.T) {
	f := newFixture(t, Config{}, project.Setup{})
	h, err := f.launcher.Relaunch(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Valid())
}

func TestCloseInvalidatesHandles(t *testing.T) {
	f := newFixture(t, Config{}, project.Setup{})
	_, err := f.launcher.Launch(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.launcher.Close(context.Background(), true))
	calls := f.stub.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, "Exit", last.Name)
	assert.Equal(t, []any{true}, last.Args)
	assert.False(t, f.launcher.Handles().Valid())
	assert.True(t, f.launcher.IsClosed(context.Background()))

	err = f.launcher.Close(context.Background(), false)
	assert.Equal(t, apperr.NotConnected, apperr.KindOf(err))
	assert.Equal(t, apperr.NotConnected, apperr.KindOf(f.launcher.Save(context.Background())))
	assert.Equal(t, apperr.NotConnected, apperr.KindOf(f.launcher.Refresh(context.Background())))
	assert.Equal(t, apperr.NotConnected, apperr.KindOf(f.launcher.DefineGroups(context.Background(), "Deck")))
}

func TestCloseFailureKeepsHandles(t *testing.T) {
	f := newFixture(t, Config{}, project.Setup{})
	_, err := f.launcher.Launch(context.Background())
	require.NoError(t, err)
	f.stub.ReturnStatus("Exit", 1)

	err = f.launcher.Close(context.Background(), false)
	assert.Equal(t, apperr.OperationFailed, apperr.KindOf(err))
	assert.True(t, f.launcher.Handles().Valid())
}

func TestIsClosedDetectsDeadProcess(t *testing.T) {
	f := newFixture(t, Config{}, project.Setup{})
	_, err := f.launcher.Launch(context.Background())
	require.NoError(t, err)

	assert.False(t, f.launcher.IsClosed(context.Background()))
	f.stub.Kill()
	assert.True(t, f.launcher.IsClosed(context.Background()))
}

func TestSaveRefreshAndGroups(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, Config{Dir: dir, Filename: "bridge.sdb"}, project.Setup{})
	_, err := f.launcher.Launch(context.Background())
	require.NoError(t, err)
	f.stub.Reset()

	require.NoError(t, f.launcher.DefineGroups(context.Background(), "Piers", "Deck"))
	require.NoError(t, f.launcher.Refresh(context.Background()))
	require.NoError(t, f.launcher.Save(context.Background()))

	assert.Equal(t, []string{"SetGroup:Piers", "SetGroup:Deck", "RefreshView", "Save"}, f.stub.Names())
	calls := f.stub.Calls()
	assert.Equal(t, []any{filepath.Join(dir, "bridge.sdb")}, calls[3].Args)
}

func TestSaveWithoutDestination(t *testing.T) {
	f := newFixture(t, Config{Filename: "bridge.sdb"}, project.Setup{})
	_, err := f.launcher.Launch(context.Background())
	require.NoError(t, err)

	err = f.launcher.Save(context.Background())
	assert.Equal(t, apperr.OperationFailed, apperr.KindOf(err))
	assert.Zero(t, f.stub.Count("Save"))
}

func TestJournalRecordsCycles(t *testing.T) {
	f := newFixture(t, Config{Mode: transport.ModeNET, RemoteHost: "calc-01"}, project.Setup{})

	_, err := f.launcher.Launch(context.Background())
	require.NoError(t, err)

	f.stub.FailWith("CreateFromProgIDHost", errors.New("RPC server unavailable"))
	_, err = f.launcher.Relaunch(context.Background())
	require.Error(t, err)

	entries := f.journal.Entries()
	require.Len(t, entries, 2)

	ok := entries[0]
	assert.Equal(t, journal.OutcomeReady, ok.Outcome)
	assert.Equal(t, "net", ok.Mode)
	assert.Equal(t, "remote", ok.Strategy)
	assert.Equal(t, "calc-01", ok.Host)
	assert.Equal(t, "23.3.0", ok.Version)
	assert.False(t, ok.Relaunch)
	assert.True(t, ok.Elapsed > 0)

	failed := entries[1]
	assert.Equal(t, journal.OutcomeFailed, failed.Outcome)
	assert.Equal(t, string(apperr.RemoteSpawnFailed), failed.Kind)
	assert.Contains(t, failed.Reason, "RPC server unavailable")
	assert.True(t, failed.Relaunch)
	assert.NotEqual(t, ok.CycleID, failed.CycleID)
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, journal.Entry) error {
	return errors.New("journal unavailable")
}

func TestJournalFailureDoesNotFailLaunch(t *testing.T) {
	stub := transporttest.New(transport.ModeCOM)
	c, err := New(Config{Mode: transport.ModeCOM}, stub, WithLogger(logging.Discard()), WithRecorder(failingRecorder{}))
	require.NoError(t, err)

	h, err := NewLauncher(c, project.Setup{}).Launch(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Valid())
}

// logEntries splits pterm logger output into one string per message; attribute
// lines are drawn with box characters.
func logEntries(out string) []string {
	var entries []string
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(entries) > 0 && (strings.Contains(line, "├") || strings.Contains(line, "└")) {
			entries[len(entries)-1] += "\n" + line
			continue
		}
		entries = append(entries, line)
	}
	return entries
}

func TestCycleMessagesCarryComponentAndCycle(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	stub := transporttest.New(transport.ModeCOM)
	c, err := New(Config{Mode: transport.ModeCOM}, stub, WithLogger(logging.New("debug", &buf)))
	require.NoError(t, err)
	l := NewLauncher(c, project.Setup{})

	h, err := l.Launch(context.Background())
	require.NoError(t, err)

	stub.FailWith("Helper", errors.New("class not registered"))
	_, err = l.Relaunch(context.Background())
	require.Error(t, err)

	seen := map[string]bool{}
	for _, e := range logEntries(buf.String()) {
		for _, msg := range []string{"launch cycle started", "launch cycle failed", "S2K model launched"} {
			if !strings.Contains(e, msg) {
				continue
			}
			seen[msg] = true
			assert.Contains(t, e, "component: launcher", msg)
			assert.Regexp(t, `cycle: [0-9a-f-]{36}`, e, msg)
		}
	}
	assert.Len(t, seen, 3)
	assert.Contains(t, buf.String(), h.CycleID.String())
}
