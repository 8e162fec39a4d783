package project

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	apperr "s2klaunch/cli/internal/errors"
	"s2klaunch/cli/internal/transport"
	"s2klaunch/cli/internal/transport/transporttest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) (*transporttest.Stub, transport.Session) {
	t.Helper()
	stub := transporttest.New(transport.ModeCOM)
	h, err := stub.Helper(context.Background())
	require.NoError(t, err)
	p, err := h.CreateFromProgID(context.Background(), transport.ProgID)
	require.NoError(t, err)
	s, err := p.Session(context.Background())
	require.NoError(t, err)
	stub.Reset()
	return stub, s
}

func str(s string) *string { return &s }

func TestSetupProjectOrder(t *testing.T) {
	stub, s := newSession(t)
	setup := Setup{
		Units: KipInF,
		Info: ProjectInfo{
			{Key: "Company Name", Value: str("ACME")},
			{Key: "Engineer"},
			{Key: "Project Number", Value: str("4711")},
		},
	}

	require.NoError(t, SetupProject(context.Background(), s, setup))

	assert.Equal(t, []string{"NewBlank", "SetPresentUnits", "SetProjectInfo", "SetProjectInfo", "DeleteAllMaterials"}, stub.Names())
	assert.Equal(t, int(KipInF), stub.Units)
	assert.Equal(t, []string{"Company Name", "Project Number"}, stub.InfoOrder)
	assert.Equal(t, "4711", stub.Info["Project Number"])
	assert.NotContains(t, stub.Info, "Engineer")
	assert.Empty(t, stub.Materials)
}

func TestSetupProjectDefaultsUnits(t *testing.T) {
	stub, s := newSession(t)
	require.NoError(t, SetupProject(context.Background(), s, Setup{}))
	assert.Equal(t, int(KNmC), stub.Units)
}

func TestSetupProjectIsIdempotent(t *testing.T) {
	stub, s := newSession(t)
	setup := Setup{Info: ProjectInfo{{Key: "Company Name", Value: str("ACME")}}}

	require.NoError(t, SetupProject(context.Background(), s, setup))
	first := map[string]string{}
	for k, v := range stub.Info {
		first[k] = v
	}
	require.NoError(t, SetupProject(context.Background(), s, setup))

	assert.Equal(t, first, stub.Info)
	assert.Equal(t, []string{"Company Name"}, stub.InfoOrder)
	assert.Empty(t, stub.Materials)
	assert.Equal(t, 2, stub.Blanks)
}

func TestSetupProjectStopsAtFirstFailure(t *testing.T) {
	stub, s := newSession(t)
	stub.ReturnStatus("SetPresentUnits", 1)

	err := SetupProject(context.Background(), s, Setup{Info: ProjectInfo{{Key: "Company Name", Value: str("ACME")}}})
	require.Error(t, err)
	assert.Equal(t, apperr.OperationFailed, apperr.KindOf(err))
	assert.Equal(t, []string{"NewBlank", "SetPresentUnits"}, stub.Names())
	assert.Zero(t, stub.Count("DeleteAllMaterials"))
}

func TestSetupProjectTransportError(t *testing.T) {
	stub, s := newSession(t)
	stub.FailWith("DeleteAllMaterials", errors.New("rpc failed"))

	err := SetupProject(context.Background(), s, Setup{})
	assert.Equal(t, apperr.OperationFailed, apperr.KindOf(err))
	assert.ErrorContains(t, err, "rpc failed")
}

func TestSetupProjectWithoutSession(t *testing.T) {
	err := SetupProject(context.Background(), nil, Setup{})
	assert.Equal(t, apperr.NotConnected, apperr.KindOf(err))
}

func TestRefresh(t *testing.T) {
	stub, s := newSession(t)
	require.NoError(t, Refresh(context.Background(), s))

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "RefreshView", calls[0].Name)
	assert.Equal(t, []any{0, false}, calls[0].Args)
}

func TestSave(t *testing.T) {
	stub, s := newSession(t)
	dir := t.TempDir()

	require.NoError(t, Save(context.Background(), s, dir, "bridge.sdb"))
	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []any{filepath.Join(dir, "bridge.sdb")}, calls[0].Args)
}

func TestSaveRequiresDestination(t *testing.T) {
	stub, s := newSession(t)

	err := Save(context.Background(), s, "", "bridge.sdb")
	assert.Equal(t, apperr.OperationFailed, apperr.KindOf(err))
	err = Save(context.Background(), s, t.TempDir(), "")
	assert.Equal(t, apperr.OperationFailed, apperr.KindOf(err))
	assert.Zero(t, stub.Count("Save"))
}

func TestSaveStatus(t *testing.T) {
	stub, s := newSession(t)
	stub.ReturnStatus("Save", 1)
	err := Save(context.Background(), s, t.TempDir(), "bridge.sdb")
	assert.Equal(t, apperr.OperationFailed, apperr.KindOf(err))
}

func TestClose(t *testing.T) {
	stub := transporttest.New(transport.ModeNET)
	p, err := stub.ActiveProcess(context.Background(), transport.ProgID)
	require.NoError(t, err)

	require.NoError(t, Close(context.Background(), p, true))
	calls := stub.Calls()
	assert.Equal(t, "Exit", calls[len(calls)-1].Name)
	assert.Equal(t, []any{true}, calls[len(calls)-1].Args)

	stub.ReturnStatus("Exit", 3)
	assert.Equal(t, apperr.OperationFailed, apperr.KindOf(Close(context.Background(), p, false)))
	assert.Equal(t, apperr.NotConnected, apperr.KindOf(Close(context.Background(), nil, false)))
}

func TestIsClosed(t *testing.T) {
	stub, s := newSession(t)
	assert.False(t, IsClosed(context.Background(), s))

	// A non-zero status still means the process answered.
	stub.ReturnStatus("ProgramInfo", 1)
	assert.False(t, IsClosed(context.Background(), s))

	stub.Kill()
	assert.True(t, IsClosed(context.Background(), s))
	assert.True(t, IsClosed(context.Background(), nil))
}

func TestDefineGroups(t *testing.T) {
	stub, s := newSession(t)
	require.NoError(t, DefineGroups(context.Background(), s, "Piers", "Deck"))
	assert.Equal(t, []string{"Piers", "Deck"}, stub.Groups)
}

func TestDefineGroupsStopsAtFirstFailure(t *testing.T) {
	stub, s := newSession(t)
	stub.ReturnStatus("SetGroup:Deck", 1)

	err := DefineGroups(context.Background(), s, "Piers", "Deck", "Bearings")
	require.Error(t, err)
	assert.Equal(t, apperr.OperationFailed, apperr.KindOf(err))
	assert.Equal(t, []string{"Piers"}, stub.Groups)
	assert.Zero(t, stub.Count("SetGroup:Bearings"))
}

func TestInfo(t *testing.T) {
	stub, s := newSession(t)
	info, err := Info(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "SAP2000", info.Name)

	stub.ReturnStatus("ProgramInfo", 1)
	_, err = Info(context.Background(), s)
	assert.Equal(t, apperr.OperationFailed, apperr.KindOf(err))
}
