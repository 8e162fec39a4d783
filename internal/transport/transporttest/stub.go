// Package transporttest provides an in-memory recording transport.
//
// Every call made through the stub (on the transport, its helper, processes,
// and sessions) is appended to one shared journal so tests can assert both
// which branch was taken and the order of calls. Failures are injected per
// call name, either as a transport error or as a non-zero status.
package transporttest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"s2klaunch/cli/internal/transport"
)

// ErrDead is returned by every call once the stub process has been killed.
var ErrDead = errors.New("transporttest: remote procedure call failed (process terminated)")

// Call records a single invocation.
type Call struct {
	Name string
	Args []any
}

// Stub implements transport.Transport.
type Stub struct {
	mu     sync.Mutex
	mode   transport.Mode
	calls  []Call
	errs   map[string]error
	status map[string]int
	dead   bool

	// Materials is the material list of the model. NewBlank restores the
	// defaults of a blank model and DeleteAllMaterials empties it.
	Materials []string
	// Info holds the last value set per project-info key.
	Info map[string]string
	// InfoOrder records keys in the order they were set.
	InfoOrder []string
	// Groups records defined groups.
	Groups []string
	// Units holds the last units passed to SetPresentUnits.
	Units int
	// Blanks counts NewBlank calls.
	Blanks int

	VersionValue transport.Version
	ProgramValue transport.ProgramInfo
}

// New returns a stub for mode with a default SAP2000 version.
func New(mode transport.Mode) *Stub {
	return &Stub{
		mode:         mode,
		errs:         map[string]error{},
		status:       map[string]int{},
		Info:         map[string]string{},
		Materials:    []string{"4000Psi", "A992Fy50"},
		VersionValue: transport.Version{External: "23.3.0", Internal: 23.30},
		ProgramValue: transport.ProgramInfo{Name: "SAP2000", Version: "23.3.0", Level: "Ultimate"},
	}
}

// FailWith makes the named call return err.
func (s *Stub) FailWith(name string, err error) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[name] = err
	return s
}

// ReturnStatus makes the named call return status ret.
func (s *Stub) ReturnStatus(name string, ret int) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[name] = ret
	return s
}

// Kill simulates a crashed application: every later call fails with ErrDead.
func (s *Stub) Kill() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dead = true
}

// Calls returns a copy of the call journal.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Names returns the names of all recorded calls in order.
func (s *Stub) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.Name
	}
	return out
}

// Count returns how many times name was called.
func (s *Stub) Count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Reset clears the call journal and injected failures.
func (s *Stub) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
	s.errs = map[string]error{}
	s.status = map[string]int{}
	s.dead = false
}

// record appends the call and returns the injected status and error.
func (s *Stub) record(name string, args ...any) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Name: name, Args: args})
	if s.dead {
		return 0, ErrDead
	}
	if err, ok := s.errs[name]; ok {
		return 0, err
	}
	return s.status[name], nil
}

func (s *Stub) Mode() transport.Mode { return s.mode }

func (s *Stub) Helper(ctx context.Context) (transport.Helper, error) {
	if _, err := s.record("Helper"); err != nil {
		return nil, err
	}
	return helper{s}, nil
}

func (s *Stub) ActiveProcess(ctx context.Context, progID string) (transport.Process, error) {
	if _, err := s.record("ActiveProcess", progID); err != nil {
		return nil, err
	}
	return &Process{stub: s, Origin: "active"}, nil
}

func (s *Stub) Close() error {
	_, err := s.record("Close")
	return err
}

type helper struct{ s *Stub }

func (h helper) CreateFromPath(ctx context.Context, path string) (transport.Process, error) {
	if _, err := h.s.record("CreateFromPath", path); err != nil {
		return nil, err
	}
	return &Process{stub: h.s, Origin: "path:" + path}, nil
}

func (h helper) CreateFromProgID(ctx context.Context, progID string) (transport.Process, error) {
	if _, err := h.s.record("CreateFromProgID", progID); err != nil {
		return nil, err
	}
	return &Process{stub: h.s, Origin: "registry"}, nil
}

func (h helper) CreateFromProgIDHost(ctx context.Context, host, progID string) (transport.Process, error) {
	if _, err := h.s.record("CreateFromProgIDHost", host, progID); err != nil {
		return nil, err
	}
	return &Process{stub: h.s, Origin: "remote:" + host}, nil
}

// Process is a stub process object.
type Process struct {
	stub *Stub
	// Origin names the acquisition branch that produced the process.
	Origin string
}

func (p *Process) Start(ctx context.Context) (int, error) { return p.stub.record("Start") }

func (p *Process) Exit(ctx context.Context, save bool) (int, error) {
	return p.stub.record("Exit", save)
}

func (p *Process) Session(ctx context.Context) (transport.Session, error) {
	if _, err := p.stub.record("Session"); err != nil {
		return nil, err
	}
	return &Session{stub: p.stub}, nil
}

// Session is a stub model object.
type Session struct{ stub *Stub }

func (m *Session) InitializeNewModel(ctx context.Context) (int, error) {
	return m.stub.record("InitializeNewModel")
}

func (m *Session) Version(ctx context.Context) (transport.Version, int, error) {
	ret, err := m.stub.record("Version")
	return m.stub.VersionValue, ret, err
}

func (m *Session) NewBlank(ctx context.Context) (int, error) {
	ret, err := m.stub.record("NewBlank")
	if err == nil && ret == 0 {
		m.stub.mu.Lock()
		m.stub.Blanks++
		m.stub.Info = map[string]string{}
		m.stub.InfoOrder = nil
		m.stub.Groups = nil
		m.stub.Materials = []string{"4000Psi", "A992Fy50"}
		m.stub.mu.Unlock()
	}
	return ret, err
}

func (m *Session) SetPresentUnits(ctx context.Context, units int) (int, error) {
	ret, err := m.stub.record("SetPresentUnits", units)
	if err == nil && ret == 0 {
		m.stub.mu.Lock()
		m.stub.Units = units
		m.stub.mu.Unlock()
	}
	return ret, err
}

func (m *Session) SetProjectInfo(ctx context.Context, item, data string) (int, error) {
	ret, err := m.stub.record("SetProjectInfo", item, data)
	if err == nil && ret == 0 {
		m.stub.mu.Lock()
		m.stub.Info[item] = data
		m.stub.InfoOrder = append(m.stub.InfoOrder, item)
		m.stub.mu.Unlock()
	}
	return ret, err
}

func (m *Session) DeleteAllMaterials(ctx context.Context) (int, error) {
	ret, err := m.stub.record("DeleteAllMaterials")
	if err == nil && ret == 0 {
		m.stub.mu.Lock()
		m.stub.Materials = nil
		m.stub.mu.Unlock()
	}
	return ret, err
}

func (m *Session) RefreshView(ctx context.Context, window int, zoom bool) (int, error) {
	return m.stub.record("RefreshView", window, zoom)
}

func (m *Session) Save(ctx context.Context, path string) (int, error) {
	return m.stub.record("Save", path)
}

func (m *Session) SetGroup(ctx context.Context, name string) (int, error) {
	ret, err := m.stub.record("SetGroup:"+name, name)
	if err == nil && ret == 0 {
		m.stub.mu.Lock()
		m.stub.Groups = append(m.stub.Groups, name)
		m.stub.mu.Unlock()
	}
	return ret, err
}

func (m *Session) ProgramInfo(ctx context.Context) (transport.ProgramInfo, int, error) {
	ret, err := m.stub.record("ProgramInfo")
	return m.stub.ProgramValue, ret, err
}

// String describes the stub for test failure output.
func (s *Stub) String() string {
	return fmt.Sprintf("transporttest.Stub(%s, %d calls)", s.mode, len(s.Calls()))
}
