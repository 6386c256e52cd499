package lua

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/quickjump/internal/action"
)

type fakeHost struct {
	notes      []string
	dispatched []string
	args       []any
	err        error
}

func (h *fakeHost) Notify(msg string) {
	h.notes = append(h.notes, msg)
}

func (h *fakeHost) Dispatch(id string, arg any) error {
	h.dispatched = append(h.dispatched, id)
	h.args = append(h.args, arg)
	return h.err
}

func TestStateRun(t *testing.T) {
	s := NewState()
	defer s.Close()

	ret, err := s.Run(context.Background(), "t", `return arg .. "!"`, lua.LString("hi"))
	require.NoError(t, err)
	assert.Equal(t, lua.LString("hi!"), ret)

	_, err = s.Run(context.Background(), "t", `return (`, nil)
	assert.Error(t, err)

	_, err = s.Run(context.Background(), "t", `error("nope")`, nil)
	assert.ErrorContains(t, err, "nope")
}

func TestStateSandbox(t *testing.T) {
	s := NewState()
	defer s.Close()

	for _, name := range []string{"io", "os", "debug", "package", "dofile", "loadfile", "require"} {
		assert.Equal(t, lua.LNil, s.GetGlobal(name), name)
	}
	assert.NotEqual(t, lua.LNil, s.GetGlobal("string"))
	assert.NotEqual(t, lua.LNil, s.GetGlobal("math"))
}

func TestStateTimeout(t *testing.T) {
	s := NewState(WithExecutionTimeout(50 * time.Millisecond))
	defer s.Close()

	_, err := s.Run(context.Background(), "loop", `while true do end`, nil)
	assert.ErrorIs(t, err, ErrExecutionTimeout)
}

func TestStateClosed(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Run(context.Background(), "t", `return 1`, nil)
	assert.ErrorIs(t, err, ErrStateClosed)
	assert.Equal(t, lua.LNil, s.GetGlobal("string"))
}

func TestRunnerAction(t *testing.T) {
	host := &fakeHost{}
	r := NewRunner(host, nil)
	defer r.Close()

	a, err := r.Action(Script{
		ID:       "user:open-readme",
		Label:    "Open Readme",
		Category: "User",
		Code: `
			quickjump.notify("opening " .. arg)
			local err = quickjump.dispatch("project:open-file", arg)
			if err then return err end
		`,
	})
	require.NoError(t, err)
	assert.Equal(t, "Open Readme", a.Label)
	assert.Equal(t, "lua:user:open-readme", a.Source)

	require.NoError(t, a.Handler("README.md"))
	assert.Equal(t, []string{"opening README.md"}, host.notes)
	assert.Equal(t, []string{"project:open-file"}, host.dispatched)
	assert.Equal(t, []any{"README.md"}, host.args)

	host.err = errors.New("no such file")
	err = a.Handler("MISSING.md")
	assert.ErrorIs(t, err, ErrScriptFailed)
	assert.ErrorContains(t, err, "no such file")
}

func TestRunnerReturnFalse(t *testing.T) {
	r := NewRunner(&fakeHost{}, nil)
	defer r.Close()

	a, err := r.Action(Script{ID: "f", Code: `return false`})
	require.NoError(t, err)
	assert.Equal(t, "f", a.Label)
	assert.ErrorIs(t, a.Handler(nil), ErrScriptFailed)

	ok, err := r.Action(Script{ID: "t", Code: `return true`})
	require.NoError(t, err)
	assert.NoError(t, ok.Handler(nil))
}

func TestRunnerFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.lua")
	require.NoError(t, os.WriteFile(path, []byte(`quickjump.notify("hello")`), 0o644))

	host := &fakeHost{}
	r := NewRunner(host, nil)
	defer r.Close()

	a, err := r.Action(Script{ID: "hello", File: path})
	require.NoError(t, err)
	require.NoError(t, a.Handler(nil))
	assert.Equal(t, []string{"hello"}, host.notes)
}

func TestRunnerErrors(t *testing.T) {
	r := NewRunner(&fakeHost{}, nil)
	defer r.Close()

	_, err := r.Action(Script{ID: "empty"})
	assert.ErrorIs(t, err, ErrNoScript)

	_, err = r.Action(Script{ID: "syntax", Code: `if then`})
	assert.Error(t, err)

	_, err = r.Action(Script{ID: "missing", File: filepath.Join(t.TempDir(), "nope.lua")})
	assert.Error(t, err)
}

func TestRunnerRegister(t *testing.T) {
	reg := action.NewRegistry(nil)
	r := NewRunner(&fakeHost{}, nil)
	defer r.Close()

	require.NoError(t, r.Register(reg, []Script{
		{ID: "a", Label: "Alpha", Code: `return`},
		{ID: "b", Label: "Beta", Code: `return`},
	}))
	assert.Equal(t, 2, reg.Count())
	require.NoError(t, reg.Dispatch("a", nil))
}
