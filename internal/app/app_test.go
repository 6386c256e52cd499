package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quickjump/internal/action"
	"github.com/dshills/quickjump/internal/config"
	"github.com/dshills/quickjump/internal/input/palette"
)

const workspaceConfig = `
[palette]
debounce = "10ms"

[index]
ignore = [".quickjump.toml"]

[[menus]]
label = "File"

  [[menus.sub]]
  label = "Close"
  command = "session:close-file"

  [[menus.sub]]
  label = "Future"
  command = "future:thing"
  min_version = "9.0.0"

[[actions]]
id = "user:hello"
label = "Say Hello"
code = "quickjump.notify('hello')"
`

const mainGo = `package main

func main() {
	render()
}

func render() {}
`

// newWorkspace writes a small project and returns its root.
func newWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"src/main.go":     mainGo,
		"src/util.go":     "package main\n\nfunc helper() {}\n",
		"README.md":       "# demo\n",
		DefaultConfigName: workspaceConfig,
	}
	for name, text := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	}
	return dir
}

type notes []string

func (n *notes) Notify(msg string) { *n = append(*n, msg) }

func startApp(t *testing.T, opts Options) *Application {
	t.Helper()
	app, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(func() { _ = app.Shutdown() })
	return app
}

func TestNew(t *testing.T) {
	dir := newWorkspace(t)
	app, err := New(Options{WorkspacePath: dir, Version: "1.0.0"})
	require.NoError(t, err)
	defer app.Shutdown()

	assert.Equal(t, filepath.Join(dir, DefaultConfigName), app.ConfigPath())
	assert.Equal(t, "10ms", app.Config().Palette.Debounce.String())
	assert.NotNil(t, app.Palette())
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Metrics())
	assert.False(t, app.IsRunning())

	for _, id := range []string{
		palette.CommandOpenFile,
		palette.CommandCheckFile,
		ActionCloseFile,
		ActionToggleSearchAll,
		ActionReloadConfig,
		ActionRebuildIndex,
		"user:hello",
	} {
		assert.NotNil(t, app.Actions().Get(id), id)
	}
	assert.Equal(t, "core", app.Actions().Get(ActionCloseFile).Source)
	assert.Len(t, app.Actions().Menus(), 1)
}

func TestNewErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[palette\n"), 0o644))
	_, err := New(Options{ConfigPath: bad})
	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "config", initErr.Component)

	_, err = New(Options{ConfigPath: filepath.Join(dir, "missing.toml"), LogLevel: "loud"})
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "logging", initErr.Component)

	script := filepath.Join(dir, "script.toml")
	require.NoError(t, os.WriteFile(script, []byte(`
[[actions]]
id = "user:broken"
code = "this is not lua"
`), 0o644))
	_, err = New(Options{ConfigPath: script})
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "scripts", initErr.Component)
}

func TestOptionsOverrideLogging(t *testing.T) {
	dir := newWorkspace(t)
	logFile := filepath.Join(t.TempDir(), "quickjump.log")
	app, err := New(Options{WorkspacePath: dir, LogLevel: "debug", LogFile: logFile})
	require.NoError(t, err)

	assert.Equal(t, "debug", app.Config().Log.Level)
	app.Logger().Info("hello")
	require.NoError(t, app.Shutdown())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestStart(t *testing.T) {
	dir := newWorkspace(t)
	app := startApp(t, Options{WorkspacePath: dir})

	assert.True(t, app.IsRunning())
	assert.Equal(t, []string{"README.md", "src/main.go", "src/util.go"}, app.Index().Paths())
	assert.ErrorIs(t, app.Start(context.Background()), ErrAlreadyRunning)

	require.NoError(t, app.Shutdown())
	assert.False(t, app.IsRunning())
	require.NoError(t, app.Shutdown())
}

func TestStartFiles(t *testing.T) {
	dir := newWorkspace(t)
	app := startApp(t, Options{
		WorkspacePath: dir,
		Files: []string{
			filepath.Join(dir, "src/util.go"),
			filepath.Join(dir, "missing.go"),
			filepath.Join(dir, "src/main.go"),
		},
	})

	docs := app.Documents().OpenDocuments()
	require.Len(t, docs, 2)
	assert.Equal(t, "main.go", app.Documents().Current().Name())
}

func TestOpenFileAction(t *testing.T) {
	dir := newWorkspace(t)
	app := startApp(t, Options{WorkspacePath: dir})

	require.NoError(t, app.Dispatch(palette.CommandOpenFile, "src/util.go"))
	doc := app.Documents().Current()
	require.NotNil(t, doc)
	assert.Equal(t, filepath.Join(dir, "src/util.go"), doc.Path())

	// Paths outside the index resolve against the workspace.
	require.NoError(t, app.Dispatch(palette.CommandOpenFile, DefaultConfigName))
	assert.Equal(t, DefaultConfigName, app.Documents().Current().Name())

	err := app.Dispatch(palette.CommandOpenFile, 42)
	assert.ErrorIs(t, err, ErrBadArgument)

	err = app.Dispatch(palette.CommandOpenFile, "nope.go")
	var fileErr *FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, "open", fileErr.Op)
}

func TestCheckFileAction(t *testing.T) {
	dir := newWorkspace(t)
	var got notes
	app := startApp(t, Options{WorkspacePath: dir, Notifier: &got})

	assert.ErrorIs(t, app.Dispatch(palette.CommandCheckFile, nil), ErrNoActiveDocument)

	require.NoError(t, app.Dispatch(palette.CommandOpenFile, "src/main.go"))
	require.NoError(t, app.Dispatch(palette.CommandCheckFile, nil))
	assert.Empty(t, got)

	path := filepath.Join(dir, "src/main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))
	require.NoError(t, app.Dispatch(palette.CommandCheckFile, nil))
	assert.Equal(t, "main.go changed on disk", app.Status())

	require.NoError(t, os.Remove(path))
	require.NoError(t, app.Dispatch(palette.CommandCheckFile, nil))
	assert.Equal(t, notes{"main.go changed on disk", "main.go was removed from disk"}, got)
}

func TestCloseFileDropsReferences(t *testing.T) {
	dir := newWorkspace(t)
	app := startApp(t, Options{WorkspacePath: dir})

	require.NoError(t, app.Dispatch(palette.CommandOpenFile, "src/main.go"))
	doc := app.Documents().Current()
	_, err := app.References().Get(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, app.References().Len())

	require.NoError(t, app.Dispatch(ActionCloseFile, nil))
	assert.Zero(t, app.References().Len())
	assert.Nil(t, app.Documents().Current())
	assert.ErrorIs(t, app.Dispatch(ActionCloseFile, nil), ErrNoActiveDocument)
}

func TestToggleSearchAllAction(t *testing.T) {
	app := startApp(t, Options{WorkspacePath: newWorkspace(t)})

	require.NoError(t, app.Dispatch(ActionToggleSearchAll, nil))
	assert.True(t, app.Preferences().Bool(config.KeySearchAllDocuments))
	assert.Equal(t, "Searching all open documents", app.Status())

	require.NoError(t, app.Dispatch(ActionToggleSearchAll, nil))
	assert.False(t, app.Preferences().Bool(config.KeySearchAllDocuments))
}

func TestReloadConfigAction(t *testing.T) {
	dir := newWorkspace(t)
	app := startApp(t, Options{WorkspacePath: dir})

	updated := strings.Replace(workspaceConfig, `label = "File"`, `label = "Documents"`, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigName), []byte(updated), 0o644))
	require.NoError(t, app.Dispatch(ActionReloadConfig, nil))
	assert.Equal(t, "Documents", app.Actions().Menus()[0].Label)

	bare := startApp(t, Options{WorkspacePath: t.TempDir()})
	require.NoError(t, bare.Dispatch(ActionReloadConfig, nil))
	assert.Equal(t, "No configuration file", bare.Status())
}

func TestRebuildIndexAction(t *testing.T) {
	dir := newWorkspace(t)
	app := startApp(t, Options{WorkspacePath: dir})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "src/extra.go"), []byte("package main\n"), 0o644))
	require.NoError(t, app.Dispatch(ActionRebuildIndex, nil))
	assert.Equal(t, 4, app.Index().Count())
	assert.Equal(t, "Indexed 4 files", app.Status())
}

func TestScriptAction(t *testing.T) {
	var got notes
	app := startApp(t, Options{WorkspacePath: newWorkspace(t), Notifier: &got})

	require.NoError(t, app.Dispatch("user:hello", nil))
	assert.Equal(t, notes{"hello"}, got)
}

func TestPaletteOpensFile(t *testing.T) {
	dir := newWorkspace(t)
	reg := prometheus.NewRegistry()
	app := startApp(t, Options{WorkspacePath: dir, Registerer: reg})
	p := app.Palette()

	p.Activate(palette.ModeLocation)
	p.Evaluate("mai")
	results := p.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "main.go", results[0].Label())
	assert.Equal(t, "src/main.go", results[0].Sublabel())

	require.NoError(t, p.Confirm())
	assert.Equal(t, "main.go", app.Documents().Current().Name())
	assert.Equal(t, "Executing: main.go...", app.Status())

	n, err := testutil.GatherAndCount(reg, "quickjump_palette_dispatch_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunPendingDrivesDebouncedPasses(t *testing.T) {
	app := startApp(t, Options{WorkspacePath: newWorkspace(t)})
	p := app.Palette()

	assert.Zero(t, app.RunPending())
	p.Activate(palette.ModeLocation)
	p.OnKeystroke("mai")
	assert.True(t, p.Pending())
	assert.Empty(t, p.Results(), "passes wait for RunPending")

	deadline := time.Now().Add(2 * time.Second)
	for p.Pending() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
		app.RunPending()
	}
	require.False(t, p.Pending())
	assert.Equal(t, []string{"main.go"}, resultLabels(p.Results()))
}

func resultLabels(results []palette.Candidate) []string {
	out := make([]string, len(results))
	for i, c := range results {
		out[i] = c.Label()
	}
	return out
}

func TestPaletteReferences(t *testing.T) {
	dir := newWorkspace(t)
	app := startApp(t, Options{WorkspacePath: dir, Files: []string{filepath.Join(dir, "src/main.go")}})
	p := app.Palette()

	p.Activate(palette.ModeReference)
	p.Evaluate("@render")
	results := p.Results()
	require.NotEmpty(t, results)
	for _, c := range results {
		assert.True(t, strings.HasPrefix(c.Label(), "main.go:"), c.Label())
	}
	assert.Equal(t, 3, app.Documents().Cursor().Line)

	p.Cancel()
	assert.Zero(t, app.Documents().Cursor().Line)
}

func TestPaletteCommands(t *testing.T) {
	app := startApp(t, Options{WorkspacePath: newWorkspace(t), Version: "1.0.0"})
	p := app.Palette()

	p.Activate(palette.ModeCommand)
	p.Evaluate("future")
	assert.Empty(t, p.Results(), "menu item gated by version")

	p.Evaluate("hello")
	results := p.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "Say Hello", results[0].Label())
	assert.IsType(t, palette.ActionCandidate{}, results[0])
	assert.Equal(t, "user:hello", results[0].(palette.ActionCandidate).CommandID)
}

func TestInitErrorUnwrap(t *testing.T) {
	err := &InitError{Component: "index", Err: action.ErrUnknownAction}
	assert.ErrorIs(t, err, action.ErrUnknownAction)
	assert.Equal(t, "init index: "+action.ErrUnknownAction.Error(), err.Error())
}
