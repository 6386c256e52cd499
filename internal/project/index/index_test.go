package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (and their directories) under dir.
func writeTree(t *testing.T, dir string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(dir, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
}

func TestIgnore(t *testing.T) {
	ig := NewIgnore(
		"*.log",
		"!keep.log",
		"/build/",
		"docs/*.md",
		"**/tmp",
		"# comment",
		"",
	)

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"a.log", false, true},
		{"src/deep/b.log", false, true},
		{"keep.log", false, false},
		{"build", true, true},
		{"build", false, false},
		{"src/build", true, false},
		{"docs/readme.md", false, true},
		{"docs/api/readme.md", false, false},
		{"src/tmp", false, true},
		{"main.go", false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ig.Match(tt.path, tt.isDir), tt.path)
	}

	var nilIgnore *Ignore
	assert.False(t, nilIgnore.Match("a.log", false))
}

func TestIgnoreAddFile(t *testing.T) {
	dir := t.TempDir()
	gi := filepath.Join(dir, ".gitignore")
	require.NoError(t, os.WriteFile(gi, []byte("dist/\n*.tmp\n"), 0o644))

	ig := NewIgnore()
	require.NoError(t, ig.AddFile(gi))
	assert.True(t, ig.Match("dist", true))
	assert.True(t, ig.Match("x.tmp", false))

	require.NoError(t, ig.AddFile(filepath.Join(dir, "missing")))
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir,
		"src/foo.js",
		"src/util/bar.js",
		"test/foo.js",
		"node_modules/dep/index.js",
		".git/HEAD",
		"dist/bundle.js",
		"notes.tmp",
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("dist/\n"), 0o644))

	fi := New(Config{
		Roots:        []string{dir},
		Ignore:       []string{"*.tmp"},
		UseGitignore: true,
	}, nil)

	changed := 0
	fi.OnChange(func() { changed++ })

	require.NoError(t, fi.Build(context.Background()))
	assert.Equal(t, []string{".gitignore", "src/foo.js", "src/util/bar.js", "test/foo.js"}, fi.Paths())
	assert.Equal(t, 4, fi.Count())
	assert.Equal(t, 1, changed)

	abs, ok := fi.Resolve("src/foo.js")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "src", "foo.js"), abs)
}

func TestBuildMultipleRoots(t *testing.T) {
	base := t.TempDir()
	api := filepath.Join(base, "api")
	web := filepath.Join(base, "web")
	writeTree(t, api, "main.go")
	writeTree(t, web, "main.js")

	fi := New(Config{Roots: []string{api, web}}, nil)
	require.NoError(t, fi.Build(context.Background()))
	assert.Equal(t, []string{"api/main.go", "web/main.js"}, fi.Paths())
}

func TestBuildErrors(t *testing.T) {
	fi := New(Config{}, nil)
	assert.ErrorIs(t, fi.Build(context.Background()), ErrNoRoots)

	fi = New(Config{Roots: []string{filepath.Join(t.TempDir(), "missing")}}, nil)
	assert.Error(t, fi.Build(context.Background()))

	dir := t.TempDir()
	writeTree(t, dir, "a.go")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fi = New(Config{Roots: []string{dir}}, nil)
	assert.ErrorIs(t, fi.Build(ctx), context.Canceled)
}

func TestBuildMaxFiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.go", "b.go", "c.go")

	fi := New(Config{Roots: []string{dir}, MaxFiles: 2}, nil)
	require.NoError(t, fi.Build(context.Background()))
	assert.Equal(t, 2, fi.Count())
}

func TestAddRemove(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "src/a.go", "src/b.go", "top.go")

	fi := New(Config{Roots: []string{dir}}, nil)
	require.NoError(t, fi.Build(context.Background()))

	assert.True(t, fi.add(filepath.Join(dir, "src", "c.go")))
	assert.False(t, fi.add(filepath.Join(dir, "src", "c.go")))
	assert.False(t, fi.add(filepath.Join(dir, "node_modules", "x.js")))
	assert.False(t, fi.add(filepath.Join(t.TempDir(), "elsewhere.go")))

	assert.Equal(t, 3, fi.remove(filepath.Join(dir, "src")))
	assert.Equal(t, []string{"top.go"}, fi.Paths())
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.go")

	fi := New(Config{Roots: []string{dir}}, nil)
	require.NoError(t, fi.Build(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fi.Watch(ctx) }()

	// Give the watcher time to register the root.
	time.Sleep(100 * time.Millisecond)

	writeTree(t, dir, "b.go")
	assert.Eventually(t, func() bool {
		_, ok := fi.Resolve("b.go")
		return ok
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.go")))
	assert.Eventually(t, func() bool {
		_, ok := fi.Resolve("a.go")
		return !ok
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchRequiresBuild(t *testing.T) {
	fi := New(Config{Roots: []string{t.TempDir()}}, nil)
	assert.ErrorIs(t, fi.Watch(context.Background()), ErrNoRoots)
}
