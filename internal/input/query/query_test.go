package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want Query
		kind Kind
	}{
		{
			raw:  "",
			want: Query{},
			kind: KindNone,
		},
		{
			raw:  "foo.js",
			want: Query{File: "foo.js", HasFile: true},
			kind: KindFile,
		},
		{
			raw:  "foo.js:12",
			want: Query{File: "foo.js", HasFile: true, Line: 11, HasLine: true},
			kind: KindFile,
		},
		{
			raw:  ":1",
			want: Query{Line: 0, HasLine: true},
			kind: KindLine,
		},
		{
			raw:  ":0",
			want: Query{Line: 0, HasLine: true},
			kind: KindLine,
		},
		{
			raw:  ":",
			want: Query{Line: 0, HasLine: true},
			kind: KindLine,
		},
		{
			raw:  "main.go:",
			want: Query{File: "main.go", HasFile: true, Line: 0, HasLine: true},
			kind: KindFile,
		},
		{
			raw:  "#TODO",
			want: Query{Search: "TODO", HasSearch: true},
			kind: KindSearch,
		},
		{
			raw:  "#",
			want: Query{HasSearch: true},
			kind: KindSearch,
		},
		{
			raw:  "@render",
			want: Query{Reference: "render", HasReference: true},
			kind: KindReference,
		},
		{
			raw:  "util#fix me@x",
			want: Query{File: "util", HasFile: true, Search: "fix me", HasSearch: true, Reference: "x", HasReference: true},
			kind: KindSearch,
		},
		{
			raw:  "#foo:12",
			want: Query{Search: "foo", HasSearch: true, Line: 11, HasLine: true},
			kind: KindSearch,
		},
		{
			raw:  "@a#b",
			want: Query{Reference: "a", HasReference: true, Search: "b", HasSearch: true},
			kind: KindSearch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Parse(tt.raw)
			tt.want.Raw = tt.raw
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.kind, got.Kind())
		})
	}
}

func TestForcesLocation(t *testing.T) {
	assert.True(t, ForcesLocation(":12"))
	assert.True(t, ForcesLocation("#x"))
	assert.True(t, ForcesLocation("@"))
	assert.False(t, ForcesLocation("open"))
	assert.False(t, ForcesLocation("a:1"))
	assert.False(t, ForcesLocation(""))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "search", KindSearch.String())
	assert.Equal(t, "none", Kind(99).String())
}
