package merge

import (
	"strings"
	"testing"

	"github.com/haierkeys/wicky/pkg/difftool"

	"github.com/stretchr/testify/assert"
)

var testIDs = difftool.Identities{
	Mine:     "/tmp/wicky-difftool-42/mine",
	Original: "/tmp/wicky-difftool-42/original",
	Theirs:   "/tmp/wicky-difftool-42/theirs",
}

const canonicalConflict = "<<<<<<< mine\nclient-line\n||||||| original\nline\n=======\nserver-line\n>>>>>>> others\n"

func TestRewriteMarkers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain paths",
			raw: "<<<<<<< /tmp/wicky-difftool-42/mine\nclient-line\n" +
				"||||||| /tmp/wicky-difftool-42/original\nline\n=======\nserver-line\n" +
				">>>>>>> /tmp/wicky-difftool-42/theirs\n",
			want: canonicalConflict,
		},
		{
			name: "variable width delimiters",
			raw: "<<<<<<<<<< /tmp/wicky-difftool-42/mine\nclient-line\n" +
				"||||| /tmp/wicky-difftool-42/original\nline\n=======\nserver-line\n" +
				">>>>>>>>>\t/tmp/wicky-difftool-42/theirs\n",
			want: canonicalConflict,
		},
		{
			name: "quoted identities",
			raw: "<<<<<<< \"/tmp/wicky-difftool-42/mine\"\nclient-line\n" +
				"||||||| \"/tmp/wicky-difftool-42/original\"\nline\n=======\nserver-line\n" +
				">>>>>>> \"/tmp/wicky-difftool-42/theirs\"\n",
			want: canonicalConflict,
		},
		{
			name: "truncated identities",
			raw: "<<<<<<< /tmp/wicky-difftool-42/mi\nclient-line\n" +
				"||||||| /tmp/wicky-difftool-42/orig\nline\n=======\nserver-line\n" +
				">>>>>>> /tmp/wicky-difftool-42/\n",
			want: canonicalConflict,
		},
		{
			name: "truncated inside directory falls back on delimiter",
			raw: "<<<<<<< /tmp/wicky-diff\nclient-line\n" +
				"||||||| /tmp/wicky-diff\nline\n=======\nserver-line\n" +
				">>>>>>> /tmp/wicky-diff\n",
			want: canonicalConflict,
		},
		{
			name: "base names",
			raw:  "<<<<<<< mine\nclient-line\n||||||| original\nline\n=======\nserver-line\n>>>>>>> theirs\n",
			want: canonicalConflict,
		},
		{
			name: "crlf kept",
			raw:  "<<<<<<< /tmp/wicky-difftool-42/mine\r\nx\r\n=======\r\ny\r\n>>>>>>> /tmp/wicky-difftool-42/theirs\r\n",
			want: "<<<<<<< mine\r\nx\r\n=======\r\ny\r\n>>>>>>> others\r\n",
		},
		{
			name: "no trailing newline",
			raw:  "<<<<<<< /tmp/wicky-difftool-42/mine\nx\n=======\ny\n>>>>>>> /tmp/wicky-difftool-42/theirs",
			want: "<<<<<<< mine\nx\n=======\ny\n>>>>>>> others",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewriteMarkers(tt.raw, testIDs))
		})
	}
}

func TestRewriteMarkers_EscapedIdentity(t *testing.T) {
	ids := difftool.Identities{
		Mine:     "/tmp/wicky difftool/mine",
		Original: "/tmp/wicky difftool/original",
		Theirs:   "/tmp/wicky difftool/theirs",
	}
	raw := "<<<<<<< /tmp/wicky\\ difftool/mine\na\n||||||| /tmp/wicky\\ difftool/original\nb\n=======\nc\n>>>>>>> /tmp/wicky\\ difftool/theirs\n"
	want := "<<<<<<< mine\na\n||||||| original\nb\n=======\nc\n>>>>>>> others\n"
	assert.Equal(t, want, RewriteMarkers(raw, ids))
}

func TestRewriteMarkers_LeavesUserText(t *testing.T) {
	raw := "<<<<<<< /tmp/wicky-difftool-42/mine\n" +
		"<<<<<<< HEAD\n" +
		">>>>>>> original\n" +
		"|||||||\n" +
		"=====\n" +
		">>>>>>> /tmp/wicky-difftool-42/theirs\n"
	got := RewriteMarkers(raw, testIDs)

	lines := strings.Split(got, "\n")
	assert.Equal(t, MarkerMine, lines[0])
	assert.Equal(t, "<<<<<<< HEAD", lines[1])
	assert.Equal(t, ">>>>>>> original", lines[2])
	assert.Equal(t, "|||||||", lines[3])
	assert.Equal(t, "=====", lines[4])
	assert.Equal(t, MarkerOthers, lines[5])
}

func TestRewriteMarkers_NoConflict(t *testing.T) {
	raw := "nothing to see\nhere\n"
	assert.Equal(t, raw, RewriteMarkers(raw, testIDs))
}

func TestRewriteMarkers_BareNamesInContent(t *testing.T) {
	raw := "======= original\n" +
		">>>>>>> theirs\n" +
		"<<<<<<< /tmp/wicky-difftool-42/mine\n" +
		">>>>>>> theirs\n" +
		"||||||| /tmp/wicky-difftool-42/original\n" +
		"line\n" +
		"=======\n" +
		"<<<<<<< mine\n" +
		">>>>>>> /tmp/wicky-difftool-42/theirs\n"
	want := "======= original\n" +
		">>>>>>> theirs\n" +
		MarkerMine + "\n" +
		">>>>>>> theirs\n" +
		MarkerOriginal + "\n" +
		"line\n" +
		"=======\n" +
		"<<<<<<< mine\n" +
		MarkerOthers + "\n"
	assert.Equal(t, want, RewriteMarkers(raw, testIDs))
}

func TestRewriteMarkers_BareNamesOutOfPlace(t *testing.T) {
	// no full paths anywhere, so bare names count, but only in diff3's order
	raw := ">>>>>>> theirs\n" +
		"<<<<<<< mine\nclient-line\n||||||| original\nline\n=======\nserver-line\n>>>>>>> theirs\n" +
		"||||||| original\n"
	want := ">>>>>>> theirs\n" + canonicalConflict + "||||||| original\n"
	assert.Equal(t, want, RewriteMarkers(raw, testIDs))
}
