package derive

import (
	"errors"
	"reflect"
	"testing"
)

const sampleDiff = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -4,0 +5,2 @@ func main() {
+	added line one
+	added line two
@@ -10,3 +12,3 @@ func helper() {
-	old body
+	new body
@@ -20,2 +21,0 @@ func gone() {
-	removed line
-	removed line
`

func TestParseHunks(t *testing.T) {
	got := ParseHunks(sampleDiff)
	want := []Hunk{
		{Line: 5, Tag: TagAdd},
		{Line: 12, Tag: TagChange},
		{Line: 21, Tag: TagDelete},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseHunks = %v, want %v", got, want)
	}
}

func TestParseHunksSingleLineRanges(t *testing.T) {
	// No count means count 1 on both sides: a change.
	got := ParseHunks("@@ -3 +3 @@\n-x\n+y\n")
	want := []Hunk{{Line: 3, Tag: TagChange}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseHunks = %v, want %v", got, want)
	}
}

func TestParseHunksDeleteAtTopClamps(t *testing.T) {
	got := ParseHunks("@@ -1,2 +0,0 @@\n-first\n-second\n")
	if len(got) != 1 || got[0].Line != 1 || got[0].Tag != TagDelete {
		t.Fatalf("ParseHunks = %v, want delete clamped to line 1", got)
	}
}

func TestParseHunksEmpty(t *testing.T) {
	if got := ParseHunks(""); got != nil {
		t.Fatalf("ParseHunks(\"\") = %v, want nil", got)
	}
	if got := ParseHunks("not a diff\nat all\n"); got != nil {
		t.Fatalf("headerless input = %v, want nil", got)
	}
}

func TestDerivedMarks(t *testing.T) {
	g := NewGitSource(nil)
	var gotDir string
	var gotArgs []string
	g.run = func(dir string, args ...string) ([]byte, error) {
		gotDir = dir
		gotArgs = args
		return []byte("@@ -2,0 +3,1 @@\n+new\n"), nil
	}

	marks := g.DerivedMarks("/repo/pkg/file.go")
	if len(marks) != 1 || marks[0].Line != 3 || marks[0].Tag != TagAdd {
		t.Fatalf("DerivedMarks = %v", marks)
	}
	if gotDir != "/repo/pkg" {
		t.Errorf("ran in %q, want the file's directory", gotDir)
	}
	if len(gotArgs) == 0 || gotArgs[0] != "diff" {
		t.Errorf("args = %v, want a git diff invocation", gotArgs)
	}
}

func TestDerivedMarksFailureDegrades(t *testing.T) {
	g := NewGitSource(nil)
	calls := 0
	g.run = func(dir string, args ...string) ([]byte, error) {
		calls++
		return nil, errors.New("not a git repository")
	}

	if marks := g.DerivedMarks("/tmp/file.go"); marks != nil {
		t.Fatalf("failure must yield nil, got %v", marks)
	}
	// Subsequent calls keep degrading quietly.
	g.DerivedMarks("/tmp/file.go")
	if calls != 2 {
		t.Fatalf("run called %d times, want 2", calls)
	}
}
