// Package derive sources read-only pseudo-marks from external tools. The
// only built-in source reads version-control change hunks, so modified
// regions of a file can render alongside user marks.
package derive

import (
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dshills/marksman/internal/logging"
	"github.com/dshills/marksman/internal/mark"
)

// Hunk tags, used as derived mark identifiers.
const (
	TagAdd    = "git:add"
	TagChange = "git:change"
	TagDelete = "git:delete"
)

// Hunk is one change region in the working copy relative to HEAD.
type Hunk struct {
	// Line is the 1-based first line of the hunk on the new side. For
	// pure deletions it is the line the removal sits after, clamped to 1.
	Line int

	// Tag classifies the hunk.
	Tag string
}

// runFunc executes a command and returns its stdout. Injectable for tests.
type runFunc func(dir string, args ...string) ([]byte, error)

// GitSource derives pseudo-marks from `git diff` hunks. Failures (not a
// repository, git missing) degrade to an empty result and are logged once.
type GitSource struct {
	mu sync.Mutex

	run      runFunc
	log      *logging.Logger
	reported bool
}

// NewGitSource creates a git-backed derived mark source.
func NewGitSource(log *logging.Logger) *GitSource {
	if log == nil {
		log = logging.Null
	}
	return &GitSource{
		run: runGit,
		log: log.WithComponent("derive"),
	}
}

// runGit shells out to git in the given directory.
func runGit(dir string, args ...string) ([]byte, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	return cmd.Output()
}

// DerivedMarks implements mark.DerivedSource: one pseudo-mark per change
// hunk in the file's unstaged diff.
func (g *GitSource) DerivedMarks(path string) []mark.DerivedMark {
	out, err := g.run(filepath.Dir(path),
		"diff", "--no-color", "--no-ext-diff", "-U0", "--", path)
	if err != nil {
		g.mu.Lock()
		if !g.reported {
			g.reported = true
			g.log.Debug("git diff unavailable for %s: %v", path, err)
		}
		g.mu.Unlock()
		return nil
	}

	hunks := ParseHunks(string(out))
	marks := make([]mark.DerivedMark, 0, len(hunks))
	for _, h := range hunks {
		marks = append(marks, mark.DerivedMark{Line: h.Line, Tag: h.Tag})
	}
	return marks
}

// ParseHunks extracts hunks from unified diff output. Only hunk headers are
// inspected; content lines are skipped.
func ParseHunks(output string) []Hunk {
	if output == "" {
		return nil
	}

	var hunks []Hunk
	for _, line := range strings.Split(output, "\n") {
		// Hunk header: @@ -start,count +start,count @@
		if !strings.HasPrefix(line, "@@ ") {
			continue
		}
		parts := strings.SplitN(line, "@@", 3)
		if len(parts) < 2 {
			continue
		}

		var oldLines, newStart, newLines int
		oldLines, newLines = 1, 1
		for _, r := range strings.Fields(strings.TrimSpace(parts[1])) {
			switch {
			case strings.HasPrefix(r, "-"):
				_, oldLines = parseRange(strings.TrimPrefix(r, "-"))
			case strings.HasPrefix(r, "+"):
				newStart, newLines = parseRange(strings.TrimPrefix(r, "+"))
			}
		}

		h := Hunk{Line: newStart}
		switch {
		case newLines == 0:
			// Pure deletion: anchor on the preceding surviving line.
			h.Tag = TagDelete
			if h.Line < 1 {
				h.Line = 1
			}
		case oldLines == 0:
			h.Tag = TagAdd
		default:
			h.Tag = TagChange
		}
		if h.Line < 1 {
			h.Line = 1
		}
		hunks = append(hunks, h)
	}
	return hunks
}

// parseRange parses "start,count" or "start" (count defaults to 1).
func parseRange(r string) (start, count int) {
	count = 1
	nums := strings.Split(r, ",")
	if len(nums) >= 1 {
		start, _ = strconv.Atoi(nums[0])
	}
	if len(nums) >= 2 {
		count, _ = strconv.Atoi(nums[1])
	}
	return start, count
}
