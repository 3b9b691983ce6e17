package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// ChangedFile is one file touched by a diff. Lines lists the changed lines of
// the new version; it is empty for deletions and pure removals.
type ChangedFile struct {
	Path    string
	Lines   []int
	Deleted bool
}

// WholeFile reports whether the change should be treated as touching every line.
func (c ChangedFile) WholeFile() bool {
	return c.Deleted || len(c.Lines) == 0
}

// Diff runs git diff against baseRef inside dir and returns the changed C# files.
func Diff(ctx context.Context, dir, baseRef string) ([]ChangedFile, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "diff", "-U0", "--no-color", "--no-renames", baseRef, "--", "*.cs")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}
	return ParseDiff(output)
}

// Chunk header: @@ -oldStart,oldLen +newStart,newLen @@; only the + side matters.
var chunkHeader = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// ParseDiff reads unified diff output with zero context lines.
func ParseDiff(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var changes []ChangedFile
	var current *ChangedFile
	flush := func() {
		if current != nil {
			changes = append(changes, *current)
			current = nil
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "diff --git "):
			flush()
			parts := strings.Fields(line)
			if len(parts) < 4 {
				return nil, fmt.Errorf("malformed diff header %q", line)
			}
			current = &ChangedFile{Path: strings.TrimPrefix(parts[3], "b/")}
		case current == nil:
		case strings.HasPrefix(line, "deleted file mode"), line == "+++ /dev/null":
			current.Deleted = true
		case strings.HasPrefix(line, "@@"):
			m := chunkHeader.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("malformed chunk header %q", line)
			}
			start, _ := strconv.Atoi(m[1])
			count := 1
			if m[2] != "" {
				count, _ = strconv.Atoi(m[2])
			}
			for i := 0; i < count; i++ {
				current.Lines = append(current.Lines, start+i)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return changes, nil
}
