package linker

import (
	"log/slog"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// maxDiffBytes caps how much of a conflicting file is diffed for the log.
const maxDiffBytes = 64 * 1024

// logConflictDiff logs a line diff between a conflicting regular file and
// the repository source it is about to be replaced by, so the user can see
// what the backup preserves. Directories and unreadable files are skipped.
func (l *Linker) logConflictDiff(target, source string) {
	existing, ok := readForDiff(target)
	if !ok {
		return
	}

	repo, ok := readForDiff(source)
	if !ok {
		return
	}

	diff := unifiedDiff(existing, repo)
	if diff == "" {
		return
	}

	l.logger.Info("existing file differs from repository version",
		slog.String("target", target),
		slog.String("diff", diff))
}

func readForDiff(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() > maxDiffBytes {
		return "", false
	}

	data, err := os.ReadFile(path) //nolint:gosec // path from link spec
	if err != nil {
		return "", false
	}

	return string(data), true
}

// unifiedDiff renders a line-mode diff between two file contents using
// sergi/go-diff.
func unifiedDiff(before, after string) string {
	dmp := diffmatchpatch.New()

	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var sb strings.Builder

	for _, diff := range diffs {
		lines := strings.Split(diff.Text, "\n")
		// Remove trailing empty string from split
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}

		for _, line := range lines {
			switch diff.Type {
			case diffmatchpatch.DiffDelete:
				sb.WriteString("- " + line + "\n")
			case diffmatchpatch.DiffInsert:
				sb.WriteString("+ " + line + "\n")
			case diffmatchpatch.DiffEqual:
			}
		}
	}

	return sb.String()
}
