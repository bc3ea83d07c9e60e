package project

import (
	"os"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"

	kerrors "github.com/go-drift/kernel/pkg/errors"
)

// change holds the content a file had before its first journaled write.
type change struct {
	before  []byte
	existed bool
}

// Change describes a file touched since the Tree was created.
type Change struct {
	Path    string
	Created bool
}

// record snapshots path before its first write.
func (t *Tree) record(path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.journal[path]; ok {
		return nil
	}
	data, err := afero.ReadFile(t.fs, path)
	switch {
	case err == nil:
		t.journal[path] = &change{before: data, existed: true}
	case os.IsNotExist(err):
		t.journal[path] = &change{}
	default:
		return kerrors.Resource("project.WriteFile", err)
	}
	return nil
}

// Changes lists the files written through the Tree, sorted by path.
func (t *Tree) Changes() []Change {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Change, 0, len(t.journal))
	for path, c := range t.journal {
		out = append(out, Change{Path: path, Created: !c.existed})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Diff renders the change to path as a unified diff, plus the
// number of added and deleted lines. It returns "" when path was not written
// or its content is unchanged.
func (t *Tree) Diff(path string) (string, int, int, error) {
	t.mu.Lock()
	c, ok := t.journal[path]
	t.mu.Unlock()
	if !ok {
		return "", 0, 0, nil
	}

	after, err := t.ReadFile(path)
	if err != nil {
		return "", 0, 0, err
	}
	before := string(c.before)
	if before == string(after) {
		return "", 0, 0, nil
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, string(after))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	additions, deletions := 0, 0
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			additions += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			deletions += countLines(d.Text)
		}
	}

	from := path
	if !c.existed {
		from = "/dev/null"
	}
	patch, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(before),
		B:        splitLines(string(after)),
		FromFile: from,
		ToFile:   path,
		Context:  3,
	})
	if err != nil {
		return "", 0, 0, kerrors.Resource("project.Diff", err)
	}
	return patch, additions, deletions, nil
}

// splitLines splits text into newline-terminated lines. A final line without
// a newline gets one so hunks stay line aligned.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if last := len(lines) - 1; lines[last] == "" {
		lines = lines[:last]
	} else {
		lines[last] += "\n"
	}
	return lines
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	lines := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		lines++
	}
	return lines
}
