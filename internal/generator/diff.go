package generator

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// FileDiff is the change between the previous and the new content of an
// output file.
type FileDiff struct {
	Path  string
	Added bool
	Patch string
}

// diffOutput returns nil when previous and next are equal. A missing
// previous file is reported as added with an empty patch.
func diffOutput(rel string, previous []byte, existed bool, next []byte) *FileDiff {
	if !existed {
		return &FileDiff{Path: rel, Added: true}
	}
	if string(previous) == string(next) {
		return nil
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(previous), string(next))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	diffs = dmp.DiffCleanupSemantic(diffs)
	patches := dmp.PatchMake(string(previous), diffs)
	return &FileDiff{Path: rel, Patch: dmp.PatchToText(patches)}
}
