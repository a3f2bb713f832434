package comparator

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffSummary describes how a profile differs from the live configuration.
type DiffSummary struct {
	Identical    bool     `json:"identical"`
	LinesAdded   int      `json:"lines_added"`
	LinesDeleted int      `json:"lines_deleted"`
	ChangedKeys  []string `json:"changed_keys,omitempty"`
}

// Canonicalize re-encodes valid JSON with sorted keys and two-space indentation
// so that textual diffs only show real differences. Invalid JSON is returned as is.
func Canonicalize(content []byte) string {
	v, err := decode(content)
	if err != nil {
		return string(content)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(content)
	}
	return string(out) + "\n"
}

// Diff computes line statistics between the canonical forms of live and profile,
// plus the top-level keys whose values differ.
func Diff(live, profile []byte) DiffSummary {
	a, b := Canonicalize(live), Canonicalize(profile)

	dmp := diffmatchpatch.New()
	chars1, chars2, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lines)

	summary := DiffSummary{Identical: true}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			summary.LinesAdded += countLines(d.Text)
			summary.Identical = false
		case diffmatchpatch.DiffDelete:
			summary.LinesDeleted += countLines(d.Text)
			summary.Identical = false
		}
	}

	summary.ChangedKeys = changedKeys(live, profile)
	return summary
}

// UnifiedDiff renders a unified diff from the live configuration to the profile.
func UnifiedDiff(live, profile []byte, fromName, toName string) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(Canonicalize(live)),
		B:        difflib.SplitLines(Canonicalize(profile)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

func changedKeys(live, profile []byte) []string {
	lv, err := decode(live)
	if err != nil {
		return nil
	}
	pv, err := decode(profile)
	if err != nil {
		return nil
	}
	lo, ok1 := normalize(lv).(map[string]any)
	po, ok2 := normalize(pv).(map[string]any)
	if !ok1 || !ok2 {
		return nil
	}

	var keys []string
	for k, v := range lo {
		other, ok := po[k]
		if !ok || !reflect.DeepEqual(v, other) {
			keys = append(keys, k)
		}
	}
	for k := range po {
		if _, ok := lo[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
