// Package diff compares the members of two wheel archives.
package diff

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/mcdonaldj/wheeledit/internal/ports"
)

// FileChange represents a change of one member between two wheels.
type FileChange struct {
	Path   string
	Status rune // 'M' modified, 'A' added, 'D' deleted
	SizeA  int64
	SizeB  int64
}

// Result contains the comparison between two wheels.
type Result struct {
	WheelA   string
	WheelB   string
	Changes  []FileChange
	Added    int
	Modified int
	Deleted  int
}

// Compute compares the member sets of two wheels by size and CRC.
func Compute(codec ports.Archiver, wheelA, wheelB string) (*Result, error) {
	filesA, err := codec.List(wheelA)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", wheelA, err)
	}
	filesB, err := codec.List(wheelB)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", wheelB, err)
	}

	result := &Result{
		WheelA: wheelA,
		WheelB: wheelB,
	}

	allPaths := make(map[string]bool)
	for path := range filesA {
		allPaths[path] = true
	}
	for path := range filesB {
		allPaths[path] = true
	}

	for path := range allPaths {
		infoA, inA := filesA[path]
		infoB, inB := filesB[path]

		var change FileChange
		change.Path = path

		switch {
		case inA && !inB:
			change.Status = 'D'
			change.SizeA = infoA.Size
			result.Deleted++
		case !inA && inB:
			change.Status = 'A'
			change.SizeB = infoB.Size
			result.Added++
		case infoA.CRC32 != infoB.CRC32 || infoA.Size != infoB.Size:
			change.Status = 'M'
			change.SizeA = infoA.Size
			change.SizeB = infoB.Size
			result.Modified++
		default:
			continue
		}

		result.Changes = append(result.Changes, change)
	}

	// Sort changes: M, A, D then by path
	sort.Slice(result.Changes, func(i, j int) bool {
		if result.Changes[i].Status != result.Changes[j].Status {
			order := map[rune]int{'M': 0, 'A': 1, 'D': 2}
			return order[result.Changes[i].Status] < order[result.Changes[j].Status]
		}
		return result.Changes[i].Path < result.Changes[j].Path
	})

	return result, nil
}

// Line represents a single line in the diff output.
type Line struct {
	LineNumA int    // Line number in wheel A (0 if added)
	LineNumB int    // Line number in wheel B (0 if deleted)
	Type     rune   // '+' added, '-' deleted, ' ' unchanged
	Content  string // Line content
}

// FileResult contains the line-by-line diff of a single member.
type FileResult struct {
	Path     string
	Lines    []Line
	IsBinary bool
	Error    string
}

// IsBinaryContent checks if content appears to be binary.
func IsBinaryContent(content string) bool {
	if len(content) == 0 {
		return false
	}
	checkLen := len(content)
	if checkLen > 8000 {
		checkLen = 8000
	}
	sample := content[:checkLen]

	if strings.Contains(sample, "\x00") {
		return true
	}
	if !utf8.ValidString(sample) {
		return true
	}
	return false
}

// ComputeFileDiff computes the line-by-line diff of one member across two
// wheels, given its change status from Compute.
func ComputeFileDiff(codec ports.Archiver, wheelA, wheelB, member string, status rune) (*FileResult, error) {
	result := &FileResult{Path: member}

	var contentA, contentB string
	var err error

	switch status {
	case 'A':
		contentB, err = codec.ReadFile(wheelB, member)
		if err != nil {
			result.Error = fmt.Sprintf("Error reading member: %v", err)
			return result, nil
		}
	case 'D':
		contentA, err = codec.ReadFile(wheelA, member)
		if err != nil {
			result.Error = fmt.Sprintf("Error reading member: %v", err)
			return result, nil
		}
	case 'M':
		contentA, err = codec.ReadFile(wheelA, member)
		if err != nil {
			result.Error = fmt.Sprintf("Error reading %s: %v", wheelA, err)
			return result, nil
		}
		contentB, err = codec.ReadFile(wheelB, member)
		if err != nil {
			result.Error = fmt.Sprintf("Error reading %s: %v", wheelB, err)
			return result, nil
		}
	}

	if IsBinaryContent(contentA) || IsBinaryContent(contentB) {
		result.IsBinary = true
		return result, nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(contentA, contentB, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	if len(diffs) == 1 && diffs[0].Type == diffmatchpatch.DiffEqual {
		return result, nil
	}

	result.Lines = lineDiff(contentA, contentB)
	return result, nil
}

// lineDiff does a simple line-by-line comparison for cleaner output.
func lineDiff(contentA, contentB string) []Line {
	var lines []Line

	linesA := strings.Split(contentA, "\n")
	linesB := strings.Split(contentB, "\n")

	i, j := 0, 0
	for i < len(linesA) || j < len(linesB) {
		if i < len(linesA) && j < len(linesB) && linesA[i] == linesB[j] {
			lines = append(lines, Line{
				LineNumA: i + 1,
				LineNumB: j + 1,
				Type:     ' ',
				Content:  linesA[i],
			})
			i++
			j++
		} else if i < len(linesA) && (j >= len(linesB) || !containsLine(linesB[j:], linesA[i])) {
			lines = append(lines, Line{
				LineNumA: i + 1,
				Type:     '-',
				Content:  linesA[i],
			})
			i++
		} else if j < len(linesB) {
			lines = append(lines, Line{
				LineNumB: j + 1,
				Type:     '+',
				Content:  linesB[j],
			})
			j++
		}
	}

	return lines
}

func containsLine(lines []string, target string) bool {
	for _, line := range lines {
		if line == target {
			return true
		}
	}
	return false
}
