// Package metadata edits the textual METADATA body of a wheel.
package metadata

import (
	"path/filepath"
	"regexp"
	"strings"
)

// FileName is the metadata body's filename inside the dist-info directory.
const FileName = "METADATA"

var nameLine = regexp.MustCompile(`(?m)^Name: .*$`)

// Name returns the value of the Name field, or "" if absent.
func Name(text string) string {
	m := nameLine.FindString(text)
	if m == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(m, "Name:"))
}

// SetName rewrites the Name field to newName, preserving its original casing
// (no normalization is applied to the value).
func SetName(text, newName string) string {
	return nameLine.ReplaceAllLiteralString(text, "Name: "+newName)
}

// Apply sets each field to the given value in the metadata header block.
// An existing field line is replaced in place; a new field is appended after
// the last header line, before the body separator (the first blank line).
func Apply(text string, fields map[string]string) string {
	for field, value := range fields {
		re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(field) + `: .*$`)
		if re.MatchString(text) {
			text = re.ReplaceAllLiteralString(text, field+": "+value)
			continue
		}

		line := field + ": " + value
		if idx := strings.Index(text, "\n\n"); idx != -1 {
			text = text[:idx] + "\n" + line + text[idx:]
		} else {
			if !strings.HasSuffix(text, "\n") && text != "" {
				text += "\n"
			}
			text += line + "\n"
		}
	}
	return text
}

// SetBody replaces the long-description body, everything after the header
// block's terminating blank line. A body is appended if none exists.
func SetBody(text, body string) string {
	if idx := strings.Index(text, "\n\n"); idx != -1 {
		text = text[:idx]
	}
	text = strings.TrimRight(text, "\n")
	return text + "\n\n" + body
}

// ContentTypeForReadme maps a README file extension to the long-description
// content type declared in metadata.
func ContentTypeForReadme(readmePath string) string {
	switch strings.ToLower(filepath.Ext(readmePath)) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".rst":
		return "text/x-rst"
	default:
		return "text/plain"
	}
}
