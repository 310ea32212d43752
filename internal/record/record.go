// Package record reads and regenerates the RECORD manifest of an unpacked wheel.
//
// RECORD is a comma-separated file listing every archive member as
// path,hash,size. The parser is deliberately tolerant of malformed upstream
// manifests: short records are preserved padded rather than rejected.
package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcdonaldj/wheeledit/internal/ports"
)

// FileName is the manifest's filename inside the dist-info directory.
const FileName = "RECORD"

// Entry is one manifest record: a relative member path with its content hash
// and byte size, both kept as strings exactly as they appear on the wire.
type Entry struct {
	Path string
	Hash string
	Size string
}

// Parse reads RECORD lines into entries, skipping blank lines. Records with
// fewer than three fields are padded with empty fields; extra fields beyond
// the third are dropped.
func Parse(data string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		e := Entry{Path: parts[0]}
		if len(parts) > 1 {
			e.Hash = parts[1]
		}
		if len(parts) > 2 {
			e.Size = parts[2]
		}
		entries = append(entries, e)
	}
	return entries
}

// Format renders entries back as comma-joined lines in order, with a
// trailing newline.
func Format(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Path)
		b.WriteString(",")
		b.WriteString(e.Hash)
		b.WriteString(",")
		b.WriteString(e.Size)
		b.WriteString("\n")
	}
	return b.String()
}

// Regenerate recomputes hash and size for every entry that still exists under
// treeDir. The RECORD entry itself gets empty hash and size fields; entries
// whose path no longer exists keep their previously recorded fields.
func Regenerate(fs ports.FileSystem, entries []Entry, treeDir string) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Path, FileName) {
			out = append(out, Entry{Path: e.Path})
			continue
		}

		fullPath := filepath.Join(treeDir, filepath.FromSlash(e.Path))
		info, err := fs.Stat(fullPath)
		if err != nil {
			if os.IsNotExist(err) {
				out = append(out, e)
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", e.Path, err)
		}

		hash, err := ComputeSHA256(fs, fullPath)
		if err != nil {
			return nil, fmt.Errorf("hashing %s: %w", e.Path, err)
		}

		out = append(out, Entry{
			Path: e.Path,
			Hash: "sha256=" + hash,
			Size: fmt.Sprintf("%d", info.Size()),
		})
	}
	return out, nil
}

// Update rewrites the RECORD file at recordPath with regenerated hashes and
// sizes for the tree rooted at treeDir. Missing RECORD is a no-op.
func Update(fs ports.FileSystem, recordPath, treeDir string) error {
	data, err := fs.ReadFile(recordPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	entries, err := Regenerate(fs, Parse(string(data)), treeDir)
	if err != nil {
		return err
	}

	return fs.WriteFile(recordPath, []byte(Format(entries)), 0o644)
}

// ComputeSHA256 calculates the hex SHA256 hash of a file's contents.
func ComputeSHA256(fs ports.FileSystem, filePath string) (string, error) {
	f, err := fs.Open(filePath)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
