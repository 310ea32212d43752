// Package verify checks a wheel's RECORD manifest against its actual contents.
package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcdonaldj/wheeledit/internal/adapters/osfs"
	"github.com/mcdonaldj/wheeledit/internal/adapters/wheelcodec"
	"github.com/mcdonaldj/wheeledit/internal/editor"
	"github.com/mcdonaldj/wheeledit/internal/ports"
	"github.com/mcdonaldj/wheeledit/internal/record"
)

// Mismatch reports one RECORD inconsistency.
type Mismatch struct {
	Path   string
	Reason string
}

// Service provides verification with injected dependencies.
type Service struct {
	fs    ports.FileSystem
	codec ports.Archiver
}

// NewService creates a verification service with the given dependencies.
func NewService(fs ports.FileSystem, codec ports.Archiver) *Service {
	return &Service{
		fs:    fs,
		codec: codec,
	}
}

// NewDefaultService creates a verification service with production dependencies.
func NewDefaultService() *Service {
	return NewService(osfs.New(), wheelcodec.New())
}

// Verify unpacks the wheel, recomputes each RECORD entry's hash and size, and
// reports every mismatch: corrupted members, members missing from the tree,
// and files the manifest does not list. A nil slice means the wheel is
// internally consistent.
func (s *Service) Verify(wheelPath string) ([]Mismatch, error) {
	ed := editor.NewWithDeps(wheelPath, s.fs, s.codec)
	defer func() { _ = ed.Cleanup() }()

	treeDir, err := ed.Unpack()
	if err != nil {
		return nil, err
	}

	di, err := ed.DistInfoDir()
	if err != nil {
		return nil, err
	}

	data, err := s.fs.ReadFile(filepath.Join(di, record.FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s has no %s manifest", wheelPath, record.FileName)
		}
		return nil, err
	}

	var mismatches []Mismatch
	listed := make(map[string]bool)

	for _, e := range record.Parse(string(data)) {
		listed[e.Path] = true
		if strings.HasSuffix(e.Path, record.FileName) {
			continue
		}

		fullPath := filepath.Join(treeDir, filepath.FromSlash(e.Path))
		info, err := s.fs.Stat(fullPath)
		if err != nil {
			if os.IsNotExist(err) {
				mismatches = append(mismatches, Mismatch{Path: e.Path, Reason: "listed in RECORD but missing from the wheel"})
				continue
			}
			return nil, err
		}

		if e.Size != "" && e.Size != fmt.Sprintf("%d", info.Size()) {
			mismatches = append(mismatches, Mismatch{
				Path:   e.Path,
				Reason: fmt.Sprintf("size mismatch: RECORD says %s, found %d", e.Size, info.Size()),
			})
			continue
		}

		want := strings.TrimPrefix(e.Hash, "sha256=")
		if want == "" || want == e.Hash {
			// Empty or non-sha256 hash field; nothing to check against.
			continue
		}
		got, err := record.ComputeSHA256(s.fs, fullPath)
		if err != nil {
			return nil, fmt.Errorf("hashing %s: %w", e.Path, err)
		}
		if got != want {
			mismatches = append(mismatches, Mismatch{Path: e.Path, Reason: "hash mismatch"})
		}
	}

	files, err := ed.List("")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if !listed[f] {
			mismatches = append(mismatches, Mismatch{Path: f, Reason: "present in the wheel but not listed in RECORD"})
		}
	}

	return mismatches, nil
}
