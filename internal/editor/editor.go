// Package editor implements the wheel editing session: unpack, inspect,
// mutate, and repackage with a regenerated RECORD manifest.
package editor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mcdonaldj/wheeledit/internal/adapters/osfs"
	"github.com/mcdonaldj/wheeledit/internal/adapters/wheelcodec"
	"github.com/mcdonaldj/wheeledit/internal/metadata"
	"github.com/mcdonaldj/wheeledit/internal/ports"
	"github.com/mcdonaldj/wheeledit/internal/record"
)

const distInfoSuffix = ".dist-info"

// validName is the distribution name grammar: ASCII letters, digits, period,
// underscore, hyphen; first and last character alphanumeric.
var validName = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// RenamePair records one file moved by RenameFiles, as slash-separated paths
// relative to the extraction tree root.
type RenamePair struct {
	Old string
	New string
}

// Editor is a stateful editing session bound to one wheel path. It owns at
// most one extraction directory, released by Cleanup.
type Editor struct {
	wheelPath string
	fs        ports.FileSystem
	codec     ports.Archiver

	tempRoot string // parent temp dir, "" until Unpack
	treeDir  string // the single top-level extracted subdirectory
}

// New creates an editing session for wheelPath with production dependencies.
func New(wheelPath string) *Editor {
	return NewWithDeps(wheelPath, osfs.New(), wheelcodec.New())
}

// NewWithDeps creates an editing session with injected dependencies.
func NewWithDeps(wheelPath string, fs ports.FileSystem, codec ports.Archiver) *Editor {
	return &Editor{
		wheelPath: wheelPath,
		fs:        fs,
		codec:     codec,
	}
}

// WheelPath returns the wheel path this session is bound to.
func (e *Editor) WheelPath() string {
	return e.wheelPath
}

// TreeDir returns the extraction tree root, or "" before Unpack.
func (e *Editor) TreeDir() string {
	return e.treeDir
}

// ValidateName reports whether name satisfies the distribution name grammar.
func ValidateName(name string) bool {
	if !validName.MatchString(name) {
		return false
	}
	return isAlnum(name[0]) && isAlnum(name[len(name)-1])
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// Unpack extracts the wheel into a fresh temporary directory and returns the
// extraction tree root. Idempotent: repeated calls return the same tree.
func (e *Editor) Unpack() (string, error) {
	if e.treeDir != "" {
		return e.treeDir, nil
	}

	tempRoot, err := e.fs.MkdirTemp("", "wheeledit-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	e.tempRoot = tempRoot

	// The codec chatters about progress; silence it for this one call and
	// restore its stream unconditionally.
	prev := e.codec.SetOutput(io.Discard)
	err = e.codec.Unpack(e.wheelPath, tempRoot)
	e.codec.SetOutput(prev)
	if err != nil {
		return "", fmt.Errorf("unpacking %s: %w", e.wheelPath, err)
	}

	entries, err := e.fs.ReadDir(tempRoot)
	if err != nil {
		return "", err
	}
	var subdirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, entry.Name())
		}
	}
	if len(subdirs) == 0 {
		return "", &StructuralError{Reason: "no subdirectories found after unpacking"}
	}
	e.treeDir = filepath.Join(tempRoot, subdirs[0])

	if _, err := e.DistInfoDir(); err != nil {
		return "", err
	}
	return e.treeDir, nil
}

func (e *Editor) ensureUnpacked() error {
	if e.treeDir != "" {
		return nil
	}
	_, err := e.Unpack()
	return err
}

// DistInfoDir returns the path of the single dist-info directory inside the
// extraction tree. It is re-derived by scan on every call, never cached: a
// rename changes its name, so a stored pointer would go stale.
func (e *Editor) DistInfoDir() (string, error) {
	if err := e.ensureUnpacked(); err != nil {
		return "", err
	}

	entries, err := e.fs.ReadDir(e.treeDir)
	if err != nil {
		return "", err
	}

	var found []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasSuffix(entry.Name(), distInfoSuffix) {
			found = append(found, entry.Name())
		}
	}
	switch len(found) {
	case 0:
		return "", &StructuralError{Reason: "no " + distInfoSuffix + " directory found in the wheel"}
	case 1:
		return filepath.Join(e.treeDir, found[0]), nil
	default:
		return "", &StructuralError{Reason: fmt.Sprintf("multiple %s directories found in the wheel: %s", distInfoSuffix, strings.Join(found, ", "))}
	}
}

// Metadata returns the textual contents of the METADATA file, or "" if the
// file is missing. Unpacks lazily.
func (e *Editor) Metadata() (string, error) {
	di, err := e.DistInfoDir()
	if err != nil {
		return "", err
	}

	data, err := e.fs.ReadFile(filepath.Join(di, metadata.FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// RenamePackage renames the package to newName: the dist-info directory is
// renamed preserving its version suffix, the METADATA Name field is rewritten
// with the original casing, the WHEEL file has the old identity token
// substituted, and RECORD path entries under the old directory are rewritten.
// The name is validated before any filesystem mutation; there is no rollback
// if a later step fails.
func (e *Editor) RenamePackage(newName string) (string, error) {
	if !ValidateName(newName) {
		return "", &InvalidNameError{Name: newName}
	}

	oldDistInfo, err := e.DistInfoDir()
	if err != nil {
		return "", err
	}

	oldDirName := filepath.Base(oldDistInfo)
	stem := strings.TrimSuffix(oldDirName, distInfoSuffix)

	// Everything after the last hyphen is the version suffix; keep it intact.
	version := ""
	oldToken := stem
	if i := strings.LastIndex(stem, "-"); i != -1 {
		version = stem[i:]
		oldToken = stem[:i]
	}

	// Hyphens normalize to underscores in the directory name; the metadata
	// Name field keeps the name exactly as given.
	newToken := strings.ReplaceAll(newName, "-", "_")
	newDirName := newToken + version + distInfoSuffix
	newDistInfo := filepath.Join(filepath.Dir(oldDistInfo), newDirName)

	if err := e.fs.Rename(oldDistInfo, newDistInfo); err != nil {
		return "", fmt.Errorf("renaming %s: %w", oldDirName, err)
	}

	metadataPath := filepath.Join(newDistInfo, metadata.FileName)
	if data, err := e.fs.ReadFile(metadataPath); err == nil {
		updated := metadata.SetName(string(data), newName)
		if err := e.fs.WriteFile(metadataPath, []byte(updated), 0o644); err != nil {
			return "", fmt.Errorf("updating %s: %w", metadata.FileName, err)
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	wheelPath := filepath.Join(newDistInfo, "WHEEL")
	if data, err := e.fs.ReadFile(wheelPath); err == nil {
		updated := strings.ReplaceAll(string(data), oldToken, newToken)
		if updated != string(data) {
			if err := e.fs.WriteFile(wheelPath, []byte(updated), 0o644); err != nil {
				return "", fmt.Errorf("updating WHEEL: %w", err)
			}
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	recordPath := filepath.Join(newDistInfo, record.FileName)
	if data, err := e.fs.ReadFile(recordPath); err == nil {
		entries := record.Parse(string(data))
		for i := range entries {
			if strings.HasPrefix(entries[i].Path, oldDirName+"/") {
				entries[i].Path = newDirName + strings.TrimPrefix(entries[i].Path, oldDirName)
			}
		}
		if err := e.fs.WriteFile(recordPath, []byte(record.Format(entries)), 0o644); err != nil {
			return "", fmt.Errorf("updating %s: %w", record.FileName, err)
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return newName, nil
}

// ReplaceFile copies source over target inside the extraction tree, creating
// missing parent directories and preserving the source's timestamps. An
// absolute target is accepted only when it resolves inside the tree.
func (e *Editor) ReplaceFile(target, source string) (string, error) {
	if err := e.ensureUnpacked(); err != nil {
		return "", err
	}

	srcInfo, err := e.fs.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Path: source}
		}
		return "", err
	}

	fullTarget, err := e.resolveTarget(target)
	if err != nil {
		return "", err
	}

	if err := e.fs.MkdirAll(filepath.Dir(fullTarget), 0o755); err != nil {
		return "", fmt.Errorf("creating parent directories: %w", err)
	}
	if err := e.fs.CopyFile(source, fullTarget); err != nil {
		return "", err
	}
	// Preserve timestamps where the platform allows it.
	_ = e.fs.Chtimes(fullTarget, srcInfo.ModTime(), srcInfo.ModTime())

	return fullTarget, nil
}

// resolveTarget maps a target path onto the extraction tree and rejects any
// path that lands outside it.
func (e *Editor) resolveTarget(target string) (string, error) {
	absTree, err := filepath.Abs(e.treeDir)
	if err != nil {
		return "", err
	}
	absTree = filepath.Clean(absTree)

	var full string
	if filepath.IsAbs(target) {
		full = filepath.Clean(target)
	} else {
		full = filepath.Join(absTree, filepath.FromSlash(target))
	}

	if !strings.HasPrefix(full, absTree+string(filepath.Separator)) {
		return "", &PathEscapeError{Target: target}
	}
	return full, nil
}

// ReplaceMetadata copies source over the METADATA file inside the freshly
// re-derived dist-info directory.
func (e *Editor) ReplaceMetadata(source string) (string, error) {
	if _, err := e.fs.Stat(source); err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Path: source}
		}
		return "", err
	}

	di, err := e.DistInfoDir()
	if err != nil {
		return "", err
	}
	return e.ReplaceFile(filepath.Join(di, metadata.FileName), source)
}

// UpdateMetadata applies field-value pairs to the METADATA header block,
// replacing existing fields and appending missing ones.
func (e *Editor) UpdateMetadata(fields map[string]string) error {
	di, err := e.DistInfoDir()
	if err != nil {
		return err
	}

	metadataPath := filepath.Join(di, metadata.FileName)
	data, err := e.fs.ReadFile(metadataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Path: metadataPath}
		}
		return err
	}

	updated := metadata.Apply(string(data), fields)
	return e.fs.WriteFile(metadataPath, []byte(updated), 0o644)
}

// RenameFiles renames every file whose tree-relative path matches pattern.
// In literal mode the pattern is a substring and the replacement straight;
// in regex mode captured groups are substitutable into replacement as $1, $2,
// and so on. All matches are computed before any move, and duplicate
// destinations fail the whole operation without renaming anything.
// Returns the ordered (old, new) pairs actually renamed.
func (e *Editor) RenameFiles(pattern, replacement string, useRegex bool) ([]RenamePair, error) {
	if err := e.ensureUnpacked(); err != nil {
		return nil, err
	}

	var re *regexp.Regexp
	if useRegex {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
	}

	var pairs []RenamePair
	walkErr := e.fs.Walk(e.treeDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(e.treeDir, path)
		if err != nil {
			return err
		}
		relSlash := filepath.ToSlash(rel)

		var newRel string
		if useRegex {
			if !re.MatchString(relSlash) {
				return nil
			}
			newRel = re.ReplaceAllString(relSlash, replacement)
		} else {
			if !strings.Contains(relSlash, pattern) {
				return nil
			}
			newRel = strings.ReplaceAll(relSlash, pattern, replacement)
		}

		pairs = append(pairs, RenamePair{Old: relSlash, New: newRel})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	// Fail fast on destination collisions instead of losing files.
	seen := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if prev, ok := seen[p.New]; ok {
			return nil, fmt.Errorf("rename collision: %s and %s both map to %s", prev, p.Old, p.New)
		}
		seen[p.New] = p.Old
	}

	for _, p := range pairs {
		oldAbs := filepath.Join(e.treeDir, filepath.FromSlash(p.Old))
		newAbs := filepath.Join(e.treeDir, filepath.FromSlash(p.New))
		if err := e.fs.MkdirAll(filepath.Dir(newAbs), 0o755); err != nil {
			return nil, fmt.Errorf("creating parent directories for %s: %w", p.New, err)
		}
		if err := e.fs.Rename(oldAbs, newAbs); err != nil {
			return nil, fmt.Errorf("renaming %s: %w", p.Old, err)
		}
	}

	return pairs, nil
}

// List returns every file (not directory) under dir within the extraction
// tree, as slash-separated paths relative to the tree root.
func (e *Editor) List(dir string) ([]string, error) {
	if err := e.ensureUnpacked(); err != nil {
		return nil, err
	}

	target := filepath.Join(e.treeDir, filepath.FromSlash(dir))
	if _, err := e.fs.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: dir}
		}
		return nil, err
	}

	var files []string
	err := e.fs.Walk(target, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(e.treeDir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Repackage regenerates RECORD and packs the tree into a new wheel at
// outputPath (the original wheel path when empty). The extraction directory
// is released whether or not packing succeeds.
func (e *Editor) Repackage(outputPath string) (string, error) {
	if e.treeDir == "" {
		return "", ErrNotUnpacked
	}
	defer func() { _ = e.Cleanup() }()

	if outputPath == "" {
		outputPath = e.wheelPath
	}

	di, err := e.DistInfoDir()
	if err != nil {
		return "", err
	}
	if err := record.Update(e.fs, filepath.Join(di, record.FileName), e.treeDir); err != nil {
		return "", fmt.Errorf("updating %s: %w", record.FileName, err)
	}

	packed, err := e.codec.Pack(e.treeDir, filepath.Dir(outputPath))
	if err != nil {
		return "", fmt.Errorf("packing wheel: %w", err)
	}

	if packed != outputPath {
		if err := e.fs.Rename(packed, outputPath); err != nil {
			return "", fmt.Errorf("moving wheel to %s: %w", outputPath, err)
		}
	}
	return outputPath, nil
}

// Cleanup releases the extraction directory and resets the session to its
// pre-unpack state. Safe to call repeatedly and before Unpack.
func (e *Editor) Cleanup() error {
	if e.tempRoot == "" {
		return nil
	}
	if err := e.fs.RemoveAll(e.tempRoot); err != nil {
		return err
	}
	e.tempRoot = ""
	e.treeDir = ""
	return nil
}
