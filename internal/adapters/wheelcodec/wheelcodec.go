// Package wheelcodec provides the wheel archive codec using the archive/zip package.
package wheelcodec

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mcdonaldj/wheeledit/internal/ports"
)

const distInfoSuffix = ".dist-info"

// MaxDecompressSize is the maximum allowed uncompressed member size (10GB).
// This prevents decompression bomb attacks.
const MaxDecompressSize = 10 * 1024 * 1024 * 1024

// Codec implements ports.Archiver for wheel files, which are plain zip
// archives with a conventional layout.
type Codec struct {
	out io.Writer
}

// New creates a new wheel codec writing status output to stdout.
func New() *Codec {
	return &Codec{out: os.Stdout}
}

// SetOutput redirects status output and returns the previous writer.
func (c *Codec) SetOutput(w io.Writer) io.Writer {
	prev := c.out
	c.out = w
	return prev
}

// Unpack extracts a wheel into destDir/<name>-<version>/, mirroring the
// archive layout. The root directory name is derived from the archive's
// dist-info member.
func (c *Codec) Unpack(wheelPath, destDir string) error {
	r, err := zip.OpenReader(wheelPath)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	root, err := rootNameFromMembers(r.File)
	if err != nil {
		return fmt.Errorf("%s: %w", wheelPath, err)
	}

	treeDir := filepath.Join(destDir, root)

	absTreeDir, err := filepath.Abs(treeDir)
	if err != nil {
		return fmt.Errorf("resolving destination path: %w", err)
	}
	absTreeDir = filepath.Clean(absTreeDir)

	fmt.Fprintf(c.out, "Unpacking to: %s...", treeDir)

	for _, f := range r.File {
		// Block symlinks to prevent symlink attacks.
		if f.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("symlinks not supported in wheels: %s", f.Name)
		}

		fpath := filepath.Join(treeDir, f.Name)

		// ZipSlip check.
		if !isWithinDir(absTreeDir, fpath) {
			return fmt.Errorf("invalid member path (path traversal detected): %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", fpath, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0o755); err != nil {
			return fmt.Errorf("creating parent directory for %s: %w", fpath, err)
		}

		if err := extractFile(f, fpath); err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}
	}

	fmt.Fprintln(c.out, "OK")
	return nil
}

// Pack builds a wheel from an unpacked tree. The filename is
// <name>-<version>-<tags>.whl, with name and version taken from the tree's
// dist-info directory and tags from the WHEEL file.
func (c *Codec) Pack(treeDir, destDir string) (string, error) {
	nameVer, err := distInfoName(treeDir)
	if err != nil {
		return "", err
	}
	nameVer = strings.TrimSuffix(nameVer, distInfoSuffix)

	tags, err := wheelTags(filepath.Join(treeDir, nameVer+distInfoSuffix, "WHEEL"))
	if err != nil {
		return "", err
	}

	wheelName := fmt.Sprintf("%s-%s.whl", nameVer, tags)
	wheelPath := filepath.Join(destDir, wheelName)

	// Deterministic member order.
	var files []string
	walkErr := filepath.Walk(treeDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return "", fmt.Errorf("walking %s: %w", treeDir, walkErr)
	}
	sort.Strings(files)

	zipFile, err := os.Create(wheelPath)
	if err != nil {
		return "", err
	}

	w := zip.NewWriter(zipFile)

	fmt.Fprintf(c.out, "Repacking wheel as %s...", wheelPath)

	for _, path := range files {
		if err := addMember(w, treeDir, path); err != nil {
			_ = w.Close()
			_ = zipFile.Close()
			return "", err
		}
	}

	if err := w.Close(); err != nil {
		_ = zipFile.Close()
		return "", fmt.Errorf("closing zip writer: %w", err)
	}
	if err := zipFile.Close(); err != nil {
		return "", fmt.Errorf("closing wheel file: %w", err)
	}

	fmt.Fprintln(c.out, "OK")
	return wheelPath, nil
}

// List returns a map of member paths to their info from the archive.
func (c *Codec) List(wheelPath string) (map[string]ports.FileInfo, error) {
	r, err := zip.OpenReader(wheelPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	files := make(map[string]ports.FileInfo)
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		size := int64(0)
		if f.UncompressedSize64 <= 1<<62 {
			size = int64(f.UncompressedSize64)
		}
		files[f.Name] = ports.FileInfo{
			Size:  size,
			CRC32: f.CRC32,
		}
	}

	return files, nil
}

// ReadFile reads the contents of a single member from the archive.
func (c *Codec) ReadFile(wheelPath, member string) (string, error) {
	r, err := zip.OpenReader(wheelPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		if f.Name == member {
			rc, err := f.Open()
			if err != nil {
				return "", err
			}
			defer func() { _ = rc.Close() }()

			content, err := io.ReadAll(io.LimitReader(rc, MaxDecompressSize))
			if err != nil {
				return "", err
			}
			return string(content), nil
		}
	}

	return "", fmt.Errorf("member not found in wheel: %s", member)
}

// rootNameFromMembers derives the <name>-<version> tree root from the
// archive's top-level dist-info member.
func rootNameFromMembers(members []*zip.File) (string, error) {
	for _, f := range members {
		first := f.Name
		if idx := strings.Index(first, "/"); idx != -1 {
			first = first[:idx]
		}
		if strings.HasSuffix(first, distInfoSuffix) {
			return strings.TrimSuffix(first, distInfoSuffix), nil
		}
	}
	return "", fmt.Errorf("no %s member found in archive", distInfoSuffix)
}

// distInfoName returns the dist-info directory name inside treeDir.
func distInfoName(treeDir string) (string, error) {
	entries, err := os.ReadDir(treeDir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() && strings.HasSuffix(e.Name(), distInfoSuffix) {
			return e.Name(), nil
		}
	}
	return "", fmt.Errorf("no %s directory found in %s", distInfoSuffix, treeDir)
}

// wheelTags derives the filename tag triple from the WHEEL file's Tag lines.
// Multiple tags compress into dotted sets per position, e.g.
// "py2-none-any" + "py3-none-any" -> "py2.py3-none-any".
func wheelTags(wheelFile string) (string, error) {
	data, err := os.ReadFile(wheelFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "py3-none-any", nil
		}
		return "", err
	}

	var impls, abis, plats []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Tag:") {
			continue
		}
		tag := strings.TrimSpace(strings.TrimPrefix(line, "Tag:"))
		parts := strings.SplitN(tag, "-", 3)
		if len(parts) != 3 {
			continue
		}
		impls = appendUnique(impls, parts[0])
		abis = appendUnique(abis, parts[1])
		plats = appendUnique(plats, parts[2])
	}

	if len(impls) == 0 {
		return "py3-none-any", nil
	}
	return strings.Join(impls, ".") + "-" + strings.Join(abis, ".") + "-" + strings.Join(plats, "."), nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// addMember writes one file into the zip with a slash-separated name
// relative to treeDir.
func addMember(w *zip.Writer, treeDir, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	relPath, err := filepath.Rel(treeDir, path)
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(relPath)
	header.Method = zip.Deflate

	writer, err := w.CreateHeader(header)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(writer, file)
	_ = file.Close()

	if copyErr != nil {
		return fmt.Errorf("adding %s: %w", relPath, copyErr)
	}
	return nil
}

// extractFile extracts a single member from the zip.
func extractFile(f *zip.File, destPath string) error {
	declaredSize := f.UncompressedSize64
	if declaredSize > MaxDecompressSize {
		return fmt.Errorf("member too large: %d bytes exceeds limit of %d bytes", declaredSize, MaxDecompressSize)
	}

	outFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer func() { _ = outFile.Close() }()

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	limitedReader := io.LimitReader(rc, int64(declaredSize)+1)
	written, err := io.Copy(outFile, limitedReader)
	if err != nil {
		return err
	}

	if written > int64(declaredSize) {
		return fmt.Errorf("decompressed size exceeds declared size")
	}

	return nil
}

// isWithinDir checks if the target path is within the base directory.
func isWithinDir(absBaseDir, targetPath string) bool {
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	absTarget = filepath.Clean(absTarget)

	return strings.HasPrefix(absTarget, absBaseDir+string(filepath.Separator)) ||
		absTarget == absBaseDir
}

// Compile-time check that Codec implements ports.Archiver.
var _ ports.Archiver = (*Codec)(nil)
