package editor

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/mcdonaldj/wheeledit/internal/adapters/wheelcodec"
	"github.com/mcdonaldj/wheeledit/internal/mocks"
)

// writeTestWheel builds a small but well-formed wheel in dir and returns its path.
func writeTestWheel(t *testing.T, dir string) string {
	t.Helper()

	members := []struct {
		name    string
		content string
	}{
		{"demo/__init__.py", "__version__ = '1.0.0'\n"},
		{"demo/core.py", "def run():\n    return 42\n"},
		{"demo-1.0.0.dist-info/METADATA", "Metadata-Version: 2.1\nName: demo\nVersion: 1.0.0\nSummary: Demo package\n\nA demo package.\n"},
		{"demo-1.0.0.dist-info/WHEEL", "Wheel-Version: 1.0\nGenerator: test 0.1\nRoot-Is-Purelib: true\nTag: py3-none-any\n"},
	}

	var record strings.Builder
	for _, m := range members {
		sum := sha256.Sum256([]byte(m.content))
		fmt.Fprintf(&record, "%s,sha256=%s,%d\n", m.name, hex.EncodeToString(sum[:]), len(m.content))
	}
	record.WriteString("demo-1.0.0.dist-info/RECORD,,\n")

	wheelPath := filepath.Join(dir, "demo-1.0.0-py3-none-any.whl")
	f, err := os.Create(wheelPath)
	if err != nil {
		t.Fatalf("creating wheel: %v", err)
	}
	w := zip.NewWriter(f)
	for _, m := range members {
		fw, err := w.Create(m.name)
		if err != nil {
			t.Fatalf("adding member %s: %v", m.name, err)
		}
		if _, err := fw.Write([]byte(m.content)); err != nil {
			t.Fatalf("writing member %s: %v", m.name, err)
		}
	}
	fw, err := w.Create("demo-1.0.0.dist-info/RECORD")
	if err != nil {
		t.Fatalf("adding RECORD: %v", err)
	}
	if _, err := fw.Write([]byte(record.String())); err != nil {
		t.Fatalf("writing RECORD: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing zip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing wheel: %v", err)
	}
	return wheelPath
}

func TestUnpackSilencesCodecOutput(t *testing.T) {
	fs := mocks.NewMockFileSystem()
	fs.Dirs["/tmp/wheeledit-mock"] = []os.DirEntry{
		&mocks.MockDirEntry{EntryName: "demo-1.0.0", Dir: true},
	}
	fs.Dirs["/tmp/wheeledit-mock/demo-1.0.0"] = []os.DirEntry{
		&mocks.MockDirEntry{EntryName: "demo-1.0.0.dist-info", Dir: true},
	}

	codec := mocks.NewMockArchiver()
	var status strings.Builder
	codec.SetOutput(&status)

	ed := NewWithDeps("demo.whl", fs, codec)
	tree, err := ed.Unpack()
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if tree != "/tmp/wheeledit-mock/demo-1.0.0" {
		t.Errorf("tree = %q", tree)
	}

	if len(codec.UnpackCalls) != 1 {
		t.Fatalf("Unpack called %d times", len(codec.UnpackCalls))
	}
	// The codec is silenced for the duration of the call only.
	if codec.UnpackCalls[0].Out != io.Discard {
		t.Error("codec output not suppressed during unpack")
	}
	if codec.Out != &status {
		t.Error("codec output not restored after unpack")
	}

	if err := ed.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if len(fs.RemovedPaths) != 1 || fs.RemovedPaths[0] != "/tmp/wheeledit-mock" {
		t.Errorf("RemovedPaths = %v", fs.RemovedPaths)
	}
}

func TestUnpackNoSubdirectory(t *testing.T) {
	fs := mocks.NewMockFileSystem()
	fs.Dirs["/tmp/wheeledit-mock"] = []os.DirEntry{}

	ed := NewWithDeps("demo.whl", fs, mocks.NewMockArchiver())
	_, err := ed.Unpack()
	var structural *StructuralError
	if !errors.As(err, &structural) {
		t.Fatalf("error = %v, expected StructuralError", err)
	}
}

func TestDistInfoDirAmbiguous(t *testing.T) {
	fs := mocks.NewMockFileSystem()
	fs.Dirs["/tmp/wheeledit-mock"] = []os.DirEntry{
		&mocks.MockDirEntry{EntryName: "demo-1.0.0", Dir: true},
	}
	fs.Dirs["/tmp/wheeledit-mock/demo-1.0.0"] = []os.DirEntry{
		&mocks.MockDirEntry{EntryName: "demo-1.0.0.dist-info", Dir: true},
		&mocks.MockDirEntry{EntryName: "other-2.0.dist-info", Dir: true},
	}

	ed := NewWithDeps("demo.whl", fs, mocks.NewMockArchiver())
	_, err := ed.Unpack()
	var structural *StructuralError
	if !errors.As(err, &structural) {
		t.Fatalf("error = %v, expected StructuralError", err)
	}
	if !strings.Contains(structural.Reason, "multiple") {
		t.Errorf("reason = %q", structural.Reason)
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"demo", "demo2", "my-package", "my_package", "my.package", "a", "A1", "pkg-1.0"}
	for _, name := range valid {
		if !ValidateName(name) {
			t.Errorf("ValidateName(%q) = false, expected true", name)
		}
	}

	invalid := []string{"", "-demo", "demo-", "_demo", "demo_", ".demo", "demo.", "my package", "pkg/nested", "naïve", "demo!"}
	for _, name := range invalid {
		if ValidateName(name) {
			t.Errorf("ValidateName(%q) = true, expected false", name)
		}
	}
}

func TestUnpackIdempotent(t *testing.T) {
	wheel := writeTestWheel(t, t.TempDir())
	ed := New(wheel)
	defer ed.Cleanup()

	first, err := ed.Unpack()
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	second, err := ed.Unpack()
	if err != nil {
		t.Fatalf("second Unpack failed: %v", err)
	}
	if first != second {
		t.Errorf("Unpack not idempotent: %q then %q", first, second)
	}
	if filepath.Base(first) != "demo-1.0.0" {
		t.Errorf("tree root = %q, expected demo-1.0.0", filepath.Base(first))
	}
}

func TestMetadata(t *testing.T) {
	wheel := writeTestWheel(t, t.TempDir())
	ed := New(wheel)
	defer ed.Cleanup()

	md, err := ed.Metadata()
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if !strings.Contains(md, "Name: demo\n") {
		t.Errorf("metadata missing Name field:\n%s", md)
	}
}

func TestRenamePackage(t *testing.T) {
	wheel := writeTestWheel(t, t.TempDir())
	ed := New(wheel)
	defer ed.Cleanup()

	got, err := ed.RenamePackage("demo2")
	if err != nil {
		t.Fatalf("RenamePackage failed: %v", err)
	}
	if got != "demo2" {
		t.Errorf("RenamePackage returned %q, expected demo2", got)
	}

	di, err := ed.DistInfoDir()
	if err != nil {
		t.Fatalf("DistInfoDir failed: %v", err)
	}
	if filepath.Base(di) != "demo2-1.0.0.dist-info" {
		t.Errorf("dist-info dir = %q, expected demo2-1.0.0.dist-info (version suffix preserved)", filepath.Base(di))
	}

	md, err := ed.Metadata()
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if !strings.Contains(md, "Name: demo2\n") {
		t.Errorf("metadata not rewritten:\n%s", md)
	}

	// RECORD entries under the old directory name point at the new one.
	recordData, err := os.ReadFile(filepath.Join(di, "RECORD"))
	if err != nil {
		t.Fatalf("reading RECORD: %v", err)
	}
	if strings.Contains(string(recordData), "demo-1.0.0.dist-info/") {
		t.Errorf("RECORD still references old dist-info dir:\n%s", recordData)
	}
	if !strings.Contains(string(recordData), "demo2-1.0.0.dist-info/METADATA") {
		t.Errorf("RECORD missing renamed METADATA entry:\n%s", recordData)
	}
}

func TestRenamePackageKeepsNameCasing(t *testing.T) {
	wheel := writeTestWheel(t, t.TempDir())
	ed := New(wheel)
	defer ed.Cleanup()

	if _, err := ed.RenamePackage("My-Package"); err != nil {
		t.Fatalf("RenamePackage failed: %v", err)
	}

	// Hyphens normalize to underscores in the directory, not in metadata.
	di, err := ed.DistInfoDir()
	if err != nil {
		t.Fatalf("DistInfoDir failed: %v", err)
	}
	if filepath.Base(di) != "My_Package-1.0.0.dist-info" {
		t.Errorf("dist-info dir = %q, expected My_Package-1.0.0.dist-info", filepath.Base(di))
	}

	md, err := ed.Metadata()
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if !strings.Contains(md, "Name: My-Package\n") {
		t.Errorf("metadata Name should keep the original form:\n%s", md)
	}
}

func TestRenamePackageInvalidName(t *testing.T) {
	wheel := writeTestWheel(t, t.TempDir())

	for _, name := range []string{"", "-demo", "demo-", "my package", "naïve"} {
		ed := New(wheel)
		_, err := ed.RenamePackage(name)
		var invalidErr *InvalidNameError
		if !errors.As(err, &invalidErr) {
			t.Errorf("RenamePackage(%q) error = %v, expected InvalidNameError", name, err)
			_ = ed.Cleanup()
			continue
		}
		if invalidErr.Name != name {
			t.Errorf("InvalidNameError.Name = %q, expected %q", invalidErr.Name, name)
		}
		// Validation happens before any mutation: nothing was unpacked.
		if ed.TreeDir() != "" {
			t.Errorf("RenamePackage(%q) touched the filesystem before validation", name)
		}
		_ = ed.Cleanup()
	}
}

func TestReplaceFile(t *testing.T) {
	tempDir := t.TempDir()
	wheel := writeTestWheel(t, tempDir)

	source := filepath.Join(tempDir, "replacement.py")
	if err := os.WriteFile(source, []byte("def run():\n    return 7\n"), 0o644); err != nil {
		t.Fatalf("writing source: %v", err)
	}

	ed := New(wheel)
	defer ed.Cleanup()

	target, err := ed.ReplaceFile("demo/core.py", source)
	if err != nil {
		t.Fatalf("ReplaceFile failed: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("reading target: %v", err)
	}
	if string(data) != "def run():\n    return 7\n" {
		t.Errorf("target content = %q", data)
	}

	// Missing parents are created.
	if _, err := ed.ReplaceFile("demo/sub/deeper/new.py", source); err != nil {
		t.Fatalf("ReplaceFile with new parents failed: %v", err)
	}
}

func TestReplaceFilePathEscape(t *testing.T) {
	tempDir := t.TempDir()
	wheel := writeTestWheel(t, tempDir)

	source := filepath.Join(tempDir, "evil.txt")
	if err := os.WriteFile(source, []byte("evil"), 0o644); err != nil {
		t.Fatalf("writing source: %v", err)
	}
	canary := filepath.Join(tempDir, "canary.txt")

	ed := New(wheel)
	defer ed.Cleanup()

	for _, target := range []string{"../../etc/passwd", "../outside.txt", "/etc/passwd", canary} {
		_, err := ed.ReplaceFile(target, source)
		var escapeErr *PathEscapeError
		if !errors.As(err, &escapeErr) {
			t.Errorf("ReplaceFile(%q) error = %v, expected PathEscapeError", target, err)
		}
	}
	if _, err := os.Stat(canary); !os.IsNotExist(err) {
		t.Error("escape target was written")
	}
}

func TestReplaceFileAbsoluteInsideTree(t *testing.T) {
	tempDir := t.TempDir()
	wheel := writeTestWheel(t, tempDir)

	source := filepath.Join(tempDir, "new.py")
	if err := os.WriteFile(source, []byte("ok\n"), 0o644); err != nil {
		t.Fatalf("writing source: %v", err)
	}

	ed := New(wheel)
	defer ed.Cleanup()

	tree, err := ed.Unpack()
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	abs := filepath.Join(tree, "demo", "core.py")
	if _, err := ed.ReplaceFile(abs, source); err != nil {
		t.Fatalf("ReplaceFile with absolute in-tree target failed: %v", err)
	}
}

func TestReplaceFileMissingSource(t *testing.T) {
	wheel := writeTestWheel(t, t.TempDir())
	ed := New(wheel)
	defer ed.Cleanup()

	_, err := ed.ReplaceFile("demo/core.py", "/nonexistent/source.py")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, expected NotFoundError", err)
	}
}

func TestReplaceMetadata(t *testing.T) {
	tempDir := t.TempDir()
	wheel := writeTestWheel(t, tempDir)

	source := filepath.Join(tempDir, "METADATA.new")
	newMeta := "Metadata-Version: 2.1\nName: demo\nVersion: 2.0.0\n"
	if err := os.WriteFile(source, []byte(newMeta), 0o644); err != nil {
		t.Fatalf("writing source: %v", err)
	}

	ed := New(wheel)
	defer ed.Cleanup()

	if _, err := ed.ReplaceMetadata(source); err != nil {
		t.Fatalf("ReplaceMetadata failed: %v", err)
	}
	md, err := ed.Metadata()
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if md != newMeta {
		t.Errorf("metadata = %q, expected %q", md, newMeta)
	}

	_, err = ed.ReplaceMetadata(filepath.Join(tempDir, "missing"))
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("error = %v, expected NotFoundError", err)
	}
}

func TestUpdateMetadata(t *testing.T) {
	wheel := writeTestWheel(t, t.TempDir())
	ed := New(wheel)
	defer ed.Cleanup()

	err := ed.UpdateMetadata(map[string]string{
		"Summary": "Updated summary",
		"Author":  "Someone",
	})
	if err != nil {
		t.Fatalf("UpdateMetadata failed: %v", err)
	}

	md, err := ed.Metadata()
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if !strings.Contains(md, "Summary: Updated summary\n") {
		t.Errorf("existing field not replaced:\n%s", md)
	}
	if !strings.Contains(md, "Author: Someone\n") {
		t.Errorf("new field not appended:\n%s", md)
	}
	if strings.Count(md, "Summary:") != 1 {
		t.Errorf("Summary duplicated:\n%s", md)
	}
}

func TestRenameFilesLiteral(t *testing.T) {
	tempDir := t.TempDir()
	wheel := writeTestWheel(t, tempDir)

	ed := New(wheel)
	defer ed.Cleanup()

	tree, err := ed.Unpack()
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	// Lay down pkg/old_module/__init__.py inside the tree.
	oldDir := filepath.Join(tree, "pkg", "old_module")
	if err := os.MkdirAll(oldDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(oldDir, "__init__.py"), []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	pairs, err := ed.RenameFiles("old_module", "new_module", false)
	if err != nil {
		t.Fatalf("RenameFiles failed: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("renamed %d files, expected 1: %v", len(pairs), pairs)
	}
	if pairs[0].Old != "pkg/old_module/__init__.py" || pairs[0].New != "pkg/new_module/__init__.py" {
		t.Errorf("pair = %+v", pairs[0])
	}

	if _, err := os.Stat(filepath.Join(tree, "pkg", "new_module", "__init__.py")); err != nil {
		t.Errorf("file missing at new path: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tree, "pkg", "old_module", "__init__.py")); !os.IsNotExist(err) {
		t.Error("file still present at old path")
	}
}

func TestRenameFilesRegex(t *testing.T) {
	wheel := writeTestWheel(t, t.TempDir())
	ed := New(wheel)
	defer ed.Cleanup()

	pairs, err := ed.RenameFiles(`demo/(\w+)\.py`, "demo2/$1.py", true)
	if err != nil {
		t.Fatalf("RenameFiles failed: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("renamed %d files, expected 2: %v", len(pairs), pairs)
	}
	got := make(map[string]string)
	for _, p := range pairs {
		got[p.Old] = p.New
	}
	if got["demo/__init__.py"] != "demo2/__init__.py" || got["demo/core.py"] != "demo2/core.py" {
		t.Errorf("pairs = %v", pairs)
	}
}

func TestRenameFilesCollision(t *testing.T) {
	wheel := writeTestWheel(t, t.TempDir())
	ed := New(wheel)
	defer ed.Cleanup()

	tree, err := ed.Unpack()
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	// Both demo/__init__.py and demo/core.py would map to demo/all.py.
	_, err = ed.RenameFiles(`demo/\w+\.py`, "demo/all.py", true)
	if err == nil {
		t.Fatal("expected collision error")
	}
	if !strings.Contains(err.Error(), "collision") {
		t.Errorf("error = %v, expected a collision report", err)
	}
	// Nothing moved.
	if _, statErr := os.Stat(filepath.Join(tree, "demo", "core.py")); statErr != nil {
		t.Errorf("collision should not move any file: %v", statErr)
	}
}

func TestRenameFilesNoMatch(t *testing.T) {
	wheel := writeTestWheel(t, t.TempDir())
	ed := New(wheel)
	defer ed.Cleanup()

	pairs, err := ed.RenameFiles("no_such_file", "whatever", false)
	if err != nil {
		t.Fatalf("RenameFiles failed: %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("renamed %d files, expected 0", len(pairs))
	}
}

func TestList(t *testing.T) {
	wheel := writeTestWheel(t, t.TempDir())
	ed := New(wheel)
	defer ed.Cleanup()

	files, err := ed.List("")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	sort.Strings(files)
	want := []string{
		"demo-1.0.0.dist-info/METADATA",
		"demo-1.0.0.dist-info/RECORD",
		"demo-1.0.0.dist-info/WHEEL",
		"demo/__init__.py",
		"demo/core.py",
	}
	if len(files) != len(want) {
		t.Fatalf("List returned %v, expected %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("List[%d] = %q, expected %q", i, files[i], want[i])
		}
	}

	sub, err := ed.List("demo")
	if err != nil {
		t.Fatalf("List(demo) failed: %v", err)
	}
	if len(sub) != 2 {
		t.Errorf("List(demo) = %v, expected 2 files", sub)
	}

	_, err = ed.List("nonexistent")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("List(nonexistent) error = %v, expected NotFoundError", err)
	}
}

func TestRepackageRequiresUnpack(t *testing.T) {
	wheel := writeTestWheel(t, t.TempDir())
	ed := New(wheel)

	_, err := ed.Repackage("")
	if !errors.Is(err, ErrNotUnpacked) {
		t.Fatalf("error = %v, expected ErrNotUnpacked", err)
	}
}

func TestRepackageRoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	wheel := writeTestWheel(t, tempDir)
	codec := wheelcodec.New()
	codec.SetOutput(new(strings.Builder))

	before, err := codec.List(wheel)
	if err != nil {
		t.Fatalf("listing original: %v", err)
	}

	ed := New(wheel)
	if _, err := ed.Unpack(); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	outPath := filepath.Join(t.TempDir(), "out.whl")
	got, err := ed.Repackage(outPath)
	if err != nil {
		t.Fatalf("Repackage failed: %v", err)
	}
	if got != outPath {
		t.Errorf("Repackage returned %q, expected %q", got, outPath)
	}
	// Repackage cleans up the session.
	if ed.TreeDir() != "" {
		t.Error("extraction dir not released after Repackage")
	}

	after, err := codec.List(outPath)
	if err != nil {
		t.Fatalf("listing repackaged wheel: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("member count changed: %d -> %d", len(before), len(after))
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			t.Errorf("member %s missing after round trip", name)
		}
		if strings.HasSuffix(name, "RECORD") {
			continue
		}
		a, err := codec.ReadFile(wheel, name)
		if err != nil {
			t.Fatalf("reading original %s: %v", name, err)
		}
		b, err := codec.ReadFile(outPath, name)
		if err != nil {
			t.Fatalf("reading repackaged %s: %v", name, err)
		}
		if a != b {
			t.Errorf("member %s content changed after round trip", name)
		}
	}
}

func TestRepackageManifestIdempotent(t *testing.T) {
	tempDir := t.TempDir()
	wheel := writeTestWheel(t, tempDir)
	codec := wheelcodec.New()
	codec.SetOutput(new(strings.Builder))

	out1 := filepath.Join(tempDir, "out1.whl")
	ed1 := New(wheel)
	if _, err := ed1.Unpack(); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if _, err := ed1.Repackage(out1); err != nil {
		t.Fatalf("first Repackage failed: %v", err)
	}

	out2 := filepath.Join(tempDir, "out2.whl")
	ed2 := New(out1)
	if _, err := ed2.Unpack(); err != nil {
		t.Fatalf("Unpack of repackaged wheel failed: %v", err)
	}
	if _, err := ed2.Repackage(out2); err != nil {
		t.Fatalf("second Repackage failed: %v", err)
	}

	rec1, err := codec.ReadFile(out1, "demo-1.0.0.dist-info/RECORD")
	if err != nil {
		t.Fatalf("reading first RECORD: %v", err)
	}
	rec2, err := codec.ReadFile(out2, "demo-1.0.0.dist-info/RECORD")
	if err != nil {
		t.Fatalf("reading second RECORD: %v", err)
	}
	if rec1 != rec2 {
		t.Errorf("RECORD not idempotent:\n--- first ---\n%s--- second ---\n%s", rec1, rec2)
	}
}

func TestRepackageOverwritesOriginal(t *testing.T) {
	tempDir := t.TempDir()
	wheel := writeTestWheel(t, tempDir)

	ed := New(wheel)
	if _, err := ed.Unpack(); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	got, err := ed.Repackage("")
	if err != nil {
		t.Fatalf("Repackage failed: %v", err)
	}
	if got != wheel {
		t.Errorf("Repackage returned %q, expected original path %q", got, wheel)
	}
	if _, err := os.Stat(wheel); err != nil {
		t.Errorf("original wheel path gone: %v", err)
	}
}

func TestCleanup(t *testing.T) {
	wheel := writeTestWheel(t, t.TempDir())
	ed := New(wheel)

	// Safe before unpack.
	if err := ed.Cleanup(); err != nil {
		t.Fatalf("Cleanup before unpack failed: %v", err)
	}

	tree, err := ed.Unpack()
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if err := ed.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if _, err := os.Stat(tree); !os.IsNotExist(err) {
		t.Error("extraction tree still exists after Cleanup")
	}
	if ed.TreeDir() != "" {
		t.Error("session state not reset after Cleanup")
	}

	// Safe to call repeatedly.
	if err := ed.Cleanup(); err != nil {
		t.Fatalf("second Cleanup failed: %v", err)
	}

	// A fresh Unpack works after Cleanup.
	if _, err := ed.Unpack(); err != nil {
		t.Fatalf("Unpack after Cleanup failed: %v", err)
	}
	_ = ed.Cleanup()
}
