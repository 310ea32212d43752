// Package ports defines interfaces (contracts) for external dependencies.
// These enable dependency injection and testability via mock implementations.
package ports

import "io"

// Archiver abstracts the wheel archive codec.
// Production code uses the wheelcodec adapter; tests use MockArchiver.
type Archiver interface {
	// Unpack extracts a wheel into destDir. The codec populates destDir with
	// exactly one top-level subdirectory named <name>-<version> mirroring the
	// package layout.
	Unpack(wheelPath, destDir string) error

	// Pack builds a wheel from an unpacked tree and writes it into destDir.
	// The wheel filename is derived from the tree's dist-info directory and
	// WHEEL tags. Returns the path of the written wheel.
	Pack(treeDir, destDir string) (string, error)

	// List returns a map of member paths to their info from the archive.
	List(wheelPath string) (map[string]FileInfo, error)

	// ReadFile reads the contents of a single member from the archive.
	ReadFile(wheelPath, member string) (string, error)

	// SetOutput redirects the codec's status output. Returns the previous
	// writer so callers can restore it after a scoped suppression.
	SetOutput(w io.Writer) io.Writer
}

// FileInfo contains metadata about a member in an archive.
type FileInfo struct {
	Size  int64
	CRC32 uint32
}
