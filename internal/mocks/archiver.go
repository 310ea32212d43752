package mocks

import (
	"io"

	"github.com/mcdonaldj/wheeledit/internal/ports"
)

// MockArchiver implements ports.Archiver for testing.
type MockArchiver struct {
	// UnpackCalls records calls to Unpack
	UnpackCalls []UnpackCall
	// PackCalls records calls to Pack
	PackCalls []PackCall
	// PackResult is the wheel path Pack returns
	PackResult string
	// ListResults maps wheel paths to member listings
	ListResults map[string]map[string]ports.FileInfo
	// ReadResults maps "wheelPath:member" to content
	ReadResults map[string]string
	// Errors maps method names to errors
	Errors map[string]error
	// Out is the current status writer, tracked to observe SetOutput scoping
	Out io.Writer
}

// UnpackCall records parameters of an Unpack call.
type UnpackCall struct {
	WheelPath string
	DestDir   string
	// Out is the status writer active during the call
	Out io.Writer
}

// PackCall records parameters of a Pack call.
type PackCall struct {
	TreeDir string
	DestDir string
}

// NewMockArchiver creates a new mock archiver.
func NewMockArchiver() *MockArchiver {
	return &MockArchiver{
		ListResults: make(map[string]map[string]ports.FileInfo),
		ReadResults: make(map[string]string),
		Errors:      make(map[string]error),
	}
}

// Unpack extracts a wheel into destDir.
func (m *MockArchiver) Unpack(wheelPath, destDir string) error {
	m.UnpackCalls = append(m.UnpackCalls, UnpackCall{
		WheelPath: wheelPath,
		DestDir:   destDir,
		Out:       m.Out,
	})
	if err, ok := m.Errors["Unpack"]; ok {
		return err
	}
	return nil
}

// Pack builds a wheel from an unpacked tree.
func (m *MockArchiver) Pack(treeDir, destDir string) (string, error) {
	m.PackCalls = append(m.PackCalls, PackCall{
		TreeDir: treeDir,
		DestDir: destDir,
	})
	if err, ok := m.Errors["Pack"]; ok {
		return "", err
	}
	return m.PackResult, nil
}

// List returns a map of member paths to their info from the archive.
func (m *MockArchiver) List(wheelPath string) (map[string]ports.FileInfo, error) {
	if err, ok := m.Errors["List"]; ok {
		return nil, err
	}
	if result, ok := m.ListResults[wheelPath]; ok {
		return result, nil
	}
	return make(map[string]ports.FileInfo), nil
}

// ReadFile reads the contents of a member from the archive.
func (m *MockArchiver) ReadFile(wheelPath, member string) (string, error) {
	if err, ok := m.Errors["ReadFile"]; ok {
		return "", err
	}
	return m.ReadResults[wheelPath+":"+member], nil
}

// SetOutput redirects status output and returns the previous writer.
func (m *MockArchiver) SetOutput(w io.Writer) io.Writer {
	prev := m.Out
	m.Out = w
	return prev
}

// Compile-time check that MockArchiver implements ports.Archiver.
var _ ports.Archiver = (*MockArchiver)(nil)
