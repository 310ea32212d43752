package mocks

// MockEditorSession implements the CLI's EditorSession interface for testing.
type MockEditorSession struct {
	// WheelPath is the wheel this session was created for
	WheelPath string
	// MetadataText is returned by Metadata
	MetadataText string
	// Listing is returned by List
	Listing []string
	// Errors maps method names to errors
	Errors map[string]error

	// Call records
	UnpackCalls      int
	CleanupCalls     int
	RenameCalls      []string
	ReplaceMetaCalls []string
	UpdateMetaCalls  []map[string]string
	RepackageCalls   []string
}

// NewMockEditorSession creates a mock session for the given wheel.
func NewMockEditorSession(wheelPath string) *MockEditorSession {
	return &MockEditorSession{
		WheelPath: wheelPath,
		Errors:    make(map[string]error),
	}
}

func (m *MockEditorSession) Unpack() (string, error) {
	m.UnpackCalls++
	if err, ok := m.Errors["Unpack"]; ok {
		return "", err
	}
	return "/tmp/wheeledit-mock/tree", nil
}

func (m *MockEditorSession) Metadata() (string, error) {
	if err, ok := m.Errors["Metadata"]; ok {
		return "", err
	}
	return m.MetadataText, nil
}

func (m *MockEditorSession) RenamePackage(newName string) (string, error) {
	m.RenameCalls = append(m.RenameCalls, newName)
	if err, ok := m.Errors["RenamePackage"]; ok {
		return "", err
	}
	return newName, nil
}

func (m *MockEditorSession) ReplaceMetadata(source string) (string, error) {
	m.ReplaceMetaCalls = append(m.ReplaceMetaCalls, source)
	if err, ok := m.Errors["ReplaceMetadata"]; ok {
		return "", err
	}
	return "/tmp/wheeledit-mock/tree/METADATA", nil
}

func (m *MockEditorSession) UpdateMetadata(fields map[string]string) error {
	m.UpdateMetaCalls = append(m.UpdateMetaCalls, fields)
	return m.Errors["UpdateMetadata"]
}

func (m *MockEditorSession) List(dir string) ([]string, error) {
	if err, ok := m.Errors["List"]; ok {
		return nil, err
	}
	return m.Listing, nil
}

func (m *MockEditorSession) Repackage(outputPath string) (string, error) {
	m.RepackageCalls = append(m.RepackageCalls, outputPath)
	if err, ok := m.Errors["Repackage"]; ok {
		return "", err
	}
	if outputPath == "" {
		return m.WheelPath, nil
	}
	return outputPath, nil
}

func (m *MockEditorSession) Cleanup() error {
	m.CleanupCalls++
	return m.Errors["Cleanup"]
}
