package mocks

import "github.com/mcdonaldj/gunzip/internal/ports"

// MockNotifier implements ports.Notifier for testing.
type MockNotifier struct {
	SuccessCalls []SuccessCall
	ErrorCalls   []ErrorCall
}

// SuccessCall records parameters of a Success call.
type SuccessCall struct {
	Title     string
	Message   string
	FinalPath string
}

// ErrorCall records parameters of an Error call.
type ErrorCall struct {
	Title   string
	Message string
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Success records a success notification.
func (m *MockNotifier) Success(title, message, finalPath string) {
	m.SuccessCalls = append(m.SuccessCalls, SuccessCall{Title: title, Message: message, FinalPath: finalPath})
}

// Error records an error notification.
func (m *MockNotifier) Error(title, message string) {
	m.ErrorCalls = append(m.ErrorCalls, ErrorCall{Title: title, Message: message})
}

// MockTrash implements ports.Trash for testing.
type MockTrash struct {
	// Moved records paths passed to MoveToTrash
	Moved []string
	// Err is returned by MoveToTrash when set
	Err error
}

// NewMockTrash creates a new mock trash.
func NewMockTrash() *MockTrash {
	return &MockTrash{}
}

// MoveToTrash records path and returns Err.
func (m *MockTrash) MoveToTrash(path string) error {
	m.Moved = append(m.Moved, path)
	return m.Err
}

// Compile-time checks.
var (
	_ ports.Notifier = (*MockNotifier)(nil)
	_ ports.Trash    = (*MockTrash)(nil)
)
