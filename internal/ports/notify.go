package ports

// Notifier receives the user-facing outcome of an extraction.
type Notifier interface {
	// Success reports a completed extraction and where its output went.
	Success(title, message, finalPath string)

	// Error reports a failed extraction.
	Error(title, message string)
}

// Trash disposes of an archive after a successful extraction.
type Trash interface {
	// MoveToTrash moves path into the trash location.
	MoveToTrash(path string) error
}
