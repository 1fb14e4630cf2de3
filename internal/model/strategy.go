package model

// Strategy is the destination layout chosen for one extraction.
type Strategy int

const (
	// MultipleFilesToFolder extracts into a new folder named after the archive.
	MultipleFilesToFolder Strategy = iota
	// SingleFileToDirectory extracts the archive's only file next to the archive.
	SingleFileToDirectory
	// SingleFolderToDirectory extracts the archive's only folder next to the archive.
	SingleFolderToDirectory
)

func (s Strategy) String() string {
	switch s {
	case SingleFileToDirectory:
		return "single-file"
	case SingleFolderToDirectory:
		return "single-folder"
	case MultipleFilesToFolder:
		return "new-folder"
	default:
		return "unknown"
	}
}

// DetermineStrategy picks the layout from the archive's depth-0 entries.
// It returns the sole top-level entry for the single-item strategies.
func DetermineStrategy(c *ArchiveContents) (Strategy, ArchiveEntry) {
	top := c.TopLevelEntries()
	switch {
	case len(top) != 1:
		return MultipleFilesToFolder, ArchiveEntry{}
	case top[0].IsDir:
		return SingleFolderToDirectory, top[0]
	default:
		return SingleFileToDirectory, top[0]
	}
}
