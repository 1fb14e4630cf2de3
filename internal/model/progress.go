package model

// Stage is a step of the extraction state machine.
type Stage int

const (
	StageStarting Stage = iota
	StageAnalyzing
	StageExtracting
	StageFinalizing
	StageCompleted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageStarting:
		return "starting"
	case StageAnalyzing:
		return "analyzing"
	case StageExtracting:
		return "extracting"
	case StageFinalizing:
		return "finalizing"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further stage can follow s.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Progress is a snapshot of one extraction run.
type Progress struct {
	ArchivePath    string
	CurrentFile    string
	FilesProcessed int
	TotalFiles     int
	BytesProcessed int64
	TotalBytes     int64
	Stage          Stage
}

// Percentage returns completion in [0, 100]. Bytes are preferred over file
// counts when the total size is known.
func (p Progress) Percentage() float64 {
	var pct float64
	switch {
	case p.TotalBytes > 0:
		pct = float64(p.BytesProcessed) / float64(p.TotalBytes) * 100
	case p.TotalFiles > 0:
		pct = float64(p.FilesProcessed) / float64(p.TotalFiles) * 100
	default:
		return 0
	}
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
