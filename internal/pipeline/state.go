package pipeline

import "errors"

var (
	// ErrBusy rejects a new chain while another one is compiling or uploading.
	ErrBusy = errors.New("a build is already running")
	// ErrNoPort is returned when an upload or monitor needs a port and none is configured.
	ErrNoPort = errors.New("no port configured; run 'arduinoctl port' to pick one")
)

// Stage is one step of a chain.
type Stage int

const (
	StageNone Stage = iota
	StageCompile
	StageUpload
	StageMonitor
)

func (s Stage) String() string {
	switch s {
	case StageCompile:
		return "compile"
	case StageUpload:
		return "upload"
	case StageMonitor:
		return "monitor"
	default:
		return "none"
	}
}

// State is the orchestrator's position in the build state machine.
type State int

const (
	StateIdle State = iota
	StateCompiling
	StateUploading
	StateMonitoring
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCompiling:
		return "compiling"
	case StateUploading:
		return "uploading"
	case StateMonitoring:
		return "monitoring"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Running reports whether a chain is driving a subprocess.
func (s State) Running() bool {
	return s == StateCompiling || s == StateUploading
}

const (
	BannerCompileComplete  = "--- Compilation Complete ---"
	BannerCompileFailed    = "--- Compilation Failed ---"
	BannerCompileCancelled = "--- Compilation Cancelled ---"
	BannerUploadComplete   = "--- Upload Complete ---"
	BannerUploadFailed     = "--- Upload Failed ---"
	BannerUploadCancelled  = "--- Upload Cancelled ---"
	BannerMonitorClosed    = "--- Monitor Closed ---"
)

type stageResult int

const (
	resultOK stageResult = iota
	resultFailed
	resultCancelled
)

func banner(stage Stage, result stageResult) string {
	switch stage {
	case StageCompile:
		switch result {
		case resultOK:
			return BannerCompileComplete
		case resultCancelled:
			return BannerCompileCancelled
		default:
			return BannerCompileFailed
		}
	case StageUpload:
		switch result {
		case resultOK:
			return BannerUploadComplete
		case resultCancelled:
			return BannerUploadCancelled
		default:
			return BannerUploadFailed
		}
	}
	return ""
}
