package supervisor

// Phase is a stage of the dev session lifecycle.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseRendererStarting
	PhaseAwaitingFirstCompile
	PhaseSteady
	PhaseShuttingDown
	PhaseTerminated
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseRendererStarting:
		return "renderer-starting"
	case PhaseAwaitingFirstCompile:
		return "awaiting-first-compile"
	case PhaseSteady:
		return "steady"
	case PhaseShuttingDown:
		return "shutting-down"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// state is owned by the Run goroutine and guarded by Supervisor.mu.
type state struct {
	phase Phase

	renderer Process
	host     Process
	watcher  WatchHandle

	firstCompileDone bool
	shuttingDown     bool

	hostStarts     int
	compiles       int
	failedCompiles int
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	Phase            Phase
	RendererPid      int
	HostPid          int
	HostRunning      bool
	HostUnref        bool
	Watching         bool
	FirstCompileDone bool
	HostStarts       int
	Compiles         int
	FailedCompiles   int
}

func (s *state) snapshot() Snapshot {
	snap := Snapshot{
		Phase:            s.phase,
		Watching:         s.watcher != nil && !s.shuttingDown,
		FirstCompileDone: s.firstCompileDone,
		HostStarts:       s.hostStarts,
		Compiles:         s.compiles,
		FailedCompiles:   s.failedCompiles,
	}
	if s.renderer != nil {
		snap.RendererPid, _ = s.renderer.Pid()
	}
	if s.host != nil {
		snap.HostPid, _ = s.host.Pid()
		snap.HostRunning = running(s.host)
		snap.HostUnref = s.host.Unreffed()
	}
	return snap
}

// running reports whether p has not been reaped yet.
func running(p Process) bool {
	select {
	case <-p.Done():
		return false
	default:
		return true
	}
}
