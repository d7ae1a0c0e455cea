package builder

// PlatformFlags selects the packager targets. They are passed through to
// electron-builder unchanged.
type PlatformFlags struct {
	Mac   bool
	Linux bool
	Win   bool

	X64       bool
	IA32      bool
	ARMv7l    bool
	ARM64     bool
	Universal bool

	// Config is an electron-builder config file.
	Config string
	// Publish is the electron-builder publish policy ("onTag", "always", ...).
	Publish string
}

// Args returns the electron-builder arguments for f.
func (f PlatformFlags) Args() []string {
	var args []string
	if f.Config != "" {
		args = append(args, "--config", f.Config)
	}
	if f.Publish != "" {
		args = append(args, "--publish", f.Publish)
	}

	for _, flag := range []struct {
		set  bool
		name string
	}{
		{f.Mac, "--mac"},
		{f.Linux, "--linux"},
		{f.Win, "--win"},
		{f.X64, "--x64"},
		{f.IA32, "--ia32"},
		{f.ARMv7l, "--armv7l"},
		{f.ARM64, "--arm64"},
		{f.Universal, "--universal"},
	} {
		if flag.set {
			args = append(args, flag.name)
		}
	}
	return args
}
