package option

// Names of options shared by every platform.
const (
	Platform          = "platform"
	Target            = "target"
	Arch              = "arch"
	Bits              = "bits"
	UseLTO            = "use_lto"
	Tools             = "tools"
	ModuleOpusEnabled = "module_opus_enabled"
)

// Build targets.
const (
	TargetDebug        = "debug"
	TargetReleaseDebug = "release_debug"
	TargetRelease      = "release"
)

// Common returns the options every platform reads but none declares itself.
func Common() []Option {
	return []Option{
		Enum(Target, "Compilation target", TargetDebug,
			TargetDebug, TargetReleaseDebug, TargetRelease),
		String(Arch, "Platform-dependent architecture (arm/arm64/x86/x86_64)", ""),
		Enum(Bits, "Target platform bits", "default", "default", "32", "64"),
		Bool(UseLTO, "Use link-time optimization", false),
		Bool(Tools, "Build the tools", true),
		Bool(ModuleOpusEnabled, "Enable the opus module", false),
	}
}
