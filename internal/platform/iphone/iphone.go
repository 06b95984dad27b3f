// Package iphone configures compiler and linker flags for iOS devices and
// the iOS simulator.
package iphone

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"

	"github.com/qntx/platconf/internal/env"
	"github.com/qntx/platconf/internal/logger"
	"github.com/qntx/platconf/internal/option"
	"github.com/qntx/platconf/internal/platform"
)

// Option names declared by this platform.
const (
	OptPlatform   = "IPHONEPLATFORM"
	OptPath       = "IPHONEPATH"
	OptSDK        = "IPHONESDK"
	OptGameCenter = "game_center"
	OptStoreKit   = "store_kit"
	OptICloud     = "icloud"
	OptExceptions = "ios_exceptions"
	OptTriple     = "ios_triple"
	OptSim        = "ios_sim"
)

// Architectures recognized by Configure.
const (
	ArchX86    = "x86"
	ArchX86_64 = "x86_64"
	ArchARM    = "arm"
	ArchARM64  = "arm64"
)

const (
	defaultPath = "/Applications/Xcode.app/Contents/Developer/Toolchains/XcodeDefault.xctoolchain"
	defaultSDK  = "/Applications/Xcode.app/Contents/Developer/Platforms/${IPHONEPLATFORM}.platform/Developer/SDKs/${IPHONEPLATFORM}.sdk/"

	simulatorPlatform = "iPhoneSimulator"
	simulatorMacOSMin = "10.9"
	minIOSVersion     = "9.0"

	codesignAllocate = "/Developer/Platforms/iPhoneOS.platform/Developer/usr/bin/codesign_allocate"
)

// Host environment variables consulted during configuration.
const (
	EnvCCache      = "CCACHE"
	EnvOSXCrossIOS = "OSXCROSS_IOS"
)

// OpusFixedPoint is the attribute read by the opus module build.
const OpusFixedPoint = "opus_fixed_point"

var (
	simulatorCCFlags = mustSplit(`-fobjc-abi-version=2 -fobjc-legacy-dispatch -fmessage-length=0 ` +
		`-fpascal-strings -fblocks -fasm-blocks -isysroot $IPHONESDK -mios-simulator-version-min=9.0 ` +
		`-DCUSTOM_MATRIX_TRANSFORM_H=\"build/iphone/matrix4_iphone.h\" ` +
		`-DCUSTOM_VECTOR3_TRANSFORM_H=\"build/iphone/vector3_iphone.h\"`)

	armCCFlags = mustSplit(`-fno-objc-arc -arch armv7 -fmessage-length=0 -fno-strict-aliasing ` +
		`-fdiagnostics-print-source-range-info -fdiagnostics-show-category=id -fdiagnostics-parseable-fixits ` +
		`-fpascal-strings -fblocks -isysroot $IPHONESDK -fvisibility=hidden -mthumb ` +
		`"-DIBOutlet=__attribute__((iboutlet))" ` +
		`"-DIBOutletCollection(ClassName)=__attribute__((iboutletcollection(ClassName)))" ` +
		`"-DIBAction=void)__attribute__((ibaction)" ` +
		`-miphoneos-version-min=9.0 -MMD -MT dependencies`)

	arm64CCFlags = mustSplit(`-fno-objc-arc -arch arm64 -fmessage-length=0 -fno-strict-aliasing ` +
		`-fdiagnostics-print-source-range-info -fdiagnostics-show-category=id -fdiagnostics-parseable-fixits ` +
		`-fpascal-strings -fblocks -fvisibility=hidden -MMD -MT dependencies -miphoneos-version-min=9.0 ` +
		`-isysroot $IPHONESDK`)

	frameworks = []string{
		"AudioToolbox",
		"AVFoundation",
		"CoreAudio",
		"CoreGraphics",
		"CoreMedia",
		"CoreMotion",
		"Foundation",
		"GameController",
		"MediaPlayer",
		"OpenGLES",
		"QuartzCore",
		"Security",
		"SystemConfiguration",
		"UIKit",
	}

	includePaths = []string{
		"$IPHONESDK/usr/include",
		"$IPHONESDK/System/Library/Frameworks/OpenGLES.framework/Headers",
		"$IPHONESDK/System/Library/Frameworks/AudioUnit.framework/Headers",
	}
)

func mustSplit(s string) []string {
	words, err := shellquote.Split(s)
	if err != nil {
		panic(err)
	}
	return words
}

func init() {
	platform.Register(New())
}

// Platform is the iOS configurator.
type Platform struct{}

// New returns the iOS platform.
func New() *Platform { return &Platform{} }

func (*Platform) Name() string        { return "iphone" }
func (*Platform) DisplayName() string { return "iOS" }
func (*Platform) IsActive() bool      { return true }

// CanBuild reports whether the host can target iOS: macOS hosts, or any host
// with an osxcross iOS toolchain announced via OSXCROSS_IOS.
func (*Platform) CanBuild(host platform.Host) bool {
	if host.OS == "darwin" {
		return true
	}
	_, ok := host.Lookup(EnvOSXCrossIOS)
	return ok
}

func (*Platform) Options() []option.Option {
	return []option.Option{
		option.String(OptPlatform, "Name of the iPhone platform", "iPhoneOS"),
		option.String(OptPath, "Path to iPhone toolchain", defaultPath),
		option.String(OptSDK, "Path to the iPhone SDK", defaultSDK),
		option.Bool(OptGameCenter, "Support for game center", true),
		option.Bool(OptStoreKit, "Support for in-app store", true),
		option.Bool(OptICloud, "Support for iCloud", true),
		option.Bool(OptExceptions, "Enable exceptions", false),
		option.String(OptTriple, "Triple for ios toolchain", ""),
		option.Bool(OptSim, "Build simulator binary (deprecated, use arch=x86 or arch=x86_64)", false),
	}
}

func (*Platform) Flags() map[string]string {
	return map[string]string{option.Tools: env.FormatBool(false)}
}

func (*Platform) Archs() []string {
	return []string{ArchX86, ArchX86_64, ArchARM, "arm32", "armv7", ArchARM64}
}

// Dirs names the options that must point at an installed toolchain and SDK.
func (*Platform) Dirs() []string {
	return []string{OptPath, OptSDK}
}

// Configure appends the iOS compiler and linker configuration to e.
func (p *Platform) Configure(e *env.Environment, host platform.Host) error {
	features, err := readFeatures(e)
	if err != nil {
		return err
	}

	configureTarget(e, features.lto)
	arch := configureArch(e, features.sim)
	configureToolchain(e, host)
	configureCompileFlags(e, arch, features.exceptions)
	configureLinkFlags(e, arch)
	configureFeatures(e, features)
	configureIncludes(e)
	if features.opus {
		configureOpus(e, arch)
	}

	logger.Logger.Infow("configured iOS environment",
		"arch", arch,
		"bits", e.Value(option.Bits),
		"target", e.Value(option.Target),
		"platform", e.Value(OptPlatform))
	return nil
}

// ----------------------------------------------------------------------------
// Steps
// ----------------------------------------------------------------------------

type features struct {
	lto, sim, exceptions        bool
	gameCenter, storeKit, cloud bool
	opus                        bool
}

func readFeatures(e *env.Environment) (features, error) {
	var f features
	fields := []struct {
		key string
		dst *bool
	}{
		{option.UseLTO, &f.lto},
		{OptSim, &f.sim},
		{OptExceptions, &f.exceptions},
		{OptGameCenter, &f.gameCenter},
		{OptStoreKit, &f.storeKit},
		{OptICloud, &f.cloud},
		{option.ModuleOpusEnabled, &f.opus},
	}
	for _, field := range fields {
		v, err := e.Bool(field.key)
		if err != nil {
			return features{}, errors.Wrap(err, "iphone")
		}
		*field.dst = v
	}
	return f, nil
}

func configureTarget(e *env.Environment, lto bool) {
	switch target := e.Value(option.Target); {
	case strings.HasPrefix(target, option.TargetRelease):
		e.Append(env.CPPFLAGS, "-DNDEBUG", "-DNS_BLOCK_ASSERTIONS=1")
		e.Append(env.CPPFLAGS, "-O2", "-ftree-vectorize", "-fomit-frame-pointer")
		e.Append(env.LINKFLAGS, "-O2")
		if target == option.TargetReleaseDebug {
			e.Append(env.CPPFLAGS, "-DDEBUG_ENABLED")
		}
	case target == option.TargetDebug:
		e.Append(env.CPPFLAGS, "-D_DEBUG", "-DDEBUG=1", "-gdwarf-2", "-O0",
			"-DDEBUG_ENABLED", "-DDEBUG_MEMORY_ENABLED")
	}

	if lto {
		e.Append(env.CPPFLAGS, "-flto")
		e.Append(env.LINKFLAGS, "-flto")
	}
}

// configureArch normalizes arch and bits. Unrecognized architectures fall
// through to arm64.
func configureArch(e *env.Environment, sim bool) string {
	// An empty arch counts as unset. Checking mere presence of the option, as
	// SCons detectors do, would make ios_sim a no-op since arch is always
	// declared.
	if sim && e.Value(option.Arch) == "" {
		logger.Logger.Warnw("ios_sim is deprecated, use arch=x86 or arch=x86_64")
		e.Set(option.Arch, ArchX86)
	}

	arch, bits := e.Value(option.Arch), ""
	switch {
	case arch == ArchX86:
		bits = "32"
	case arch == ArchX86_64:
		bits = "64"
	case arch == ArchARM || arch == "arm32" || arch == "armv7" || e.Value(option.Bits) == "32":
		arch, bits = ArchARM, "32"
	default:
		if arch != "" && arch != ArchARM64 {
			logger.Logger.Warnw("unrecognized architecture, building for arm64", "arch", arch)
		}
		arch, bits = ArchARM64, "64"
	}

	e.Set(option.Arch, arch)
	e.Set(option.Bits, bits)
	logger.Logger.Debugw("resolved architecture", "arch", arch, "bits", bits)
	return arch
}

func configureToolchain(e *env.Environment, host platform.Host) {
	e.SetEnv("PATH", e.Subst(e.Value(OptPath))+"/Developer/usr/bin/:"+e.Env("PATH"))

	compilerPath := "$IPHONEPATH/usr/bin/${ios_triple}"
	sCompilerPath := "$IPHONEPATH/Developer/usr/bin/"

	cc, cxx, sc := compilerPath+"clang", compilerPath+"clang++", sCompilerPath+"gcc"
	if ccache, ok := host.Lookup(EnvCCache); ok {
		// No ccache wrappers exist for iOS; prefix the binary instead.
		logger.Logger.Debugw("using ccache", "path", ccache)
		cc, cxx, sc = ccache+" "+cc, ccache+" "+cxx, ccache+" "+sc
	}

	e.Set(env.CC, cc)
	e.Set(env.CXX, cxx)
	e.Set(env.SCompiler, sc)
	e.Set(env.AR, compilerPath+"ar")
	e.Set(env.RANLIB, compilerPath+"ranlib")
}

func configureCompileFlags(e *env.Environment, arch string, exceptions bool) {
	switch arch {
	case ArchX86, ArchX86_64:
		e.Set(OptPlatform, simulatorPlatform)
		e.SetEnv("MACOSX_DEPLOYMENT_TARGET", simulatorMacOSMin)
		e.Append(env.CCFLAGS, "-arch", simulatorArchFlag(arch))
		e.Append(env.CCFLAGS, simulatorCCFlags...)
	case ArchARM:
		e.Append(env.CCFLAGS, armCCFlags...)
	case ArchARM64:
		e.Append(env.CCFLAGS, arm64CCFlags...)
		e.Append(env.CPPFLAGS, "-DNEED_LONG_INT")
		e.Append(env.CPPFLAGS, "-DLIBYUV_DISABLE_NEON")
	}

	if exceptions {
		e.Append(env.CPPFLAGS, "-fexceptions")
	} else {
		e.Append(env.CPPFLAGS, "-fno-exceptions")
	}
}

func configureLinkFlags(e *env.Environment, arch string) {
	switch arch {
	case ArchX86, ArchX86_64:
		e.Append(env.LINKFLAGS,
			"-arch", simulatorArchFlag(arch),
			"-mios-simulator-version-min="+minIOSVersion,
			"-isysroot", "$IPHONESDK",
			"-Xlinker",
			"-objc_abi_version",
			"-Xlinker", "2",
			"-F$IPHONESDK",
		)
	case ArchARM:
		e.Append(env.LINKFLAGS, "-arch", "armv7", "-Wl,-dead_strip", "-miphoneos-version-min="+minIOSVersion)
	case ArchARM64:
		e.Append(env.LINKFLAGS, "-arch", "arm64", "-Wl,-dead_strip", "-miphoneos-version-min="+minIOSVersion)
	}

	e.Append(env.LINKFLAGS, "-isysroot", "$IPHONESDK")
	for _, fw := range frameworks {
		e.Append(env.LINKFLAGS, "-framework", fw)
	}
}

func configureFeatures(e *env.Environment, f features) {
	if f.gameCenter {
		e.Append(env.CPPFLAGS, "-DGAME_CENTER_ENABLED")
		e.Append(env.LINKFLAGS, "-framework", "GameKit")
	}
	if f.storeKit {
		e.Append(env.CPPFLAGS, "-DSTOREKIT_ENABLED")
		e.Append(env.LINKFLAGS, "-framework", "StoreKit")
	}
	if f.cloud {
		e.Append(env.CPPFLAGS, "-DICLOUD_ENABLED")
	}
}

func configureIncludes(e *env.Environment) {
	e.Append(env.CPPPATH, includePaths...)
	e.SetEnv("CODESIGN_ALLOCATE", codesignAllocate)
	e.Append(env.CPPPATH, "#platform/iphone")
	e.Append(env.CPPFLAGS, "-DIPHONE_ENABLED", "-DUNIX_ENABLED", "-DGLES_ENABLED", "-DCOREAUDIO_ENABLED")
}

// TODO: move into the opus module's own configuration once modules can
// read the resolved arch.
func configureOpus(e *env.Environment, arch string) {
	e.SetAttr(OpusFixedPoint, "yes")
	switch arch {
	case ArchARM:
		e.Append(env.CFLAGS, "-DOPUS_ARM_OPT")
	case ArchARM64:
		e.Append(env.CFLAGS, "-DOPUS_ARM64_OPT")
	}
}

func simulatorArchFlag(arch string) string {
	if arch == ArchX86 {
		return "i386"
	}
	return arch
}
