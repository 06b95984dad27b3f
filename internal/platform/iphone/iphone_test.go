package iphone

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/qntx/platconf/internal/env"
	"github.com/qntx/platconf/internal/logger"
	"github.com/qntx/platconf/internal/option"
	"github.com/qntx/platconf/internal/platform"
)

var linuxHost = platform.Host{OS: "linux", Environ: map[string]string{}}

func configure(t *testing.T, host platform.Host, values map[string]string) *env.Environment {
	t.Helper()
	p := New()
	e := env.New()
	e.SetEnv("PATH", "/usr/bin")
	require.NoError(t, platform.Seed(p, e, values))
	require.NoError(t, p.Configure(e, host))
	return e
}

func captureLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	orig := logger.Logger
	logger.Logger = zap.New(core).Sugar()
	t.Cleanup(func() { logger.Logger = orig })
	return logs
}

func TestRegistered(t *testing.T) {
	p, err := platform.Lookup("iphone")
	require.NoError(t, err)
	assert.Equal(t, "iOS", p.DisplayName())
	assert.True(t, p.IsActive())
}

func TestCanBuild(t *testing.T) {
	p := New()
	tests := []struct {
		name string
		host platform.Host
		want bool
	}{
		{"darwin", platform.Host{OS: "darwin"}, true},
		{"linux", linuxHost, false},
		{"linux with osxcross", platform.Host{OS: "linux", Environ: map[string]string{EnvOSXCrossIOS: ""}}, true},
		{"windows", platform.Host{OS: "windows"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.CanBuild(tt.host))
		})
	}
}

func TestConfigure_Defaults(t *testing.T) {
	e := configure(t, linuxHost, nil)

	assert.Equal(t, ArchARM64, e.Value(option.Arch))
	assert.Equal(t, "64", e.Value(option.Bits))
	assert.Equal(t, "no", e.Value(option.Tools))
	assert.Equal(t, "iphone", e.Value("platform"))

	assert.Equal(t, []string{
		"-D_DEBUG", "-DDEBUG=1", "-gdwarf-2", "-O0", "-DDEBUG_ENABLED", "-DDEBUG_MEMORY_ENABLED",
		"-DNEED_LONG_INT", "-DLIBYUV_DISABLE_NEON",
		"-fno-exceptions",
		"-DGAME_CENTER_ENABLED", "-DSTOREKIT_ENABLED", "-DICLOUD_ENABLED",
		"-DIPHONE_ENABLED", "-DUNIX_ENABLED", "-DGLES_ENABLED", "-DCOREAUDIO_ENABLED",
	}, e.List(env.CPPFLAGS))

	link := e.List(env.LINKFLAGS)
	assert.Equal(t, []string{"-arch", "arm64", "-Wl,-dead_strip", "-miphoneos-version-min=9.0", "-isysroot", "$IPHONESDK"}, link[:6])
	assert.Equal(t, []string{"-framework", "AudioToolbox"}, link[6:8])
	assert.Equal(t, []string{"-framework", "GameKit", "-framework", "StoreKit"}, link[len(link)-4:])
	assert.Equal(t, 6+2*len(frameworks)+4, len(link))

	assert.Equal(t, arm64CCFlags, e.List(env.CCFLAGS))
	assert.Empty(t, e.List(env.CFLAGS))

	assert.Equal(t, []string{
		"$IPHONESDK/usr/include",
		"$IPHONESDK/System/Library/Frameworks/OpenGLES.framework/Headers",
		"$IPHONESDK/System/Library/Frameworks/AudioUnit.framework/Headers",
		"#platform/iphone",
	}, e.List(env.CPPPATH))

	assert.Equal(t,
		"/Applications/Xcode.app/Contents/Developer/Platforms/iPhoneOS.platform/Developer/SDKs/iPhoneOS.sdk/",
		e.Subst("$IPHONESDK"))
	assert.Equal(t, codesignAllocate, e.Env("CODESIGN_ALLOCATE"))
	assert.Equal(t, defaultPath+"/Developer/usr/bin/:/usr/bin", e.Env("PATH"))
	assert.Empty(t, e.Env("MACOSX_DEPLOYMENT_TARGET"))
}

func TestConfigure_Target(t *testing.T) {
	releaseFlags := []string{"-DNDEBUG", "-DNS_BLOCK_ASSERTIONS=1", "-O2", "-ftree-vectorize", "-fomit-frame-pointer"}

	t.Run("release", func(t *testing.T) {
		e := configure(t, linuxHost, map[string]string{option.Target: option.TargetRelease})
		cpp := e.List(env.CPPFLAGS)
		assert.Equal(t, releaseFlags, cpp[:len(releaseFlags)])
		assert.NotContains(t, cpp, "-DDEBUG_ENABLED")
		assert.Equal(t, "-O2", e.List(env.LINKFLAGS)[0])
	})

	t.Run("release_debug", func(t *testing.T) {
		e := configure(t, linuxHost, map[string]string{option.Target: option.TargetReleaseDebug})
		cpp := e.List(env.CPPFLAGS)
		assert.Equal(t, append(slices.Clone(releaseFlags), "-DDEBUG_ENABLED"), cpp[:len(releaseFlags)+1])
		assert.NotContains(t, cpp, "-D_DEBUG")
	})

	t.Run("debug", func(t *testing.T) {
		e := configure(t, linuxHost, map[string]string{option.Target: option.TargetDebug})
		assert.NotContains(t, e.List(env.CPPFLAGS), "-DNDEBUG")
		assert.NotContains(t, e.List(env.LINKFLAGS), "-O2")
	})

	t.Run("lto", func(t *testing.T) {
		e := configure(t, linuxHost, map[string]string{option.Target: option.TargetRelease, option.UseLTO: "yes"})
		assert.Contains(t, e.List(env.CPPFLAGS), "-flto")
		assert.Equal(t, []string{"-O2", "-flto"}, e.List(env.LINKFLAGS)[:2])
	})
}

func TestConfigure_Arch(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]string
		wantArch string
		wantBits string
	}{
		{"x86", map[string]string{option.Arch: "x86"}, ArchX86, "32"},
		{"x86_64", map[string]string{option.Arch: "x86_64"}, ArchX86_64, "64"},
		{"arm", map[string]string{option.Arch: "arm"}, ArchARM, "32"},
		{"arm32", map[string]string{option.Arch: "arm32"}, ArchARM, "32"},
		{"armv7", map[string]string{option.Arch: "armv7"}, ArchARM, "32"},
		{"bits 32", map[string]string{option.Bits: "32"}, ArchARM, "32"},
		{"x86 ignores bits", map[string]string{option.Arch: "x86", option.Bits: "64"}, ArchX86, "32"},
		{"arm64", map[string]string{option.Arch: "arm64"}, ArchARM64, "64"},
		{"bits 64", map[string]string{option.Bits: "64"}, ArchARM64, "64"},
		{"unknown falls through", map[string]string{option.Arch: "mips"}, ArchARM64, "64"},
		{"ios_sim without arch", map[string]string{OptSim: "yes"}, ArchX86, "32"},
		{"ios_sim with empty arch", map[string]string{OptSim: "yes", option.Arch: ""}, ArchX86, "32"},
		{"ios_sim with arch", map[string]string{OptSim: "yes", option.Arch: "x86_64"}, ArchX86_64, "64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := configure(t, linuxHost, tt.values)
			assert.Equal(t, tt.wantArch, e.Value(option.Arch))
			assert.Equal(t, tt.wantBits, e.Value(option.Bits))
		})
	}
}

func TestConfigure_UnknownArchWarns(t *testing.T) {
	logs := captureLogs(t)
	configure(t, linuxHost, map[string]string{option.Arch: "mips"})

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "mips", warnings[0].ContextMap()["arch"])
}

func TestConfigure_Simulator(t *testing.T) {
	for _, tt := range []struct{ arch, flag string }{{ArchX86, "i386"}, {ArchX86_64, "x86_64"}} {
		t.Run(tt.arch, func(t *testing.T) {
			e := configure(t, linuxHost, map[string]string{option.Arch: tt.arch})

			assert.Equal(t, simulatorPlatform, e.Value(OptPlatform))
			assert.Contains(t, e.Subst("$IPHONESDK"), "iPhoneSimulator.platform/Developer/SDKs/iPhoneSimulator.sdk/")
			assert.Equal(t, "10.9", e.Env("MACOSX_DEPLOYMENT_TARGET"))

			cc := e.List(env.CCFLAGS)
			assert.Equal(t, []string{"-arch", tt.flag}, cc[:2])
			assert.Contains(t, cc, `-DCUSTOM_MATRIX_TRANSFORM_H="build/iphone/matrix4_iphone.h"`)
			assert.Contains(t, cc, `-DCUSTOM_VECTOR3_TRANSFORM_H="build/iphone/vector3_iphone.h"`)

			link := e.List(env.LINKFLAGS)
			assert.Equal(t, []string{
				"-arch", tt.flag, "-mios-simulator-version-min=9.0", "-isysroot", "$IPHONESDK",
				"-Xlinker", "-objc_abi_version", "-Xlinker", "2", "-F$IPHONESDK",
			}, link[:10])

			cpp := e.List(env.CPPFLAGS)
			assert.NotContains(t, cpp, "-DNEED_LONG_INT")
		})
	}
}

func TestConfigure_ARMQuotedDefines(t *testing.T) {
	e := configure(t, linuxHost, map[string]string{option.Arch: "armv7"})

	cc := e.List(env.CCFLAGS)
	assert.Contains(t, cc, "-DIBOutlet=__attribute__((iboutlet))")
	assert.Contains(t, cc, "-DIBOutletCollection(ClassName)=__attribute__((iboutletcollection(ClassName)))")
	assert.Contains(t, cc, "-DIBAction=void)__attribute__((ibaction)")
	assert.Contains(t, cc, "-mthumb")
	assert.Equal(t, []string{"-arch", "armv7", "-Wl,-dead_strip", "-miphoneos-version-min=9.0"}, e.List(env.LINKFLAGS)[:4])
}

func TestConfigure_Toolchain(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		e := configure(t, linuxHost, map[string]string{OptTriple: "arm-apple-darwin11-", OptPath: "/tc"})
		assert.Equal(t, "/tc/usr/bin/arm-apple-darwin11-clang", e.Subst(e.Value(env.CC)))
		assert.Equal(t, "/tc/usr/bin/arm-apple-darwin11-clang++", e.Subst(e.Value(env.CXX)))
		assert.Equal(t, "/tc/Developer/usr/bin/gcc", e.Subst(e.Value(env.SCompiler)))
		assert.Equal(t, "/tc/usr/bin/arm-apple-darwin11-ar", e.Subst(e.Value(env.AR)))
		assert.Equal(t, "/tc/usr/bin/arm-apple-darwin11-ranlib", e.Subst(e.Value(env.RANLIB)))
		assert.Equal(t, "/tc/Developer/usr/bin/:/usr/bin", e.Env("PATH"))
	})

	t.Run("ccache", func(t *testing.T) {
		host := platform.Host{OS: "darwin", Environ: map[string]string{EnvCCache: "/usr/local/bin/ccache"}}
		e := configure(t, host, map[string]string{OptPath: "/tc"})
		assert.Equal(t, "/usr/local/bin/ccache /tc/usr/bin/clang", e.Subst(e.Value(env.CC)))
		assert.Equal(t, "/usr/local/bin/ccache /tc/usr/bin/clang++", e.Subst(e.Value(env.CXX)))
		assert.Equal(t, "/usr/local/bin/ccache /tc/Developer/usr/bin/gcc", e.Subst(e.Value(env.SCompiler)))
		assert.Equal(t, "/tc/usr/bin/ar", e.Subst(e.Value(env.AR)))
	})
}

func TestConfigure_Features(t *testing.T) {
	t.Run("all disabled", func(t *testing.T) {
		e := configure(t, linuxHost, map[string]string{
			OptGameCenter: "no", OptStoreKit: "no", OptICloud: "no",
		})
		cpp, link := e.List(env.CPPFLAGS), e.List(env.LINKFLAGS)
		assert.NotContains(t, cpp, "-DGAME_CENTER_ENABLED")
		assert.NotContains(t, cpp, "-DSTOREKIT_ENABLED")
		assert.NotContains(t, cpp, "-DICLOUD_ENABLED")
		assert.NotContains(t, link, "GameKit")
		assert.NotContains(t, link, "StoreKit")
	})

	t.Run("exceptions", func(t *testing.T) {
		e := configure(t, linuxHost, map[string]string{OptExceptions: "yes"})
		assert.Contains(t, e.List(env.CPPFLAGS), "-fexceptions")
		assert.NotContains(t, e.List(env.CPPFLAGS), "-fno-exceptions")
	})
}

func TestConfigure_Opus(t *testing.T) {
	tests := []struct {
		arch string
		want []string
	}{
		{"arm", []string{"-DOPUS_ARM_OPT"}},
		{"arm64", []string{"-DOPUS_ARM64_OPT"}},
		{"x86_64", nil},
	}

	for _, tt := range tests {
		t.Run(tt.arch, func(t *testing.T) {
			e := configure(t, linuxHost, map[string]string{option.Arch: tt.arch, option.ModuleOpusEnabled: "yes"})
			assert.Equal(t, "yes", e.Attr(OpusFixedPoint))
			assert.Equal(t, tt.want, e.List(env.CFLAGS))
		})
	}

	t.Run("disabled", func(t *testing.T) {
		e := configure(t, linuxHost, nil)
		assert.Empty(t, e.Attr(OpusFixedPoint))
	})
}

func TestSeed_InvalidValue(t *testing.T) {
	err := platform.Seed(New(), env.New(), map[string]string{OptGameCenter: "perhaps"})
	assert.ErrorIs(t, err, env.ErrInvalidBool)
}
