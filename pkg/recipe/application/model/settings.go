package model

import (
	"fmt"
	"strings"
)

type OS = string

const (
	OSLinux   OS = "Linux"
	OSMacos   OS = "Macos"
	OSWindows OS = "Windows"
	OSFreeBSD OS = "FreeBSD"
)

type Arch = string

const (
	ArchX86    Arch = "x86"
	ArchX86_64 Arch = "x86_64"
	ArchArmv7  Arch = "armv7"
	ArchArmv8  Arch = "armv8"
)

type Compiler = string

const (
	CompilerGCC          Compiler = "gcc"
	CompilerClang        Compiler = "clang"
	CompilerAppleClang   Compiler = "apple-clang"
	CompilerVisualStudio Compiler = "Visual Studio"
)

type BuildType = string

const (
	BuildTypeDebug   BuildType = "Debug"
	BuildTypeRelease BuildType = "Release"
)

// Settings is the tuple that drives every conditional step of the recipe.
// compiler.libcxx is not part of it, the packaged library is pure C.
type Settings struct {
	OS              OS        `json:"os"`
	Arch            Arch      `json:"arch"`
	Compiler        Compiler  `json:"compiler"`
	CompilerVersion string    `json:"compiler.version"`
	BuildType       BuildType `json:"build_type"`
}

type Options struct {
	Shared bool `json:"shared"`
}

func (s Settings) Validate() error {
	if err := oneOf("os", s.OS, OSLinux, OSMacos, OSWindows, OSFreeBSD); err != nil {
		return err
	}
	if err := oneOf("arch", s.Arch, ArchX86, ArchX86_64, ArchArmv7, ArchArmv8); err != nil {
		return err
	}
	if err := oneOf("compiler", s.Compiler, CompilerGCC, CompilerClang, CompilerAppleClang, CompilerVisualStudio); err != nil {
		return err
	}
	if err := oneOf("build_type", s.BuildType, BuildTypeDebug, BuildTypeRelease); err != nil {
		return err
	}
	if s.Compiler == CompilerVisualStudio && s.OS != OSWindows {
		return fmt.Errorf("compiler %q is only available on %v", s.Compiler, OSWindows)
	}
	if s.Compiler == CompilerAppleClang && s.OS != OSMacos {
		return fmt.Errorf("compiler %q is only available on %v", s.Compiler, OSMacos)
	}
	return nil
}

func (s Settings) String() string {
	return fmt.Sprintf("os=%v arch=%v compiler=%v compiler.version=%v build_type=%v",
		s.OS, s.Arch, s.Compiler, s.CompilerVersion, s.BuildType)
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid setting %v=%q, expected one of [%v]", name, value, strings.Join(allowed, ", "))
}
