package service

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/tss-calculator/recipes/pkg/recipe/application/model"
)

const (
	DefaultDownloadBase = "http://ijg.org/files/"
	SourceSubfolder     = "sources"
	InstallSubfolder    = "install"
	CMakeSubfolder      = "build"

	defaultVSVersion = "15"
)

// SourceArchive resolves the upstream archive of a version for the target OS:
// jpegsrc.v9b.tar.gz everywhere except Windows, which gets jpegsr9b.zip.
func SourceArchive(recipe model.Recipe, version model.Version, settings model.Settings) (model.SourceArchive, error) {
	recipeVersion, ok := recipe.Versions[version]
	if !ok {
		return model.SourceArchive{}, fmt.Errorf("version %v of recipe %v not found", version, recipe.Name)
	}
	base := recipe.DownloadBase
	if base == "" {
		base = DefaultDownloadBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	prefix, kind := "jpegsrc.v", model.ArchiveTarGz
	if settings.OS == model.OSWindows {
		prefix, kind = "jpegsr", model.ArchiveZip
	}
	fileName := prefix + version + "." + kind
	return model.SourceArchive{
		URL:       base + fileName,
		FileName:  fileName,
		Kind:      kind,
		SHA256:    recipeVersion.SHA256[kind],
		RootDir:   "jpeg-" + version,
		Subfolder: SourceSubfolder,
		Exports:   recipe.Exports,
	}, nil
}

// SelectBackend maps the (os, compiler) pair to a build back-end.
// preferred only matters for Visual Studio, where several back-ends can build the library.
func SelectBackend(settings model.Settings, preferred model.Backend) (model.Backend, error) {
	switch {
	case settings.OS != model.OSWindows:
		if settings.Compiler == model.CompilerVisualStudio {
			return "", fmt.Errorf("compiler %v is not supported on %v", settings.Compiler, settings.OS)
		}
		return model.BackendAutotools, nil
	case settings.Compiler == model.CompilerGCC:
		return model.BackendMinGW, nil
	case settings.Compiler == model.CompilerVisualStudio:
		switch preferred {
		case "":
			return model.BackendNMake, nil
		case model.BackendNMake, model.BackendMSBuild, model.BackendCMake:
			return preferred, nil
		default:
			return "", fmt.Errorf("backend %v can not build with %v", preferred, settings.Compiler)
		}
	default:
		return "", fmt.Errorf("compiler %v is not supported on %v", settings.Compiler, settings.OS)
	}
}

// CheckOptions rejects option values a back-end can not produce.
func CheckOptions(backend model.Backend, options model.Options) error {
	if options.Shared && (backend == model.BackendNMake || backend == model.BackendMSBuild) {
		return fmt.Errorf("shared library is not supported by %v backend", backend)
	}
	return nil
}

func ConfigureArgs(backend model.Backend, settings model.Settings, options model.Options, prefix string) ([]string, error) {
	args := []string{"--prefix=" + prefix}
	if options.Shared {
		args = append(args, "--enable-shared=yes", "--enable-static=no")
	} else {
		args = append(args, "--enable-shared=no", "--enable-static=yes")
	}
	if backend == model.BackendMinGW {
		triple, err := MinGWTriple(settings.Arch)
		if err != nil {
			return nil, err
		}
		args = append(args, "--host="+triple)
	}
	return args, nil
}

func MinGWTriple(arch model.Arch) (string, error) {
	switch arch {
	case model.ArchX86:
		return "i686-w64-mingw32", nil
	case model.ArchX86_64:
		return "x86_64-w64-mingw32", nil
	default:
		return "", fmt.Errorf("arch %v is not supported by mingw", arch)
	}
}

func CompilerFlags(backend model.Backend, settings model.Settings) []string {
	var flags []string
	if backend == model.BackendAutotools {
		flags = append(flags, "-fPIC")
	}
	flags = append(flags, archFlags(settings)...)
	if settings.BuildType == model.BuildTypeDebug {
		flags = append(flags, "-g", "-O0")
	} else {
		flags = append(flags, "-O2", "-DNDEBUG")
	}
	return flags
}

func archFlags(settings model.Settings) []string {
	if settings.OS == model.OSMacos {
		switch settings.Arch {
		case model.ArchX86:
			return []string{"-arch", "i386"}
		case model.ArchX86_64:
			return []string{"-arch", "x86_64"}
		case model.ArchArmv8:
			return []string{"-arch", "arm64"}
		}
		return nil
	}
	switch settings.Arch {
	case model.ArchX86:
		return []string{"-m32"}
	case model.ArchX86_64:
		return []string{"-m64"}
	}
	return nil
}

func VSPlatform(arch model.Arch) string {
	switch arch {
	case model.ArchX86:
		return "Win32"
	case model.ArchArmv7:
		return "ARM"
	case model.ArchArmv8:
		return "ARM64"
	default:
		return "x64"
	}
}

// LibNames is the link name reported to consumers.
func LibNames(settings model.Settings) []string {
	if settings.OS == model.OSWindows && settings.Compiler == model.CompilerVisualStudio {
		if settings.BuildType == model.BuildTypeDebug {
			return []string{"libjpegd"}
		}
		return []string{"libjpeg"}
	}
	return []string{"jpeg"}
}

func CppInfo(settings model.Settings, options model.Options) model.CppInfo {
	info := model.CppInfo{
		Libs:        LibNames(settings),
		IncludeDirs: []string{"include"},
		LibDirs:     []string{"lib"},
	}
	if options.Shared && settings.OS == model.OSWindows {
		info.BinDirs = []string{"bin"}
	}
	return info
}

// PackageID is stable for equal settings and options.
func PackageID(settings model.Settings, options model.Options) model.PackageID {
	canonical := strings.Join([]string{
		"os=" + settings.OS,
		"arch=" + settings.Arch,
		"compiler=" + settings.Compiler,
		"compiler.version=" + settings.CompilerVersion,
		"build_type=" + settings.BuildType,
		"shared=" + strconv.FormatBool(options.Shared),
	}, ";")
	return fmt.Sprintf("%016x", xxhash.Sum64String(canonical))
}

func NewBuildPlan(backend model.Backend, job model.Job, buildFolder string, jobs int) (model.BuildPlan, error) {
	if err := CheckOptions(backend, job.Options); err != nil {
		return model.BuildPlan{}, err
	}
	if jobs < 1 {
		jobs = 1
	}
	plan := model.BuildPlan{
		Backend:     backend,
		BuildFolder: buildFolder,
		SourceDir:   path.Join(buildFolder, SourceSubfolder),
		InstallDir:  path.Join(buildFolder, InstallSubfolder),
	}
	settings := job.Settings
	switch backend {
	case model.BackendAutotools, model.BackendMinGW:
		args, err := ConfigureArgs(backend, settings, job.Options, plan.InstallDir)
		if err != nil {
			return model.BuildPlan{}, err
		}
		env := []string{"CFLAGS=" + strings.Join(CompilerFlags(backend, settings), " ")}
		commands := []model.Command{
			{WorkDir: plan.SourceDir, Executable: "./configure", Args: args, Env: env},
			{WorkDir: plan.SourceDir, Executable: "make", Args: []string{"-j" + strconv.Itoa(jobs)}, Env: env},
			{WorkDir: plan.SourceDir, Executable: "make", Args: []string{"install"}, Env: env},
		}
		if backend == model.BackendMinGW {
			plan.Steps = []model.Step{{Kind: model.StepScript, Description: "mingw configure and make", Script: commands}}
			break
		}
		plan.Steps = []model.Step{
			{Kind: model.StepRun, Description: "configure", Command: commands[0]},
			{Kind: model.StepRun, Description: "make", Command: commands[1]},
			{Kind: model.StepRun, Description: "make install", Command: commands[2]},
		}
	case model.BackendNMake:
		args := []string{"/nologo", "/f", "makefile.vc"}
		if settings.BuildType == model.BuildTypeRelease {
			args = append(args, "nodebug=1")
		}
		args = append(args, "libjpeg.lib")
		plan.Steps = []model.Step{
			renameJConfig(plan.SourceDir),
			{Kind: model.StepRun, Description: "nmake", Command: model.Command{WorkDir: plan.SourceDir, Executable: "nmake", Args: args}},
		}
	case model.BackendMSBuild:
		plan.Steps = []model.Step{
			{Kind: model.StepRun, Description: "setup solution", Command: model.Command{
				WorkDir:    plan.SourceDir,
				Executable: "nmake",
				Args:       []string{"/nologo", "/f", "makefile.vc", "setup-v" + vsVersion(settings)},
			}},
			{Kind: model.StepRun, Description: "upgrade solution", Tolerated: true, Command: model.Command{
				WorkDir:    plan.SourceDir,
				Executable: "devenv",
				Args:       []string{"jpeg.sln", "/upgrade"},
			}},
			{Kind: model.StepRun, Description: "msbuild", Command: model.Command{
				WorkDir:    plan.SourceDir,
				Executable: "msbuild",
				Args: []string{
					"jpeg.sln",
					"/t:jpeg",
					"/p:Configuration=" + settings.BuildType,
					"/p:Platform=" + VSPlatform(settings.Arch),
				},
			}},
		}
	case model.BackendCMake:
		cmakeDir := path.Join(buildFolder, CMakeSubfolder)
		shared := "OFF"
		if job.Options.Shared {
			shared = "ON"
		}
		plan.Steps = []model.Step{
			renameJConfig(plan.SourceDir),
			{Kind: model.StepRun, Description: "cmake configure", Command: model.Command{
				WorkDir:    buildFolder,
				Executable: "cmake",
				Args: []string{
					"-S", plan.SourceDir,
					"-B", cmakeDir,
					"-A", VSPlatform(settings.Arch),
					"-DBUILD_SHARED_LIBS=" + shared,
				},
			}},
			{Kind: model.StepRun, Description: "cmake build", Command: model.Command{
				WorkDir:    buildFolder,
				Executable: "cmake",
				Args:       []string{"--build", cmakeDir, "--config", settings.BuildType},
			}},
		}
	default:
		return model.BuildPlan{}, fmt.Errorf("unknown backend %v", backend)
	}
	return plan, nil
}

func NewPackagePlan(backend model.Backend, job model.Job, buildFolder, packageFolder string) model.PackagePlan {
	plan := model.PackagePlan{BuildFolder: buildFolder, PackageFolder: packageFolder}
	settings, options := job.Settings, job.Options
	libName := LibNames(settings)[0]
	switch backend {
	case model.BackendAutotools, model.BackendMinGW:
		include := path.Join(buildFolder, InstallSubfolder, "include")
		lib := path.Join(buildFolder, InstallSubfolder, "lib")
		bin := path.Join(buildFolder, InstallSubfolder, "bin")
		plan.Strip = []string{
			path.Join(InstallSubfolder, "share"),
			path.Join(InstallSubfolder, "lib", "pkgconfig"),
			path.Join(InstallSubfolder, "lib", "*.la"),
		}
		plan.Rules = []model.CopyRule{{Pattern: "*.h", Src: include, Dst: "include"}}
		switch {
		case !options.Shared:
			plan.Strip = append(plan.Strip, path.Join(InstallSubfolder, "bin"))
			plan.Rules = append(plan.Rules, model.CopyRule{Pattern: "*.a", Src: lib, Dst: "lib"})
		case settings.OS == model.OSWindows:
			plan.Rules = append(plan.Rules,
				model.CopyRule{Pattern: "*.dll.a", Src: lib, Dst: "lib"},
				model.CopyRule{Pattern: "*.dll", Src: bin, Dst: "bin"},
			)
		case settings.OS == model.OSMacos:
			plan.Rules = append(plan.Rules, model.CopyRule{Pattern: "*.dylib", Src: lib, Dst: "lib"})
		default:
			plan.Rules = append(plan.Rules, model.CopyRule{Pattern: "*.so*", Src: lib, Dst: "lib"})
		}
	case model.BackendNMake:
		sources := path.Join(buildFolder, SourceSubfolder)
		plan.Rules = []model.CopyRule{
			{Pattern: "*.h", Src: sources, Dst: "include"},
			{Pattern: "libjpeg.lib", Src: sources, Dst: "lib", RenameTo: libName + ".lib"},
		}
	case model.BackendMSBuild:
		sources := path.Join(buildFolder, SourceSubfolder)
		plan.Rules = []model.CopyRule{
			{Pattern: "*.h", Src: sources, Dst: "include"},
			{Pattern: "jpeg.lib", Src: sources, Dst: "lib", RenameTo: libName + ".lib"},
		}
	case model.BackendCMake:
		sources := path.Join(buildFolder, SourceSubfolder)
		cmakeDir := path.Join(buildFolder, CMakeSubfolder)
		plan.Rules = []model.CopyRule{
			{Pattern: "*.h", Src: sources, Dst: "include"},
			{Pattern: libName + ".lib", Src: cmakeDir, Dst: "lib"},
		}
		if options.Shared {
			plan.Rules = append(plan.Rules, model.CopyRule{Pattern: "*.dll", Src: cmakeDir, Dst: "bin"})
		}
	}
	return plan
}

func renameJConfig(sourceDir string) model.Step {
	return model.Step{
		Kind:        model.StepRename,
		Description: "select jconfig.vc",
		From:        path.Join(sourceDir, "jconfig.vc"),
		To:          path.Join(sourceDir, "jconfig.h"),
	}
}

func vsVersion(settings model.Settings) string {
	if settings.CompilerVersion == "" {
		return defaultVSVersion
	}
	major, _, _ := strings.Cut(settings.CompilerVersion, ".")
	return major
}
