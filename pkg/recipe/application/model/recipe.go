package model

import "fmt"

type Version = string

type Backend = string

const (
	BackendAutotools Backend = "autotools"
	BackendNMake     Backend = "nmake"
	BackendMSBuild   Backend = "msbuild"
	BackendMinGW     Backend = "mingw"
	BackendCMake     Backend = "cmake"
)

type ArchiveKind = string

const (
	ArchiveTarGz ArchiveKind = "tar.gz"
	ArchiveZip   ArchiveKind = "zip"
)

type RecipeVersion struct {
	Version Version
	// SHA256 per archive kind; an empty value disables verification.
	SHA256         map[ArchiveKind]string
	WindowsBackend Backend
}

type Recipe struct {
	Name         string
	Description  string
	License      string
	URL          string
	DownloadBase string
	// Exports are absolute paths copied into the source subfolder after extraction.
	Exports  []string
	Versions map[Version]RecipeVersion
}

type Reference struct {
	Name    string  `json:"name"`
	Version Version `json:"version"`
}

func (r Reference) String() string {
	return fmt.Sprintf("%v/%v", r.Name, r.Version)
}

// Job is one recipe invocation for a version and settings tuple.
type Job struct {
	Version  Version
	Settings Settings
	Options  Options
}
