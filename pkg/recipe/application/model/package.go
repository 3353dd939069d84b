package model

import "time"

type PackageID = string

// PackageInfoFile is written last, a package folder without it is incomplete.
const PackageInfoFile = "conaninfo.json"

type SourceArchive struct {
	URL      string
	FileName string
	Kind     ArchiveKind
	SHA256   string
	// RootDir is the top-level directory inside the archive.
	RootDir string
	// Subfolder is the name RootDir is renamed to after extraction.
	Subfolder string
	Exports   []string
}

type CopyRule struct {
	Pattern string
	Src     string
	Dst     string
	// KeepPath preserves the directory structure below Src.
	KeepPath bool
	// RenameTo applies only when the rule matches exactly one file.
	RenameTo string
}

type PackagePlan struct {
	BuildFolder   string
	PackageFolder string
	// Strip lists paths relative to BuildFolder removed before copying.
	Strip []string
	Rules []CopyRule
}

type CppInfo struct {
	Libs        []string `json:"libs"`
	IncludeDirs []string `json:"includedirs"`
	LibDirs     []string `json:"libdirs"`
	BinDirs     []string `json:"bindirs,omitempty"`
}

type PackageInfo struct {
	Reference Reference `json:"reference"`
	PackageID PackageID `json:"package_id"`
	Settings  Settings  `json:"settings"`
	Options   Options   `json:"options"`
	CppInfo   CppInfo   `json:"cpp_info"`
}

type PackageRecord struct {
	Reference     Reference
	PackageID     PackageID
	Settings      Settings
	Options       Options
	Libs          []string
	PackageFolder string
	CreatedAt     time.Time
}
