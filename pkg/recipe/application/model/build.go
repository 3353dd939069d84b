package model

type Command struct {
	WorkDir    string
	Executable string
	Args       []string
	Env        []string
}

type StepKind = string

const (
	StepRun    StepKind = "run"
	StepRename StepKind = "rename"
	StepScript StepKind = "script"
)

type Step struct {
	Kind        StepKind
	Description string
	Command     Command
	// Script holds the commands rendered into one bash script for StepScript.
	Script []Command
	From   string
	To     string
	// Tolerated failures are reported and the build carries on.
	Tolerated bool
}

type BuildPlan struct {
	Backend     Backend
	BuildFolder string
	SourceDir   string
	InstallDir  string
	Steps       []Step
}

// Layout resolves the folders of a job below the tool home directory.
type Layout struct {
	Home string
}

func (l Layout) DownloadFolder() string {
	return l.Home + "/downloads"
}

func (l Layout) BuildFolder(ref Reference, id PackageID) string {
	return l.Home + "/build/" + ref.Name + "/" + ref.Version + "/" + id
}

func (l Layout) PackageFolder(ref Reference, id PackageID) string {
	return l.Home + "/package/" + ref.Name + "/" + ref.Version + "/" + id
}

func (l Layout) CacheDB() string {
	return l.Home + "/cache.db"
}
