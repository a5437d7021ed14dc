package reconcile

// Scope decides which listed entries of a directory are stale.
type Scope int

const (
	// ScopeExclusive means the directory holds only managed files: every
	// listed file that is not desired (and not protected) is stale.
	ScopeExclusive Scope = iota
	// ScopeReplace means the directory is shared: only listed files that a
	// desired file will replace are stale, everything else is left alone.
	ScopeReplace
)

func (s Scope) String() string {
	switch s {
	case ScopeExclusive:
		return "exclusive"
	case ScopeReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// DesiredFile is a file that must exist in a remote directory after the run.
type DesiredFile struct {
	// Name is the remote file name.
	Name string `json:"name"`
	// StageDir is the staging subdirectory holding the local copy.
	StageDir string `json:"stage_dir"`
	// StageName is the staged file name. Defaults to Name.
	StageName string `json:"stage_name,omitempty"`
	// Reason explains why the file is required (provenance).
	Reason string `json:"reason,omitempty"`
}

func (d DesiredFile) stagedName() string {
	if d.StageName != "" {
		return d.StageName
	}
	return d.Name
}

// DirSpec describes the desired state of one remote directory.
type DirSpec struct {
	// Label names the directory in logs (e.g., "keys", "par file").
	Label string `json:"label"`
	// Dir is the remote directory path.
	Dir string `json:"dir"`
	// Scope decides how stale entries are detected.
	Scope Scope `json:"scope"`
	// Desired lists the files that must be present.
	Desired []DesiredFile `json:"desired"`
	// Protected lists file names that are never deleted.
	Protected []string `json:"protected,omitempty"`
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionDelete deletes a stale remote file.
	ActionDelete ActionType = "delete"
	// ActionUpload uploads a staged file.
	ActionUpload ActionType = "upload"
)

// Action represents a planned mutation operation.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Name is the remote file name.
	Name string `json:"name"`

	// Path is the full remote path.
	Path string `json:"path"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`

	// StageDir and StageName locate the local copy for uploads.
	StageDir  string `json:"-"`
	StageName string `json:"-"`
}

// DirPlan contains the listing and planned actions for one directory.
type DirPlan struct {
	// Spec is the desired state the plan was computed from.
	Spec DirSpec `json:"spec"`

	// Listed contains the remote file names seen when the plan was built.
	Listed []string `json:"listed"`

	// Actions contains planned mutation operations, deletions first.
	Actions []Action `json:"actions"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a directory plan.
type PlanSummary struct {
	// Listed is the number of remote files in the directory.
	Listed int `json:"listed"`

	// Desired is the number of files that must be present.
	Desired int `json:"desired"`

	// Stale counts planned deletions.
	Stale int `json:"stale"`

	// Uploads counts planned uploads.
	Uploads int `json:"uploads"`

	// Protected counts listed files kept only because they are protected.
	Protected int `json:"protected"`

	// Untouched counts listed files outside the scope of a shared directory.
	Untouched int `json:"untouched"`
}

// ReconcileOptions controls apply behavior.
type ReconcileOptions struct {
	// DryRun replaces every delete and upload with a reported no-op.
	DryRun bool

	// OnAction, when set, is called before each action is applied.
	// executed is false in dry-run mode.
	OnAction func(action Action, executed bool)

	// OnDone, when set, is called after each action completes.
	OnDone func(action Action)
}
