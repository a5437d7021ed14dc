package pipeline

// Phase is a step of a sync run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStarting
	PhaseDownloadingMappingFile
	PhaseDownloadingModList
	PhaseDownloadingParFile
	PhaseProcessingDownloadedData
	PhaseDownloadingKeyFiles
	PhaseDownloadingExtraFiles
	PhaseConnectingToRemote
	PhaseRemovingStaleKeys
	PhaseUploadingNewKeys
	PhaseUploadingExtraFiles
	PhaseRemovingStaleParFile
	PhaseUploadingNewParFile
	PhaseDone
)

var phaseNames = map[Phase]string{
	PhaseIdle:                     "Idle",
	PhaseStarting:                 "Starting",
	PhaseDownloadingMappingFile:   "Downloading Mapping File",
	PhaseDownloadingModList:       "Downloading Mod List",
	PhaseDownloadingParFile:       "Downloading Parameters File",
	PhaseProcessingDownloadedData: "Processing Downloaded Data",
	PhaseDownloadingKeyFiles:      "Downloading Key Files",
	PhaseDownloadingExtraFiles:    "Downloading Extra Files",
	PhaseConnectingToRemote:       "Connecting to Remote Server",
	PhaseRemovingStaleKeys:        "Removing Stale Keys",
	PhaseUploadingNewKeys:         "Uploading New Keys",
	PhaseUploadingExtraFiles:      "Uploading Extra Files",
	PhaseRemovingStaleParFile:     "Removing Stale Parameters File",
	PhaseUploadingNewParFile:      "Uploading New Parameters File",
	PhaseDone:                     "Done",
}

// String returns the display name of the phase.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "Unknown"
}

// Mutating reports whether the remote store may have been changed once
// this phase has started.
func (p Phase) Mutating() bool {
	return p >= PhaseRemovingStaleKeys && p < PhaseDone
}

// MarshalText renders the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
