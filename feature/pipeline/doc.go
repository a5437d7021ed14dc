// Package pipeline drives a sync run through its phases.
//
// An Updater fetches the declarative inputs, resolves keys, rewrites the par
// file, stages every upload locally and reconciles the remote store, moving
// strictly forward through a fixed sequence of phases:
//
//	Idle → Starting → DownloadingMappingFile → DownloadingModList →
//	DownloadingParFile → ProcessingDownloadedData → DownloadingKeyFiles →
//	DownloadingExtraFiles → ConnectingToRemote → RemovingStaleKeys →
//	UploadingNewKeys → UploadingExtraFiles → RemovingStaleParFile →
//	UploadingNewParFile → Done
//
// Phases may be skipped (the mapping download is skipped by the probe
// strategy) but never repeated. On failure the phase stays where it was.
//
// Progress is published through a Reporter: a leveled transcript ("[Debug] "
// and "[ERROR] " prefixes) mirrored to zap and forwarded to an optional
// Observer. The Runner hosts at most one run at a time.
package pipeline
