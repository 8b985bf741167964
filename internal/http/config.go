package http

import (
	"github.com/ponmiso/tsundoku-server/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces a long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	BookWorkflow BookWorkflow
	BookLookup   BookLookup
	Database     *database.Database

	// Cover serving
	CoverCache    CoverCache
	ImageResolver ImageResolver

	// Photo staging
	ImageStager ImageStager

	// Widget snapshot
	SnapshotReader SnapshotReader

	// Application info
	Version string
}
