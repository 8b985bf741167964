package config

// Default paths and endpoints
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./tsundoku.db"

	// DefaultImagesDir is where promoted cover photos live
	DefaultImagesDir = "./data/images"

	// DefaultTempDir is the staging area for captured photos before commit
	DefaultTempDir = "./data/tmp"

	// DefaultCoversDir is the cache directory for downloaded remote covers
	DefaultCoversDir = "./data/covers"

	// DefaultOpenBDBaseURL is the public openBD API endpoint
	DefaultOpenBDBaseURL = "https://api.openbd.jp"
)
