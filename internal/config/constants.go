package config

import "time"

// Application constants
const (
	AppName    = "predmaint"
	AppVersion = "1.0.0"

	// Model defaults
	DefaultTrees     = 100
	DefaultSeed      = 42
	DefaultTestRatio = 0.2

	// Presentation autoplay: a nominal 3s tick that advances once more than
	// 2.5s have passed since the last advance.
	DefaultAutoplayInterval = 3 * time.Second
	DefaultAdvanceThreshold = 2500 * time.Millisecond

	// Uploads
	DefaultMaxUploadBytes = 32 << 20 // 32MB

	// Rate Limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	DefaultLogFile = "logs/app.log"
)
