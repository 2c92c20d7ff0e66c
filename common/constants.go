package common

var (
	// Version is stamped at build time via -ldflags.
	Version = "v0.0.0"
)
