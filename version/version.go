package version

// Version is set at build time with -ldflags "-X github.com/pb-ai/sharder/version.Version=...".
var Version = "0.0.0"
