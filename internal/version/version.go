// Package version holds the build version reported by the server.
package version

// Version is overridable at build time with
// -ldflags "-X podscribe/internal/version.Version=x.y.z".
var Version = "0.1.0"
