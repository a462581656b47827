// Package version carries the build version, set at link time with
// -ldflags "-X dbf-converter/internal/version.Value=v1.2.3".
package version

var Value = "dev"
