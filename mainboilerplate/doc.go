// Package mainboilerplate contains shared boilerplate for this project's
// programs: configuration parsing, logging, diagnostics, and the
// configuration groups common to the linemq broker and its clients.
package mainboilerplate

// Version and BuildDate of the program, set at link time with:
//
//	-ldflags "-X go.linemq.dev/core/mainboilerplate.Version=v1.2.3 -X go.linemq.dev/core/mainboilerplate.BuildDate=2026-01-01"
var (
	Version   = "development"
	BuildDate = "unknown"
)
