// Package wasapi controls per-application audio sessions on the default
// render endpoint through the Windows Core Audio API, and owns the COM
// lifecycle it needs.
//
// COM is initialised once per thread. InitCOM locks the calling goroutine to
// its OS thread; every session call must come from that goroutine, so the
// monitor loop runs on it directly.
package wasapi
