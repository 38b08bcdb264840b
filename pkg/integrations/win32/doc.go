// Package win32 enumerates top-level windows and reads their titles through
// user32 (EnumWindows, IsWindowVisible, GetWindowThreadProcessId,
// GetWindowTextW). It only builds on Windows.
package win32
