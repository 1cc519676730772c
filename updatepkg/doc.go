// Package updatepkg identifies vendor updater executables by a 64-bit
// content fingerprint and extracts their embedded, obfuscated firmware
// images. Each PackType has its own manifest layout (string-table offsets,
// number and stride of firmware sub-sections); see the PackType constants
// and their decode functions for variant-specific grounding notes.
package updatepkg
