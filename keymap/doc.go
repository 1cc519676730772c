// Package keymap models a keyboard's visual layout, its keycode catalog,
// and the matrix <-> layer storage format the QMK command extension
// (package qmkext) reads and writes on-device. The embedded JSON
// layout-name database is out of scope here: LoadLayout accepts an
// already-decoded layout document, leaving the lookup-by-name step to
// the caller.
package keymap
