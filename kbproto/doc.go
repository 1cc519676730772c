// Package kbproto defines the capability contract shared by every keyboard
// protocol front-end (POK3R, CYKB, Holtek ISP) and the status codes those
// front-ends return.
//
// Concrete protocol implementations live in sibling packages (pok3rproto,
// cykbproto, holtekisp); this package only carries the interface, the status
// sum type, and the small set of types the CLI needs regardless of which
// protocol a device speaks.
package kbproto
