package framemux

import "io"

// Porter is the minimal interface needed for the link to the perception
// unit. It lets tests and replay run without hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}
