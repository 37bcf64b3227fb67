// Package source defines the opaque source handle the core consumes.
// The package loader that actually reads the filesystem is an external
// collaborator, out of scope for this repository; the core never reads
// the filesystem itself.
package source

// Source is (file name or synthetic tag, full byte buffer, length).
type Source struct {
	Name  string
	Bytes []byte
}

// New wraps raw bytes under a name (a real file name, or a synthetic tag
// such as "<repl>" or "<bootstrap>").
func New(name string, data []byte) Source {
	return Source{Name: name, Bytes: data}
}

// Len returns the length of the source buffer.
func (s Source) Len() int { return len(s.Bytes) }
