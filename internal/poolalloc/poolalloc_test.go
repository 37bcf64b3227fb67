package poolalloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quill-lang/quillc/internal/poolalloc"
	"github.com/quill-lang/quillc/internal/token"
)

func TestGetNodeReusesFreedNodes(t *testing.T) {
	p := poolalloc.New()

	n1 := p.GetNode()
	n1.Tok = token.Token{Kind: token.ID}
	p.Put(n1)

	issued, reused, free := p.Stats()
	assert.Equal(t, 1, issued)
	assert.Equal(t, 0, reused)
	assert.Equal(t, 1, free)

	n2 := p.GetNode()
	assert.Equal(t, token.EOF, n2.Kind(), "reused node must be zeroed")

	issued, reused, free = p.Stats()
	assert.Equal(t, 1, issued)
	assert.Equal(t, 1, reused)
	assert.Equal(t, 0, free)
}

func TestPutRecyclesWholeSubtree(t *testing.T) {
	p := poolalloc.New()
	root := p.GetNode()
	root.Tok = token.Token{Kind: token.SEQ}
	child := p.GetNode()
	child.Tok = token.Token{Kind: token.INT}
	root.Add(child)

	p.Put(root)
	_, _, free := p.Stats()
	assert.Equal(t, 2, free)
}
