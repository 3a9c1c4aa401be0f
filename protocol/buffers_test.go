package protocol

import (
	"bytes"
	"testing"
)

func TestScratchOutput(t *testing.T) {
	scratch := NewScratchOutput()
	if len(scratch.Result()) != 0 {
		t.Errorf("Expected empty result, got %v", scratch.Result())
	}

	scratch.Output([]byte{1, 2, 3})
	scratch.Output([]byte{4, 5})

	if !bytes.Equal(scratch.Result(), []byte{1, 2, 3, 4, 5}) {
		t.Errorf("Expected [1 2 3 4 5], got %v", scratch.Result())
	}
}
