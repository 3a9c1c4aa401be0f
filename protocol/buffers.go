package protocol

// OutputBuffer provides an abstraction for writing outgoing payload data
type OutputBuffer interface {
	// Output writes data to the buffer
	Output(data []byte)
}

// ScratchOutput implements OutputBuffer using a growing byte slice
type ScratchOutput struct {
	buf []byte
}

// NewScratchOutput creates a new ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{buf: make([]byte, 0, 64)}
}

func (s *ScratchOutput) Output(data []byte) {
	s.buf = append(s.buf, data...)
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf
}
