package migration

const (
	wireVarint     = 0
	wireFixed64    = 1
	wireBytes      = 2
	wireStartGroup = 3
	wireEndGroup   = 4
	wireFixed32    = 5

	maxVarintLen = 10
	// maxGroupDepth matches the protobuf runtime's default recursion limit.
	maxGroupDepth = 100
)

type reader struct {
	buf []byte
	pos int
}

func (r *reader) done() bool {
	return r.pos >= len(r.buf)
}

func (r *reader) varint() (uint64, error) {
	var v uint64
	for i := 0; i < maxVarintLen; i++ {
		if r.pos >= len(r.buf) {
			return 0, ErrMalformedPayload
		}
		b := r.buf[r.pos]
		r.pos++
		if i == maxVarintLen-1 && b > 1 {
			return 0, ErrMalformedPayload
		}
		v |= uint64(b&0x7f) << (7 * i)
		if b < 0x80 {
			return v, nil
		}
	}
	return 0, ErrMalformedPayload
}

func (r *reader) tag() (field uint64, wire int, err error) {
	t, err := r.varint()
	if err != nil {
		return 0, 0, err
	}
	return t >> 3, int(t & 7), nil
}

func (r *reader) bytes() ([]byte, error) {
	n, err := r.varint()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(r.buf)-r.pos) {
		return nil, ErrMalformedPayload
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

func (r *reader) advance(n int) error {
	if n > len(r.buf)-r.pos {
		return ErrMalformedPayload
	}
	r.pos += n
	return nil
}

// skip discards the value of a field whose tag has already been read.
func (r *reader) skip(wire int) error {
	switch wire {
	case wireVarint:
		_, err := r.varint()
		return err
	case wireFixed64:
		return r.advance(8)
	case wireBytes:
		_, err := r.bytes()
		return err
	case wireStartGroup:
		return r.skipGroup()
	case wireEndGroup:
		return nil
	case wireFixed32:
		return r.advance(4)
	default:
		return ErrMalformedPayload
	}
}

// skipGroup walks to the end group tag matching an already read start group
// tag. Nesting is tracked with a counter so hostile input cannot grow the stack.
func (r *reader) skipGroup() error {
	for depth := 1; depth > 0; {
		_, w, err := r.tag()
		if err != nil {
			return err
		}

		switch w {
		case wireStartGroup:
			depth++
			if depth > maxGroupDepth {
				return ErrMalformedPayload
			}
		case wireEndGroup:
			depth--
		default:
			if err := r.skip(w); err != nil {
				return err
			}
		}
	}
	return nil
}
