package client

import (
	"io"
	"math/rand"
)

// PayloadBufSize is the size of the random buffer each backend cycles
// through to produce object bodies. Matches what the target would see from
// real, incompressible-ish data without paying for fresh randomness per
// object.
const PayloadBufSize = 65536

// RandomBuf returns a PayloadBufSize buffer filled from rng.
func RandomBuf(rng *rand.Rand) []byte {
	buf := make([]byte, PayloadBufSize)
	rng.Read(buf)
	return buf
}

// Payload is an io.Reader producing n bytes by cycling buf.
func Payload(buf []byte, n uint64) io.Reader {
	return &payloadReader{buf: buf, left: n}
}

type payloadReader struct {
	buf  []byte
	off  int
	left uint64
}

func (p *payloadReader) Read(dst []byte) (int, error) {
	if p.left == 0 {
		return 0, io.EOF
	}
	if uint64(len(dst)) > p.left {
		dst = dst[:p.left]
	}
	n := copy(dst, p.buf[p.off:])
	p.off = (p.off + n) % len(p.buf)
	p.left -= uint64(n)
	return n, nil
}
