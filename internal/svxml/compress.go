package svxml

import (
	"bufio"
	"compress/gzip"
	"io"
)

// Session files are normally gzip-compressed XML, but the application also
// accepts plain XML, so the reader sniffs the gzip magic bytes instead of
// trusting the file extension.

var gzipMagic = []byte{0x1f, 0x8b}

// sniffReader returns a reader positioned at the XML content, transparently
// decompressing gzip input.
func sniffReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err != nil {
		// Too short to even hold magic bytes; hand the buffered reader
		// to the XML decoder and let it report the real problem.
		return br, nil
	}
	if head[0] != gzipMagic[0] || head[1] != gzipMagic[1] {
		return br, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, err
	}
	return zr, nil
}
