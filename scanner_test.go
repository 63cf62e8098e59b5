package fbcas

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func casRecordBytes(sha1 [20]byte, payload []byte) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xfa, 0xce, 0x0f, 0xf0})
	b.Write(sha1[:])
	binary.Write(&b, binary.LittleEndian, int32(len(payload)))
	b.Write([]byte{0, 0, 0, 0}) // pad
	b.Write(payload)
	return b.Bytes()
}

func TestCASScannerSequentialDump(t *testing.T) {
	var sha1a, sha1b [20]byte
	sha1a[0] = 1
	sha1b[0] = 2

	var buf bytes.Buffer
	buf.Write(casRecordBytes(sha1a, []byte("hello")))
	buf.Write(casRecordBytes(sha1b, []byte("worldly")))

	data := buf.Bytes()
	sc := NewCASScanner(bytes.NewReader(data), int64(len(data)))

	rec1, p1, err := sc.Next()
	if err != nil {
		t.Fatalf("Next #1: %v", err)
	}
	if rec1.SHA1 != sha1a || string(p1) != "hello" {
		t.Fatalf("rec1 = %+v payload=%q", rec1, p1)
	}

	rec2, p2, err := sc.Next()
	if err != nil {
		t.Fatalf("Next #2: %v", err)
	}
	if rec2.SHA1 != sha1b || string(p2) != "worldly" {
		t.Fatalf("rec2 = %+v payload=%q", rec2, p2)
	}

	if _, _, err := sc.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}
