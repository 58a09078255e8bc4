package ptb

import (
	"bytes"
	"testing"
)

func TestObjectDigestBytes(t *testing.T) {
	raw := make([]byte, DigestLength)
	for i := range raw {
		raw[i] = byte(i * 7)
	}

	d := DigestFromBytes(raw)
	got, err := d.Bytes()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("Expected %x, got %x", raw, got)
	}

	if _, err := ObjectDigest("").Bytes(); err == nil {
		t.Error("Expected error for empty digest")
	}
	if _, err := DigestFromBytes(raw[:16]).Bytes(); err == nil {
		t.Error("Expected error for 16-byte digest")
	}
}

func TestTransactionDigest(t *testing.T) {
	a := TransactionDigest([]byte{0, 1, 2})
	b := TransactionDigest([]byte{0, 1, 2})
	c := TransactionDigest([]byte{0, 1, 3})

	if a != b {
		t.Errorf("Expected stable digest, got %s and %s", a, b)
	}
	if a == c {
		t.Error("Expected different digests for different data")
	}
	if _, err := ObjectDigest(a).Bytes(); err != nil {
		t.Errorf("Expected a 32-byte digest, got %v", err)
	}
}
