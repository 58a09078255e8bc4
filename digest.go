package ptb

import (
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

// DigestLength is the byte length of object and transaction digests.
const DigestLength = 32

// transactionDataIntent prefixes serialized transaction data before hashing.
const transactionDataIntent = "TransactionData::"

// ObjectDigest is a base58-encoded 32-byte content hash.
type ObjectDigest string

// Bytes decodes the digest.
func (d ObjectDigest) Bytes() ([]byte, error) {
	b := base58.Decode(string(d))
	if len(b) != DigestLength {
		return nil, fmt.Errorf("ptb: invalid digest %q: decoded to %d bytes", string(d), len(b))
	}
	return b, nil
}

// String implements fmt.Stringer.
func (d ObjectDigest) String() string {
	return string(d)
}

// DigestFromBytes encodes a 32-byte hash as an ObjectDigest.
func DigestFromBytes(b []byte) ObjectDigest {
	return ObjectDigest(base58.Encode(b))
}

// TransactionDigest hashes serialized transaction data the way the chain does:
// Blake2b-256 over the type-name intent prefix followed by the BCS bytes.
func TransactionDigest(txData []byte) string {
	buf := make([]byte, 0, len(transactionDataIntent)+len(txData))
	buf = append(buf, transactionDataIntent...)
	buf = append(buf, txData...)
	h := blake2b.Sum256(buf)
	return base58.Encode(h[:])
}
