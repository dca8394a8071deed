package seqstore

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// Record keys sort by (collection, name, value) under bytewise comparison.
// Each string part is length prefixed, so the key prefix of one name never
// matches the keys of another name. The value is big endian with the sign
// bit flipped, so negative values sort before positive ones.

var ErrInvalidRecordKey = errors.New("invalid record key")

func appendKeyPart(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

func RecordKeyPrefix(collection, name string) []byte {
	key := appendKeyPart(nil, collection)
	return appendKeyPart(key, name)
}

func RecordKey(collection, name string, value int64) []byte {
	key := RecordKeyPrefix(collection, name)
	return binary.BigEndian.AppendUint64(key, uint64(value)^(1<<63))
}

func ParseRecordKey(key []byte) (collection, name string, value int64, err error) {
	rest := key
	if collection, rest, err = readKeyPart(rest); err != nil {
		return
	}
	if name, rest, err = readKeyPart(rest); err != nil {
		return
	}
	if len(rest) != 8 {
		return "", "", 0, fmt.Errorf("%w: %d trailing bytes", ErrInvalidRecordKey, len(rest))
	}
	value = int64(binary.BigEndian.Uint64(rest) ^ (1 << 63))
	return
}

func readKeyPart(b []byte) (string, []byte, error) {
	n, size := binary.Uvarint(b)
	if size <= 0 || uint64(len(b)-size) < n {
		return "", nil, ErrInvalidRecordKey
	}
	return string(b[size : size+int(n)]), b[size+int(n):], nil
}

// EncodeRecordId renders a record key as a printable record id.
func EncodeRecordId(key []byte) string {
	return hex.EncodeToString(key)
}

func DecodeRecordId(recordId string) ([]byte, error) {
	key, err := hex.DecodeString(recordId)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecordKey, err)
	}
	return key, nil
}
