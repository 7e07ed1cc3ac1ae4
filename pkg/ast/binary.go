package ast

import (
	"bytes"
	"encoding/binary"
	"encoding/json"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

const frameVersion = 1

// frame layout: 4-byte magic, 1-byte version, 8-byte xxhash64 of the
// uncompressed payload, snappy block.
const frameHeaderLen = 4 + 1 + 8

// EncodeFrame wraps payload in a checksummed, compressed frame.
func EncodeFrame(magic string, payload []byte) []byte {
	if len(magic) != 4 {
		panic("frame magic must be 4 bytes")
	}
	out := make([]byte, frameHeaderLen, frameHeaderLen+snappy.MaxEncodedLen(len(payload)))
	copy(out, magic)
	out[4] = frameVersion
	binary.BigEndian.PutUint64(out[5:], xxhash.Sum64(payload))
	return append(out, snappy.Encode(nil, payload)...)
}

// DecodeFrame verifies a frame written by EncodeFrame and returns its
// payload.
func DecodeFrame(magic string, data []byte) ([]byte, error) {
	if len(data) < frameHeaderLen {
		return nil, errors.New("frame too short")
	}
	if !bytes.Equal(data[:4], []byte(magic)) {
		return nil, errors.Errorf("bad frame magic %q, expected %q", data[:4], magic)
	}
	if data[4] != frameVersion {
		return nil, errors.Errorf("unsupported frame version %d", data[4])
	}
	payload, err := snappy.Decode(nil, data[frameHeaderLen:])
	if err != nil {
		return nil, errors.Wrap(err, "decompressing frame")
	}
	if sum := xxhash.Sum64(payload); sum != binary.BigEndian.Uint64(data[5:]) {
		return nil, errors.New("frame checksum mismatch")
	}
	return payload, nil
}

const astMagic = "FLXA"

// MarshalBinary encodes a package for transfer between processes.
func MarshalBinary(pkg *Package) ([]byte, error) {
	payload, err := json.Marshal(pkg)
	if err != nil {
		return nil, errors.Wrap(err, "encoding package")
	}
	return EncodeFrame(astMagic, payload), nil
}

// UnmarshalBinary decodes a package written by MarshalBinary.
func UnmarshalBinary(data []byte) (*Package, error) {
	payload, err := DecodeFrame(astMagic, data)
	if err != nil {
		return nil, err
	}
	pkg, err := UnmarshalPackage(payload)
	if err != nil {
		return nil, errors.Wrap(err, "decoding package")
	}
	return pkg, nil
}
