// Package block defines the block template the miner searches over.
//
// The template is a fixed-width binary structure: the work source sends it
// hex-encoded, the miner mutates only the nonce, timestamp and extra-nonce
// fields, and every mutation is followed by re-hashing the serialized bytes.
// The full block body (transactions, rewards) lives daemon-side; the miner
// never needs to understand it.
package block

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// DigestSize is the size in bytes of a template digest.
const DigestSize = 32

// ExtraNonceSize is the size in bytes of the extra-nonce region.
const ExtraNonceSize = 32

// TemplateSize is the serialized size in bytes of a Template.
const TemplateSize = 1 + 8 + 8 + 8 + DigestSize + KeySize + ExtraNonceSize

// Digest is the hash of a serialized template, compared big-endian
// against a difficulty target.
type Digest [DigestSize]byte

// String returns the lowercase hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Template is a candidate block as distributed by the work source.
//
// A template is immutable once broadcast to workers; each worker clones it
// and mutates only its private copy, so no field requires synchronization.
type Template struct {
	Version    uint8
	Height     uint64
	Timestamp  uint64 // milliseconds since epoch, part of the hashed payload
	Nonce      uint64
	PrevHash   Digest
	Miner      PublicKey
	ExtraNonce [ExtraNonceSize]byte
}

// Serialize returns the fixed-width big-endian encoding of the template.
func (t *Template) Serialize() []byte {
	buf := make([]byte, 0, TemplateSize)
	buf = append(buf, t.Version)
	buf = binary.BigEndian.AppendUint64(buf, t.Height)
	buf = binary.BigEndian.AppendUint64(buf, t.Timestamp)
	buf = binary.BigEndian.AppendUint64(buf, t.Nonce)
	buf = append(buf, t.PrevHash[:]...)
	buf = append(buf, t.Miner[:]...)
	buf = append(buf, t.ExtraNonce[:]...)
	return buf
}

// Deserialize parses a template from its fixed-width binary encoding.
func Deserialize(data []byte) (*Template, error) {
	if len(data) != TemplateSize {
		return nil, fmt.Errorf("invalid template length: got %d bytes, want %d", len(data), TemplateSize)
	}

	var t Template
	t.Version = data[0]
	t.Height = binary.BigEndian.Uint64(data[1:9])
	t.Timestamp = binary.BigEndian.Uint64(data[9:17])
	t.Nonce = binary.BigEndian.Uint64(data[17:25])
	copy(t.PrevHash[:], data[25:25+DigestSize])
	copy(t.Miner[:], data[25+DigestSize:25+DigestSize+KeySize])
	copy(t.ExtraNonce[:], data[25+DigestSize+KeySize:])
	return &t, nil
}

// ToHex returns the hex encoding of the serialized template, the form in
// which templates travel over the work-source connection.
func (t *Template) ToHex() string {
	return hex.EncodeToString(t.Serialize())
}

// FromHex decodes a hex-encoded template as received from the work source.
func FromHex(s string) (*Template, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid template hex: %w", err)
	}
	return Deserialize(data)
}
