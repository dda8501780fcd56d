// Package layout decodes the fixed-size on-chain accounts of the supported
// venues. Offsets are exported where pool discovery filters on them.
package layout

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ErrShortData is returned when an account is smaller than its layout.
var ErrShortData = errors.New("account data too short")

// ErrDiscriminator is returned when an Anchor account has the wrong type tag.
var ErrDiscriminator = errors.New("account discriminator mismatch")

// reader pulls little-endian fields out of a fixed layout. The first error
// sticks; callers check err once after reading every field.
type reader struct {
	data []byte
	err  error
}

func newReader(data []byte, size int, name string) (*reader, error) {
	if len(data) < size {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortData, name, size, len(data))
	}
	return &reader{data: data}, nil
}

func (r *reader) at(off int) *bin.Decoder {
	return bin.NewBorshDecoder(r.data[off:])
}

func (r *reader) keep(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

func (r *reader) u8(off int) uint8 {
	v, err := r.at(off).ReadUint8()
	r.keep(err)
	return v
}

func (r *reader) u16(off int) uint16 {
	v, err := r.at(off).ReadUint16(binary.LittleEndian)
	r.keep(err)
	return v
}

func (r *reader) u32(off int) uint32 {
	v, err := r.at(off).ReadUint32(binary.LittleEndian)
	r.keep(err)
	return v
}

func (r *reader) i32(off int) int32 {
	v, err := r.at(off).ReadInt32(binary.LittleEndian)
	r.keep(err)
	return v
}

func (r *reader) u64(off int) uint64 {
	v, err := r.at(off).ReadUint64(binary.LittleEndian)
	r.keep(err)
	return v
}

func (r *reader) i64(off int) int64 {
	v, err := r.at(off).ReadInt64(binary.LittleEndian)
	r.keep(err)
	return v
}

// u128 reads an unsigned 128-bit integer as two little-endian words.
func (r *reader) u128(off int) *big.Int {
	lo := r.u64(off)
	hi := r.u64(off + 8)
	v := new(big.Int).SetUint64(hi)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(lo))
}

func (r *reader) pubkey(off int) solana.PublicKey {
	b, err := r.at(off).ReadNBytes(32)
	r.keep(err)
	if err != nil {
		return solana.PublicKey{}
	}
	return solana.PublicKeyFromBytes(b)
}

// AccountDiscriminator is the Anchor type tag of an account struct.
func AccountDiscriminator(name string) [8]byte {
	return sighash("account:" + name)
}

// InstructionDiscriminator is the Anchor tag of a global instruction.
func InstructionDiscriminator(name string) [8]byte {
	return sighash("global:" + name)
}

func sighash(preimage string) [8]byte {
	sum := sha256.Sum256([]byte(preimage))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

func checkDiscriminator(data []byte, name string) error {
	want := AccountDiscriminator(name)
	if len(data) < 8 || [8]byte(data[:8]) != want {
		return fmt.Errorf("%w: expected %s", ErrDiscriminator, name)
	}
	return nil
}
