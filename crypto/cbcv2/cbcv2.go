// Copyright (c) 2024 threecrypt authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package cbcv2 implements the legacy 3CRYPT_CBC_V2 file envelope:
// SSPKDF for key stretching, Threefish-CBC with ISO/IEC 7816-4 padding
// for confidentiality, and a trailing Skein-MAC for authenticity. It
// predates Dragonfly_V1's Catena-backed memory-hard hashing and is
// kept for reading and re-encrypting older archives.
package cbcv2

import (
	"crypto/subtle"
	"encoding/binary"
	"errors"

	"github.com/threecrypt/threecrypt/crypto/cbc"
	"github.com/threecrypt/threecrypt/crypto/csprng"
	"github.com/threecrypt/threecrypt/crypto/skein"
	"github.com/threecrypt/threecrypt/crypto/sspkdf"
	"github.com/threecrypt/threecrypt/crypto/threefish"
	"github.com/threecrypt/threecrypt/internal/wipe"
)

// ID is the literal identifier every CBC_V2 file opens with, padded
// out to 14 bytes by its trailing NUL the way the original's C string
// literal was sized by sizeof.
const ID = "3CRYPT_CBC_V2\x00"

const (
	idBytes     = 14
	tweakBytes  = 16
	saltBytes   = sspkdf.SaltBytes
	ivBytes     = threefish.BlockBytes
	headerBytes = idBytes + 8 + tweakBytes + saltBytes + ivBytes + 4 + 4 // 126
	macBytes    = skein.BlockBytes

	offsetTotalSize = idBytes
	offsetTweak     = offsetTotalSize + 8
	offsetSalt      = offsetTweak + tweakBytes
	offsetIV        = offsetSalt + saltBytes
	offsetNumIter   = offsetIV + ivBytes
	offsetNumConcat = offsetNumIter + 4
)

var (
	// ErrMalformedHeader is returned when the 14-byte ID does not
	// match or the recorded total size disagrees with the actual
	// buffer length.
	ErrMalformedHeader = errors.New("cbcv2: malformed or foreign header")
	// ErrAuthenticationFailed is returned when the trailing MAC does
	// not verify.
	ErrAuthenticationFailed = errors.New("cbcv2: authentication failed; wrong password, corrupt, or tampered")
)

// Options carries the SSPKDF cost parameters that make it into the
// CBC_V2 header, plus an optional progress logger. A nil Logf is a
// no-op.
type Options struct {
	NumIter, NumConcat uint32
	Logf               func(string, ...any)
}

func (o Options) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// OutputSize returns the exact file size Encrypt produces for a
// plaintext of the given length: the CBC-padded ciphertext size plus
// the fixed header and trailing MAC.
func OutputSize(plaintextLen int) int64 {
	return int64(cbc.PaddedCiphertextSize(plaintextLen)) + headerBytes + macBytes
}

// Header is the plaintext portion of a CBC_V2 file, the fields the
// original's dump_header command printed without a password.
type Header struct {
	TotalSize          uint64
	Tweak              [tweakBytes]byte
	Salt               [saltBytes]byte
	IV                 [ivBytes]byte
	NumIter, NumConcat uint32
	MAC                [macBytes]byte
}

// ReadHeader parses the plaintext header and trailing MAC out of file
// without deriving a key or touching the ciphertext.
func ReadHeader(file []byte) (*Header, error) {
	minimumSize := headerBytes + threefish.BlockBytes + macBytes
	if len(file) < minimumSize {
		return nil, ErrMalformedHeader
	}
	if string(file[:idBytes]) != ID {
		return nil, ErrMalformedHeader
	}
	h := &Header{
		TotalSize: binary.LittleEndian.Uint64(file[offsetTotalSize : offsetTotalSize+8]),
		NumIter:   binary.LittleEndian.Uint32(file[offsetNumIter : offsetNumIter+4]),
		NumConcat: binary.LittleEndian.Uint32(file[offsetNumConcat : offsetNumConcat+4]),
	}
	copy(h.Tweak[:], file[offsetTweak:offsetTweak+tweakBytes])
	copy(h.Salt[:], file[offsetSalt:offsetSalt+saltBytes])
	copy(h.IV[:], file[offsetIV:offsetIV+ivBytes])
	copy(h.MAC[:], file[len(file)-macBytes:])
	return h, nil
}

// Encrypt builds a complete CBC_V2 file for plaintext under password
// and params, drawing its tweak/salt/iv from rng. password is zeroed
// as soon as SSPKDF has derived the key from it.
func Encrypt(plaintext, password []byte, params Options, rng *csprng.Generator) ([]byte, error) {
	total := OutputSize(len(plaintext))
	out := make([]byte, total)

	var tweak [tweakBytes]byte
	var salt [saltBytes]byte
	var iv [ivBytes]byte
	params.logf("cbcv2: deriving key with num_iter=%d num_concat=%d", params.NumIter, params.NumConcat)
	rng.Get(tweak[:])
	rng.Get(salt[:])
	rng.Get(iv[:])

	copy(out[:idBytes], ID)
	binary.LittleEndian.PutUint64(out[offsetTotalSize:offsetTotalSize+8], uint64(total))
	copy(out[offsetTweak:offsetTweak+tweakBytes], tweak[:])
	copy(out[offsetSalt:offsetSalt+saltBytes], salt[:])
	copy(out[offsetIV:offsetIV+ivBytes], iv[:])
	binary.LittleEndian.PutUint32(out[offsetNumIter:offsetNumIter+4], params.NumIter)
	binary.LittleEndian.PutUint32(out[offsetNumConcat:offsetNumConcat+4], params.NumConcat)

	var derivedKey [sspkdf.OutputBytes]byte
	sspkdf.Derive(&derivedKey, password, &salt, params.NumIter, params.NumConcat)
	wipe.Bytes(password)

	key := keyFromBytes(derivedKey[:])
	twk := tweakFromBytes(tweak[:])
	cipher := threefish.NewStored(&key, &twk)

	ciphertext := cbc.Encrypt(cipher, &iv, plaintext)
	copy(out[headerBytes:headerBytes+len(ciphertext)], ciphertext)

	skein.MAC(out[len(out)-macBytes:], out[:len(out)-macBytes], derivedKey[:])

	wipe.Bytes(derivedKey[:])
	wipe.Words(key[:])
	wipe.Words(twk[:])

	return out, nil
}

// Decrypt verifies and recovers the plaintext from a complete CBC_V2
// file buffer. logf receives progress messages and may be nil.
func Decrypt(file, password []byte, logf func(string, ...any)) ([]byte, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	minimumSize := headerBytes + threefish.BlockBytes + macBytes
	if len(file) < minimumSize {
		return nil, ErrMalformedHeader
	}
	if string(file[:idBytes]) != ID {
		return nil, ErrMalformedHeader
	}
	totalSize := binary.LittleEndian.Uint64(file[offsetTotalSize : offsetTotalSize+8])
	if totalSize != uint64(len(file)) {
		return nil, ErrMalformedHeader
	}

	var tweak [tweakBytes]byte
	copy(tweak[:], file[offsetTweak:offsetTweak+tweakBytes])
	var salt [saltBytes]byte
	copy(salt[:], file[offsetSalt:offsetSalt+saltBytes])
	var iv [ivBytes]byte
	copy(iv[:], file[offsetIV:offsetIV+ivBytes])
	numIter := binary.LittleEndian.Uint32(file[offsetNumIter : offsetNumIter+4])
	numConcat := binary.LittleEndian.Uint32(file[offsetNumConcat : offsetNumConcat+4])

	logf("cbcv2: deriving key with num_iter=%d num_concat=%d", numIter, numConcat)
	var derivedKey [sspkdf.OutputBytes]byte
	sspkdf.Derive(&derivedKey, password, &salt, numIter, numConcat)
	wipe.Bytes(password)

	var gotMAC [macBytes]byte
	skein.MAC(gotMAC[:], file[:len(file)-macBytes], derivedKey[:])
	if subtle.ConstantTimeCompare(gotMAC[:], file[len(file)-macBytes:]) != 1 {
		wipe.Bytes(derivedKey[:])
		return nil, ErrAuthenticationFailed
	}
	logf("cbcv2: authentication succeeded, decrypting payload")

	key := keyFromBytes(derivedKey[:])
	twk := tweakFromBytes(tweak[:])
	cipher := threefish.NewStored(&key, &twk)

	ciphertext := file[headerBytes : len(file)-macBytes]
	plaintext, err := cbc.Decrypt(cipher, &iv, ciphertext)

	wipe.Bytes(derivedKey[:])
	wipe.Words(key[:])
	wipe.Words(twk[:])

	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

func keyFromBytes(b []byte) threefish.Key {
	var k threefish.Key
	for i := 0; i < threefish.BlockWords; i++ {
		k[i] = binary.LittleEndian.Uint64(b[i*8 : i*8+8])
	}
	return k
}

func tweakFromBytes(b []byte) threefish.Tweak {
	var t threefish.Tweak
	t[0] = binary.LittleEndian.Uint64(b[0:8])
	t[1] = binary.LittleEndian.Uint64(b[8:16])
	return t
}
