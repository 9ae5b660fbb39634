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

// Package skein implements Skein-512: a hash, keyed hash (MAC), and the
// generic-length output that everything from the CSPRNG to Catena to
// the file envelopes is built on. It is a thin assembly of ubi.Chain
// calls in the order the Skein configuration string, optional key, and
// message are supposed to be folded in.
package skein

import (
	"encoding/binary"

	"github.com/threecrypt/threecrypt/crypto/ubi"
)

const (
	// BlockBytes is the native Skein-512 output and chaining-value width.
	BlockBytes = ubi.BlockBytes
	blockWords = ubi.BlockWords
)

// nativeChain512 is the chaining value produced by chain_config for a
// 512-bit output length, pinned here so hash_native (and any other
// caller that only ever wants 64 bytes of output) can skip running the
// configuration block at all.
var nativeChain512 = mustDecodeChain(
	"ce519c74ffad034903df469739de950dce9bc7274193d18fb12c35ff2956259a" +
		"b0a76cdf9925b65df4c3d5a94c39beea23b5751ac712119933cc0f660ba418ae",
)

// mustDecodeChain turns the hex-less, spec-literal byte dump embedded
// above into 8 little-endian chaining words. It is only ever called
// once, from a package-level var initializer.
func mustDecodeChain(hex string) [blockWords]uint64 {
	raw := decodeHexConcat(hex)
	var words [blockWords]uint64
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(raw[i*8 : i*8+8])
	}
	return words
}

func decodeHexConcat(s string) []byte {
	if len(s)%2 != 0 {
		panic("skein: odd-length constant")
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		hi := hexNibble(s[i*2])
		lo := hexNibble(s[i*2+1])
		out[i] = hi<<4 | lo
	}
	return out
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		panic("skein: bad hex digit")
	}
}

// buildConfig lays out the 32-byte Skein configuration string:
// "SHA3" || version(1, LE16) || reserved(2) || output-length-in-bits(LE64) || reserved(16).
func buildConfig(outputBits uint64) []byte {
	cfg := make([]byte, 32)
	copy(cfg[0:4], "SHA3")
	binary.LittleEndian.PutUint16(cfg[4:6], 1)
	binary.LittleEndian.PutUint64(cfg[8:16], outputBits)
	return cfg
}

// configChain runs chain_config for the given output length and
// returns the resulting chaining value, starting from an all-zero
// initial state as every Skein computation that is not hash_native
// must.
func configChain(outputBits uint64) [blockWords]uint64 {
	var chain [blockWords]uint64
	ubi.Chain(&chain, buildConfig(outputBits), ubi.TypeCfg)
	return chain
}

// Hash computes the generic-length Skein-512 hash of msg into out.
func Hash(out []byte, msg []byte) {
	chain := configChain(uint64(len(out)) * 8)
	ubi.Chain(&chain, msg, ubi.TypeMsg)
	ubi.Output(chain, out)
}

// HashNative computes the fixed 64-byte Skein-512 hash of msg,
// skipping chain_config by starting from the precomputed 512-bit
// configuration chaining value.
func HashNative(out *[BlockBytes]byte, msg []byte) {
	chain := nativeChain512
	ubi.Chain(&chain, msg, ubi.TypeMsg)
	ubi.NativeOutput(chain, out)
}

// MAC computes the generic-length keyed Skein-512 MAC of msg under key
// into out: the key is chained first under Type=Key (skipped entirely
// when key is empty, reducing MAC to Hash), then the configuration
// string, then the message, then the output transform.
func MAC(out []byte, msg []byte, key []byte) {
	var chain [blockWords]uint64
	if len(key) > 0 {
		ubi.Chain(&chain, key, ubi.TypeKey)
	}
	ubi.Chain(&chain, buildConfig(uint64(len(out))*8), ubi.TypeCfg)
	ubi.Chain(&chain, msg, ubi.TypeMsg)
	ubi.Output(chain, out)
}
