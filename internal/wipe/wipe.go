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

// Package wipe provides best-effort overwriting of secret buffers so that
// key material, passwords, and derived keys do not linger in memory past
// the lifetime of the scope that owns them.
package wipe

import "golang.org/x/exp/constraints"

// Bytes overwrites every byte of buf with zero. The loop form (rather than
// a single bulk clear) defeats some compilers' tendency to elide a final
// dead store to a slice that is never read again; Go's compiler does not
// currently perform that optimization, but the explicit form documents the
// intent at every call site that handles secret material.
func Bytes(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

// Words overwrites every element of a slice of unsigned integer words
// (u64_t key/tweak buffers, Threefish state, etc.) with zero.
func Words[T constraints.Unsigned](buf []T) {
	for i := range buf {
		buf[i] = 0
	}
}
