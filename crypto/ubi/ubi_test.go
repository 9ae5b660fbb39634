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

package ubi

import "testing"

func TestChainDeterministic(t *testing.T) {
	msg := []byte("the quick brown fox jumps over the lazy dog")

	var a, b [BlockWords]uint64
	Chain(&a, msg, TypeMsg)
	Chain(&b, msg, TypeMsg)
	if a != b {
		t.Fatalf("Chain is not deterministic: %v vs %v", a, b)
	}
}

func TestChainSensitiveToType(t *testing.T) {
	msg := []byte("same bytes, different purpose")

	var a, b [BlockWords]uint64
	Chain(&a, msg, TypeMsg)
	Chain(&b, msg, TypeKey)
	if a == b {
		t.Fatalf("Chain output did not change with type field")
	}
}

func TestChainSensitiveToLength(t *testing.T) {
	var a, b [BlockWords]uint64
	Chain(&a, make([]byte, BlockBytes), TypeMsg)
	Chain(&b, make([]byte, BlockBytes*3), TypeMsg)
	if a == b {
		t.Fatalf("Chain output did not change with message length")
	}
}

func TestOutputDeterministicAndIndependentOfLength(t *testing.T) {
	var chain [BlockWords]uint64
	Chain(&chain, []byte("seed"), TypeMsg)

	short := make([]byte, 64)
	long := make([]byte, 128)
	Output(chain, short)
	Output(chain, long)

	for i := range short {
		if short[i] != long[i] {
			t.Fatalf("Output byte %d differs between lengths: %x vs %x", i, short, long[:64])
		}
	}
}

func TestOutputEmptyChainIsStable(t *testing.T) {
	var chain [BlockWords]uint64
	out1 := make([]byte, 32)
	out2 := make([]byte, 32)
	Output(chain, out1)
	Output(chain, out2)
	if string(out1) != string(out2) {
		t.Fatalf("Output of an all-zero chain is not stable across calls")
	}
}
