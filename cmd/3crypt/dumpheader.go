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

package main

import (
	"flag"
	"fmt"

	"github.com/threecrypt/threecrypt/crypto/cbcv2"
	"github.com/threecrypt/threecrypt/crypto/dragonfly"
	"github.com/threecrypt/threecrypt/internal/osmap"
)

// runDumpHeader prints a file's plaintext header fields and trailing
// MAC without requiring a password, the way the original's
// determine_crypto_method + dump_header pair let an operator inspect
// an archive's cost parameters before attempting to open it.
func runDumpHeader(args []string) {
	fs := flag.NewFlagSet("dump-header", flag.ExitOnError)
	inPath := fs.String("in", "", "file to inspect")
	fs.Parse(args)

	if *inPath == "" {
		exitf("dump-header: -in is required\n")
	}

	in, err := osmap.Open(*inPath, true)
	if err != nil {
		exitf("dump-header: opening %s: %v\n", *inPath, err)
	}
	defer in.Close()

	switch detectMethod(in.Bytes()) {
	case methodDragonfly:
		h, err := dragonfly.ReadHeader(in.Bytes())
		if err != nil {
			exitf("dump-header: %v\n", err)
		}
		fmt.Printf("envelope:    dragonfly\n")
		fmt.Printf("total size:  %d\n", h.TotalSize)
		fmt.Printf("g_low:       %d\n", h.GLow)
		fmt.Printf("g_high:      %d\n", h.GHigh)
		fmt.Printf("lambda:      %d\n", h.Lambda)
		fmt.Printf("use_phi:     %t\n", h.UsePhi)
		fmt.Printf("tweak:       %x\n", h.Tweak)
		fmt.Printf("salt:        %x\n", h.Salt)
		fmt.Printf("nonce:       %x\n", h.Nonce)
		fmt.Printf("mac:         %x\n", h.MAC)
	case methodCBCV2:
		h, err := cbcv2.ReadHeader(in.Bytes())
		if err != nil {
			exitf("dump-header: %v\n", err)
		}
		fmt.Printf("envelope:    cbcv2\n")
		fmt.Printf("total size:  %d\n", h.TotalSize)
		fmt.Printf("num_iter:    %d\n", h.NumIter)
		fmt.Printf("num_concat:  %d\n", h.NumConcat)
		fmt.Printf("tweak:       %x\n", h.Tweak)
		fmt.Printf("salt:        %x\n", h.Salt)
		fmt.Printf("iv:          %x\n", h.IV)
		fmt.Printf("mac:         %x\n", h.MAC)
	default:
		exitf("dump-header: %v\n", errUnrecognizedEnvelope)
	}
}
