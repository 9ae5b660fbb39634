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
	"errors"
	"flag"

	"github.com/threecrypt/threecrypt/crypto/cbcv2"
	"github.com/threecrypt/threecrypt/crypto/dragonfly"
	"github.com/threecrypt/threecrypt/internal/osmap"
)

func runDecrypt(args []string) {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	var (
		inPath  = fs.String("in", "", "ciphertext input file")
		outPath = fs.String("out", "", "plaintext output file")
		verbose = fs.Bool("v", false, "print progress messages")
	)
	fs.Parse(args)

	if *inPath == "" || *outPath == "" {
		exitf("decrypt: -in and -out are required\n")
	}

	var progress func(string, ...any)
	if *verbose {
		progress = logf
	}

	in, err := osmap.Open(*inPath, true)
	if err != nil {
		exitf("decrypt: opening %s: %v\n", *inPath, err)
	}
	defer in.Close()

	m := detectMethod(in.Bytes())
	if m == methodNone {
		exitf("decrypt: %v\n", errUnrecognizedEnvelope)
	}

	password, err := readPassword("password: ")
	if err != nil {
		exitf("decrypt: %v\n", err)
	}

	var plaintext []byte
	switch m {
	case methodDragonfly:
		plaintext, err = dragonfly.Decrypt(in.Bytes(), password, progress)
	case methodCBCV2:
		plaintext, err = cbcv2.Decrypt(in.Bytes(), password, progress)
	}
	if err != nil {
		if errors.Is(err, dragonfly.ErrAuthenticationFailed) || errors.Is(err, cbcv2.ErrAuthenticationFailed) {
			exitf("decrypt: wrong password or corrupt file\n")
		}
		exitf("decrypt: %v\n", err)
	}

	outMap, err := osmap.Create(*outPath, int64(len(plaintext)))
	if err != nil {
		exitf("decrypt: creating %s: %v\n", *outPath, err)
	}
	copy(outMap.Bytes(), plaintext)
	if err := outMap.Sync(); err != nil {
		outMap.Discard()
		exitf("decrypt: %v\n", err)
	}
	if err := outMap.Close(); err != nil {
		exitf("decrypt: %v\n", err)
	}
}
