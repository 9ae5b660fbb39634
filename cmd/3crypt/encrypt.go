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
	"os"

	"github.com/threecrypt/threecrypt/config"
	"github.com/threecrypt/threecrypt/crypto/cbcv2"
	"github.com/threecrypt/threecrypt/crypto/csprng"
	"github.com/threecrypt/threecrypt/crypto/dragonfly"
	"github.com/threecrypt/threecrypt/crypto/skein"
	"github.com/threecrypt/threecrypt/internal/entropy"
	"github.com/threecrypt/threecrypt/internal/osmap"
	"golang.org/x/term"
)

func runEncrypt(args []string) {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	var (
		inPath     = fs.String("in", "", "plaintext input file")
		outPath    = fs.String("out", "", "ciphertext output file")
		confPath   = fs.String("config", "", "path to a JSON defaults file")
		envelope   = fs.String("envelope", "", "file envelope to produce: dragonfly or cbcv2 (default from config)")
		gLow       = fs.Uint("g-low", 0, "Catena g_low (0 = use config default)")
		gHigh      = fs.Uint("g-high", 0, "Catena g_high (0 = use config default)")
		lambda     = fs.Uint("lambda", 0, "Catena lambda (0 = use config default)")
		usePhi     = fs.Bool("use-phi", false, "use the Catena strong (phi) variant")
		numIter    = fs.Uint("num-iter", 0, "SSPKDF/legacy iteration count (0 = use config default)")
		numConcat  = fs.Uint("num-concat", 0, "SSPKDF concatenation count (0 = use config default)")
		padding    = fs.Uint64("padding-bytes", 0, "extra keystream padding bytes (dragonfly only)")
		supplement = fs.Bool("supplement-entropy", false, "fold operator-typed entropy into the random seed")
		verbose    = fs.Bool("v", false, "print progress messages")
	)
	fs.Parse(args)

	if *inPath == "" || *outPath == "" {
		exitf("encrypt: -in and -out are required\n")
	}

	defaults := config.Standard
	if *confPath != "" {
		f, err := os.Open(*confPath)
		if err != nil {
			exitf("encrypt: opening config: %v\n", err)
		}
		d, err := config.Decode(f)
		f.Close()
		if err != nil {
			exitf("encrypt: %v\n", err)
		}
		defaults = *d
	}

	env := defaults.Envelope
	if *envelope != "" {
		env = config.Envelope(*envelope)
	}

	var progress func(string, ...any)
	if *verbose {
		progress = logf
	}

	in, err := osmap.Open(*inPath, true)
	if err != nil {
		exitf("encrypt: opening %s: %v\n", *inPath, err)
	}
	defer in.Close()

	password, err := readPasswordWithConfirmation()
	if err != nil {
		exitf("encrypt: %v\n", err)
	}

	rng := csprng.New()
	if err := rng.InitializeSeed(entropy.OS{}); err != nil {
		exitf("encrypt: seeding random generator: %v\n", err)
	}
	if *supplement || defaults.SupplementEntropy {
		if err := foldSupplementalEntropy(rng); err != nil {
			exitf("encrypt: %v\n", err)
		}
	}

	var out []byte
	switch env {
	case config.Dragonfly:
		params := dragonfly.Options{
			GLow:   orDefault8(*gLow, defaults.GLow),
			GHigh:  orDefault8(*gHigh, defaults.GHigh),
			Lambda: orDefault8(*lambda, defaults.Lambda),
			UsePhi: *usePhi || defaults.UsePhi,
			Logf:   progress,
		}
		out, err = dragonfly.Encrypt(in.Bytes(), password, params, *padding, rng)
	case config.CBCV2:
		params := cbcv2.Options{
			NumIter:   orDefault32(*numIter, defaults.NumIter),
			NumConcat: orDefault32(*numConcat, defaults.NumConcat),
			Logf:      progress,
		}
		out, err = cbcv2.Encrypt(in.Bytes(), password, params, rng)
	default:
		exitf("encrypt: unrecognized envelope %q\n", env)
	}
	rng.Destroy()
	if err != nil {
		exitf("encrypt: %v\n", err)
	}

	outMap, err := osmap.Create(*outPath, int64(len(out)))
	if err != nil {
		exitf("encrypt: creating %s: %v\n", *outPath, err)
	}
	copy(outMap.Bytes(), out)
	if err := outMap.Sync(); err != nil {
		outMap.Discard()
		exitf("encrypt: %v\n", err)
	}
	if err := outMap.Close(); err != nil {
		exitf("encrypt: %v\n", err)
	}
}

// foldSupplementalEntropy reads an operator-typed line on the
// controlling terminal and mixes its Skein-512 digest into rng's seed,
// supplementing (never replacing) the OS-drawn seed.
func foldSupplementalEntropy(rng *csprng.Generator) error {
	fmt.Fprint(os.Stderr, "type some extra random text, then press enter: ")
	line, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reading supplemental entropy: %w", err)
	}
	var digest [skein.BlockBytes]byte
	skein.Hash(digest[:], line)
	wipeBytes(line)
	rng.Reseed(&digest)
	wipeBytes(digest[:])
	return nil
}

func orDefault8(flagVal uint, def uint8) byte {
	if flagVal == 0 {
		return def
	}
	return byte(flagVal)
}

func orDefault32(flagVal uint, def uint32) uint32 {
	if flagVal == 0 {
		return def
	}
	return uint32(flagVal)
}
