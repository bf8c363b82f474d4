// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fractalide/copernica/identity"
)

var keygenOutputFile string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new node identity",
	Long: `Generate a fresh Ed25519 signing key plus chain code, the pair a
Copernica node needs for HBFI identities and per-nonce key derivation.

The printed "node id" is the 32-byte seed and 32-byte chain code,
concatenated and hex-encoded, suitable for a node.id entry in a node's
config file or a COPERNICA_NODE_ID environment override.`,
	Example: `  # Print a new identity to stdout
  copernica keygen

  # Save a new identity for later use in a config file
  copernica keygen --output node.id`,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVarP(&keygenOutputFile, "output", "o", "", "Output file for the node id (default: stdout)")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	var seed, chainCode [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return fmt.Errorf("keygen: generate seed: %w", err)
	}
	if _, err := rand.Read(chainCode[:]); err != nil {
		return fmt.Errorf("keygen: generate chain code: %w", err)
	}

	priv, err := identity.FromSeed(seed, chainCode)
	if err != nil {
		return fmt.Errorf("keygen: %w", err)
	}
	pub := priv.PublicID()

	nodeID := hex.EncodeToString(seed[:]) + hex.EncodeToString(chainCode[:])
	out := fmt.Sprintf("node_id:    %s\npublic_key: %s\nshort_id:   %s\n",
		nodeID, hex.EncodeToString(pub.Key()[:]), pub.ID())

	if keygenOutputFile == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(keygenOutputFile, []byte(out), 0o600); err != nil {
		return fmt.Errorf("keygen: write %s: %w", keygenOutputFile, err)
	}
	fmt.Printf("Identity written to %s\n", keygenOutputFile)
	return nil
}
