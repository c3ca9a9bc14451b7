package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/logger"
	"github.com/spf13/cobra"

	"github.com/worldfnd/noir-r1cs/acir"
	"github.com/worldfnd/noir-r1cs/pcs"
	"github.com/worldfnd/noir-r1cs/store"
)

var fPublicPath string

var verifyCmd = &cobra.Command{
	Use:   "verify [scheme" + store.Extension + "] [proof" + store.Extension + "]",
	Short: "verify a proof against a compiled scheme and public inputs",
	Args:  cobra.ExactArgs(2),
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&fPublicPath, "public", "p", "", "public input JSON, keyed by circuit public input position")
	_ = verifyCmd.MarkFlagRequired("public")
}

// loadPublicInputs reads a JSON object keyed by public input position.
func loadPublicInputs(path string, n int) ([]fr.Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := acir.ParseWitnessJSON(data)
	if err != nil {
		return nil, err
	}
	if len(m) != n {
		return nil, fmt.Errorf("expected %d public inputs, got %d", n, len(m))
	}
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, int(k))
	}
	sort.Ints(keys)
	out := make([]fr.Element, 0, n)
	for i, k := range keys {
		if k != i {
			return nil, fmt.Errorf("public input positions must be 0..%d", n-1)
		}
		out = append(out, m[acir.Witness(k)])
	}
	return out, nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	scheme, err := store.LoadScheme(args[0])
	if err != nil {
		return err
	}
	proof, err := store.LoadProof(args[1])
	if err != nil {
		return err
	}
	public, err := loadPublicInputs(fPublicPath, scheme.R1CS.NumPublicInputs)
	if err != nil {
		return err
	}
	if err := scheme.Verify(pcs.RawScheme{}, public, proof); err != nil {
		return err
	}
	log.Info().Msg("proof verified")
	return nil
}
