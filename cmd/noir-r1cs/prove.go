package main

import (
	"os"
	"strings"
	"time"

	"github.com/consensys/gnark/logger"
	"github.com/spf13/cobra"

	"github.com/worldfnd/noir-r1cs/acir"
	"github.com/worldfnd/noir-r1cs/pcs"
	"github.com/worldfnd/noir-r1cs/store"
)

var (
	fWitnessPath string
	fProofOut    string
	fProofJSON   bool
)

var proveCmd = &cobra.Command{
	Use:   "prove [scheme" + store.Extension + "]",
	Short: "prove a witness against a compiled scheme",
	Args:  cobra.ExactArgs(1),
	RunE:  runProve,
}

func init() {
	rootCmd.AddCommand(proveCmd)
	proveCmd.Flags().StringVarP(&fWitnessPath, "witness", "w", "", "witness assignment JSON")
	proveCmd.Flags().StringVarP(&fProofOut, "out", "o", "", "output path, default is the scheme name with .proof"+store.Extension)
	proveCmd.Flags().BoolVar(&fProofJSON, "json", false, "also print the proof as JSON to stdout")
	_ = proveCmd.MarkFlagRequired("witness")
}

func runProve(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	scheme, err := store.LoadScheme(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(fWitnessPath)
	if err != nil {
		return err
	}
	witness, err := acir.ParseWitnessJSON(data)
	if err != nil {
		return err
	}

	start := time.Now()
	proof, err := scheme.Prove(pcs.RawScheme{}, witness)
	if err != nil {
		return err
	}
	log.Info().Dur("took", time.Since(start)).Msg("proof generated")

	out := fProofOut
	if out == "" {
		out = strings.TrimSuffix(args[0], store.Extension) + ".proof" + store.Extension
	}
	if err := store.SaveProof(out, proof); err != nil {
		return err
	}
	if fProofJSON {
		js, err := store.ProofJSON(proof)
		if err != nil {
			return err
		}
		cmd.Println(string(js))
	}
	log.Info().Str("path", out).Msg("wrote proof")
	return nil
}
