package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/consensys/gnark/logger"
	"github.com/spf13/cobra"

	"github.com/worldfnd/noir-r1cs/acir"
	"github.com/worldfnd/noir-r1cs/protocol"
	"github.com/worldfnd/noir-r1cs/store"
)

var fSchemeOut string

var compileCmd = &cobra.Command{
	Use:   "compile [circuit.json]",
	Short: "compile an ACIR circuit into a proving scheme",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringVarP(&fSchemeOut, "out", "o", "", "output path, default is the circuit name with "+store.Extension)
}

func runCompile(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	circuit, err := acir.ParseCircuitJSON(data)
	if err != nil {
		return err
	}
	scheme, err := protocol.Compile(circuit)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", args[0], err)
	}
	out := fSchemeOut
	if out == "" {
		out = strings.TrimSuffix(args[0], ".json") + store.Extension
	}
	if err := store.SaveScheme(out, scheme); err != nil {
		return err
	}
	log.Info().
		Str("path", out).
		Int("constraints", scheme.R1CS.NumConstraints()).
		Int("witnesses", scheme.R1CS.NumWitnesses()).
		Msg("wrote proving scheme")
	return nil
}
