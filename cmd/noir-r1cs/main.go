// noir-r1cs compiles ACIR circuits into R1CS proving schemes and runs the
// prover and verifier over them.
package main

import (
	"os"

	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var fVerbose bool

var rootCmd = &cobra.Command{
	Use:   "noir-r1cs",
	Short: "compile, prove and verify Noir circuits over R1CS",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if fVerbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&fVerbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.Logger()
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
