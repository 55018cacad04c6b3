package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dHangman/cmd/bench"
	"github.com/ValentinKolb/dHangman/cmd/play"
	"github.com/ValentinKolb/dHangman/cmd/serve"
	"github.com/ValentinKolb/dHangman/cmd/util"
	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "hangman",
		Short: "multiplayer hangman over a non-blocking transport",
		Long: fmt.Sprintf(`dHangman (v%s)

A multiplayer hangman game. One coordinator runs the game for all
connected participants over a single-threaded, non-blocking transport.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dHangman",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dHangman v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(play.PlayCmd)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, common.DefaultTransport, util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
