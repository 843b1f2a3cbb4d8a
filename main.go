package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "leadchat",
		Short:        "Lead-qualifying chat assistant for a consulting website",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand(), newScoreCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
