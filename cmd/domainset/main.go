// Package main implements the domainset CLI for prebuilding example caches.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "domainset",
	Short: "Build fixed-length token-block training examples from tagged corpora",
	Long:  "domainset parses tagged review corpora, groups records by domain and rating, chunks tokenized text into fixed-size blocks and caches the resulting example arrays to disk.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
