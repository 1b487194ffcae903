package main

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/domainset/dset/config"
	"github.com/ZanzyTHEbar/domainset/dset/dataset"
	"github.com/ZanzyTHEbar/domainset/dset/pipeline"
	"github.com/ZanzyTHEbar/domainset/dset/tokenizer"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build (or load) the cached example array for one variant",
	Long:  "Runs the corpus-to-blocks pipeline for the chosen variant and block size, persisting the example array next to the source file. An existing cache is loaded instead of rebuilt.",
	RunE:  runBuild,
}

var (
	buildConfigFile string
	buildVariant    string
	buildDataFile   string
	buildBlockSize  int
	buildModelType  string
	buildVocabFile  string
	buildEvaluate   bool
	buildManifest   bool
	buildChecksum   bool
)

func init() {
	buildCmd.Flags().StringVar(&buildConfigFile, "config", "", "Path to config file (optional)")
	buildCmd.Flags().StringVarP(&buildVariant, "variant", "v", "", fmt.Sprintf("Pipeline variant, one of: %s", strings.Join(pipeline.Names(), ", ")))
	buildCmd.Flags().StringVarP(&buildDataFile, "data", "d", "", "Path to the source corpus file (required)")
	buildCmd.Flags().IntVarP(&buildBlockSize, "block-size", "b", 0, "Block size in tokens")
	buildCmd.Flags().StringVarP(&buildModelType, "model-type", "m", "", "Model type for cache naming (e.g. bert-base-uncased)")
	buildCmd.Flags().StringVar(&buildVocabFile, "tokenizer-vocab", "", "Path to the WordPiece vocab.txt (required)")
	buildCmd.Flags().BoolVar(&buildEvaluate, "evaluate", false, "Process the file as an evaluation split")
	buildCmd.Flags().BoolVar(&buildManifest, "manifest", false, "Record the build in the libsql manifest")
	buildCmd.Flags().BoolVar(&buildChecksum, "checksum-keys", false, "Key cache files on source content checksum")

	if err := buildCmd.MarkFlagRequired("data"); err != nil {
		panic(fmt.Sprintf("failed to mark data flag as required: %v", err))
	}
	if err := buildCmd.MarkFlagRequired("tokenizer-vocab"); err != nil {
		panic(fmt.Sprintf("failed to mark tokenizer-vocab flag as required: %v", err))
	}

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(buildConfigFile)
	if err != nil {
		return err
	}
	pc := cfg.Pipeline

	// Flags override the config file.
	if buildVariant != "" {
		pc.Variant = buildVariant
	}
	if buildBlockSize > 0 {
		pc.BlockSize = buildBlockSize
	}
	if buildModelType != "" {
		pc.ModelType = buildModelType
	}
	if buildVocabFile != "" {
		pc.TokenizerVocab = buildVocabFile
	}
	pc.Evaluate = buildEvaluate
	if buildEvaluate {
		pc.EvalDataFile = buildDataFile
	} else {
		pc.TrainDataFile = buildDataFile
	}
	if buildManifest {
		pc.UseManifest = true
	}
	if buildChecksum {
		pc.ChecksumKeys = true
	}

	tok, err := tokenizer.NewSugarWordPiece(pc.TokenizerVocab)
	if err != nil {
		return fmt.Errorf("failed to load tokenizer: %w", err)
	}

	ds, err := dataset.LoadAndCacheExamples(pc.Variant, &pc, tok)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "dataset ready: %d examples, width %d\n", ds.Len(), ds.Width())
	return nil
}
