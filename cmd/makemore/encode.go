package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/makemore/internal/corpus"
	"github.com/born-ml/makemore/internal/vocab"
)

var encodeLimit int

var encodeCmd = &cobra.Command{
	Use:   "encode [word...]",
	Short: "Show the context/target pairs built from words or the corpus",
	RunE:  runEncode,
}

func init() {
	encodeCmd.Flags().IntVar(&encodeLimit, "limit", 20, "pairs to print, 0 = all")
}

func runEncode(cmd *cobra.Command, args []string) error {
	words := args
	if len(words) == 0 {
		if cfg.Corpus == "" {
			return fmt.Errorf("no words given and no corpus configured")
		}
		var err error
		if words, err = corpus.LoadWords(cfg.Corpus); err != nil {
			return err
		}
	}

	ds, err := corpus.Encode(words, cfg.Model.ContextWidth)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d examples from %d words (context width %d)\n", ds.Len(), len(words), ds.Width)

	n := ds.Len()
	if encodeLimit > 0 && encodeLimit < n {
		n = encodeLimit
	}
	for i := 0; i < n; i++ {
		context, target := ds.Example(i)
		ctx, err := vocab.DecodeCodes(context)
		if err != nil {
			return err
		}
		next, err := vocab.Decode(target)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s ---> %c\n", ctx, next)
	}
	return nil
}
