package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process <file|dir|glob>...",
	Short: "Index PDF or Word documents, or stage a CSV file",
	Long: `Extracts the text of the given PDF or Word files and rebuilds the vector
index from it, replacing any previous index. A single CSV file is staged
instead and the session switches to the tabular agent. All files of one
call must share a type. Directories are scanned with the configured include
patterns; globs support ** (e.g. "reports/**/*.pdf").`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := expandInputs(a.cfg, args)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no supported documents found in %v", args)
	}

	sess, err := a.session(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Processing %d file(s)...\n", len(docs))
	res, err := a.svc.Process(ctx, sess, docs)
	if err != nil {
		return err
	}

	if res.StagedPath != "" {
		fmt.Printf("CSV staged at %s. Questions in session %s now go to the tabular agent.\n", res.StagedPath, sess.ID)
		return nil
	}
	fmt.Printf("Indexed %d %s file(s): %d characters in %d chunk(s) (%s).\n",
		res.Files, res.Type, res.Characters, res.Chunks, res.Duration.Round(time.Millisecond))
	fmt.Printf("Index: %s\n", a.svc.Index().Path())
	return nil
}
