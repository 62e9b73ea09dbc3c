package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or export the chat history of a session",
	Long:  `Prints the session's questions and answers, newest first. With --export the history is written as CSV (question,answer) in the order it was asked.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().String("export", "", "write the history to this CSV file instead of printing it")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	exportPath, _ := cmd.Flags().GetString("export")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	sess, err := selectSession(ctx, store)
	if err != nil {
		return err
	}

	if exportPath != "" {
		f, err := os.Create(exportPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", exportPath, err)
		}
		if err := sess.WriteCSV(f); err != nil {
			f.Close()
			return fmt.Errorf("exporting history: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("Exported %d turn(s) from session %s to %s\n", sess.Len(), sess.ID, exportPath)
		return nil
	}

	turns := sess.Recent()
	if len(turns) == 0 {
		fmt.Printf("Session %s has no questions yet.\n", sess.ID)
		return nil
	}
	fmt.Printf("Session %s (%d turns, newest first)\n", sess.ID, len(turns))
	for _, t := range turns {
		fmt.Printf("\n[%s] %s\nQ: %s\nA: %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"), t.Source, t.Question, t.Answer)
	}
	return nil
}
