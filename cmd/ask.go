package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the processed documents",
	Long:  `Answers a question from the most relevant chunks of the vector index, or with the tabular agent when the session's last upload was a CSV file. The turn is saved to the session.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().Bool("show-context", false, "print the retrieved chunks the answer is grounded on")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	showContext, _ := cmd.Flags().GetBool("show-context")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.session(ctx)
	if err != nil {
		return err
	}

	ans, err := a.svc.Ask(ctx, sess, strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Println(ans.Text)
	if showContext {
		for i, c := range ans.Context {
			fmt.Printf("\n--- Context %d ---\n%s\n", i+1, truncate(c, 500))
		}
	}
	return nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
