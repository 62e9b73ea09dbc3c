package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List chat sessions",
	Long:  `Lists stored chat sessions, most recently used first. Pass an ID to other commands with --session.`,
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().Bool("new", false, "start a new session and print its ID")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	startNew, _ := cmd.Flags().GetBool("new")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if startNew {
		sess, err := store.Create(ctx)
		if err != nil {
			return err
		}
		fmt.Println(sess.ID)
		return nil
	}

	sums, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(sums) == 0 {
		fmt.Println("No sessions yet. Ask a question or run `docchat sessions --new`.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODE\tTURNS\tLAST USED")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ID, s.Mode, s.Turns, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
