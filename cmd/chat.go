package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docchat/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat screen",
	Long:  `Starts a terminal chat over the current session. Answers are listed newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		sess, err := a.session(ctx)
		if err != nil {
			return err
		}

		return tui.Run(ctx, a.svc, sess, bindingSummary(a.svc.Binding())+"  session "+sess.ID)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
