package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List processed uploads",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		recs, err := store.ListDocuments(context.Background())
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No documents processed yet. Run `docchat process <files>`.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tTYPE\tSIZE\tCHUNKS\tSHA-256\tPROCESSED")
		for _, r := range recs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.12s\t%s\n", r.Name, r.Type, r.Size, r.Chunks, r.ContentHash, r.ProcessedAt.Local().Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(documentsCmd)
}
