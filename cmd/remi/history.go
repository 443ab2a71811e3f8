package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"remi/internal/logging"
)

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent voice captures",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(flagDebug)

			_, st, err := loadEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			utterances, err := st.RecentUtterances(limit)
			if err != nil {
				return err
			}
			if len(utterances) == 0 {
				fmt.Println(dim("No captures yet"))
				return nil
			}
			for _, u := range utterances {
				fmt.Printf("%s  %s\n", dim(u.RecordedAt.Format("02.01.2006 15:04")), u.Text)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum captures to show")
	return cmd
}
