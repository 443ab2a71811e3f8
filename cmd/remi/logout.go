package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"remi/internal/logging"
)

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored auth token",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(flagDebug)

			_, st, err := loadEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			if _, ok := st.CurrentToken(); !ok {
				color.Yellow("Not logged in")
				return nil
			}
			if err := st.DeleteToken(); err != nil {
				return err
			}
			color.Green("Logged out")
			return nil
		},
	}
}
