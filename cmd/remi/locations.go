package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"remi/internal/api"
	"remi/internal/logging"
)

func locationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "Manage saved places for location reminders",
	}
	cmd.AddCommand(locationsListCmd())
	cmd.AddCommand(locationsAddCmd())
	return cmd
}

func locationsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved places",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(flagDebug)

			cfg, st, err := loadEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			client := api.NewClient(cfg.APIBaseURL, st)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			locations, err := client.Locations(ctx)
			if err != nil {
				return err
			}
			if len(locations) == 0 {
				fmt.Println(dim("No saved places yet"))
				return nil
			}
			for _, loc := range locations {
				fmt.Printf("%s  %s\n", color.CyanString(loc.Name), dim(loc.Coords))
			}
			return nil
		},
	}
}

func locationsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <lat,lon>",
		Short: "Save a place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(flagDebug)

			cfg, st, err := loadEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			client := api.NewClient(cfg.APIBaseURL, st)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := client.SaveLocation(ctx, args[0], args[1]); err != nil {
				return err
			}
			color.Green("Saved %s", args[0])
			return nil
		},
	}
}
