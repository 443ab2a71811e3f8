package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"remi/internal/api"
	"remi/internal/logging"
)

func loginCmd() *cobra.Command {
	var register bool
	var fullName string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the auth token",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(flagDebug)

			cfg, st, err := loadEnv()
			if err != nil {
				return err
			}
			defer st.Close()

			reader := bufio.NewReader(os.Stdin)
			fmt.Print("Email: ")
			email, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read email: %w", err)
			}
			email = strings.TrimSpace(email)

			if register && fullName == "" {
				fmt.Print("Full name: ")
				fullName, err = reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read name: %w", err)
				}
				fullName = strings.TrimSpace(fullName)
			}

			fmt.Print("Password: ")
			password, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			client := api.NewClient(cfg.APIBaseURL, st)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			var token string
			if register {
				token, err = client.Register(ctx, email, fullName, string(password))
			} else {
				token, err = client.Login(ctx, email, string(password))
			}
			if err != nil {
				return err
			}

			if err := st.PutToken(token); err != nil {
				return err
			}
			color.Green("Logged in as %s", email)
			return nil
		},
	}

	cmd.Flags().BoolVar(&register, "register", false, "create a new account")
	cmd.Flags().StringVar(&fullName, "name", "", "full name (with --register)")

	return cmd
}
