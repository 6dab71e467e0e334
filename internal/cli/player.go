package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/tictactoe3d/internal/api/response"
	"github.com/mcoot/tictactoe3d/internal/services/auth"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player and session commands",
	}

	cmd.AddCommand(newPlayerLoginCmd())
	cmd.AddCommand(newPlayerDevLoginCmd())
	cmd.AddCommand(newPlayerLogoutCmd())
	cmd.AddCommand(newPlayerMeCmd())

	return cmd
}

func newPlayerLoginCmd() *cobra.Command {
	var initData string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with Telegram init data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if initData == "" {
				initData = os.Getenv("TTT_INIT_DATA")
			}
			if initData == "" {
				return fmt.Errorf("--init-data is required")
			}
			return login(cmd, initData)
		},
	}

	cmd.Flags().StringVar(&initData, "init-data", "", "Raw init data from the mini-app (env: TTT_INIT_DATA)")

	return cmd
}

func newPlayerDevLoginCmd() *cobra.Command {
	var (
		botToken  string
		userID    int64
		firstName string
		username  string
	)

	cmd := &cobra.Command{
		Use:   "dev-login",
		Short: "Sign in with init data signed locally (development only)",
		Long: `Sign init data with the bot token and exchange it for a session.

This needs the server's bot token and is meant for local development and
testing without a Telegram client.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if botToken == "" {
				botToken = os.Getenv("TELEGRAM_BOT_TOKEN")
			}
			if botToken == "" {
				return fmt.Errorf("--bot-token is required")
			}
			if userID <= 0 {
				return fmt.Errorf("--id must be a positive Telegram user id")
			}

			initData, err := signDevInitData(botToken, userID, firstName, username, time.Now())
			if err != nil {
				return err
			}
			return login(cmd, initData)
		},
	}

	cmd.Flags().StringVar(&botToken, "bot-token", "", "Bot token (env: TELEGRAM_BOT_TOKEN)")
	cmd.Flags().Int64Var(&userID, "id", 0, "Telegram user id (required)")
	cmd.Flags().StringVar(&firstName, "name", "", "First name")
	cmd.Flags().StringVar(&username, "username", "", "Username")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newPlayerLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/auth/logout", nil, nil); err != nil {
				return err
			}

			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Logged out")
			return nil
		},
	}
}

func newPlayerMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show current player info",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Player

			if err := client.Get("/api/v1/players/me", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

// login exchanges init data for a session and saves its token
func login(cmd *cobra.Command, initData string) error {
	req := map[string]string{"initData": initData}
	var result response.AuthResponse

	if err := client.Post("/api/v1/auth", req, &result); err != nil {
		return err
	}

	// Save token
	if err := cfg.SaveToken(result.SessionToken); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	out.Print(result)
	return nil
}

// signDevInitData builds init data the way a Telegram client would
func signDevInitData(botToken string, userID int64, firstName, username string, now time.Time) (string, error) {
	user, err := json.Marshal(map[string]any{
		"id":         userID,
		"first_name": firstName,
		"username":   username,
	})
	if err != nil {
		return "", err
	}

	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(now.Unix(), 10))
	values.Set("user", string(user))
	return auth.SignInitData(botToken, values), nil
}
