package cli

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/tictactoe3d/internal/api/response"
)

func newLobbyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lobby",
		Short: "Lobby management commands",
	}

	cmd.AddCommand(newLobbyListCmd())
	cmd.AddCommand(newLobbyCreateCmd())
	cmd.AddCommand(newLobbyGetCmd())
	cmd.AddCommand(newLobbyJoinCmd())
	cmd.AddCommand(newLobbyLeaveCmd())
	cmd.AddCommand(newLobbyStartCmd())

	return cmd
}

func lobbyPath(code string, suffix string) string {
	return "/api/v1/lobbies/" + url.PathEscape(code) + suffix
}

func newLobbyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List lobbies with a free seat",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.LobbyListResponse

			if err := client.Get("/api/v1/lobbies", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newLobbyCreateCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new lobby",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{}
			if name != "" {
				req["name"] = name
			}

			var result response.CreateLobbyResponse

			if err := client.Post("/api/v1/lobbies", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result.Lobby)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Lobby name (default: server default)")

	return cmd
}

func newLobbyGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <code>",
		Short: "Get lobby details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return lobbyRequest(cmd, http.MethodGet, lobbyPath(args[0], ""))
		},
	}
}

func newLobbyJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <code>",
		Short: "Join a lobby",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return lobbyRequest(cmd, http.MethodPost, lobbyPath(args[0], "/join"))
		},
	}
}

func newLobbyLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <code>",
		Short: "Leave a lobby",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]

			var result response.LobbyResponse

			if err := client.Post(lobbyPath(code, "/leave"), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			if result.Lobby == nil {
				out.PrintMessage(fmt.Sprintf("Left lobby %s (lobby closed)", code))
				return nil
			}
			out.PrintMessage(fmt.Sprintf("Left lobby %s", code))
			return nil
		},
	}
}

func newLobbyStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <code>",
		Short: "Start a game in the lobby (host only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return lobbyRequest(cmd, http.MethodPost, lobbyPath(args[0], "/start"))
		},
	}
}

// lobbyRequest performs a request answered with a lobby and prints it
func lobbyRequest(cmd *cobra.Command, method, path string) error {
	var result response.LobbyResponse

	if err := client.Do(method, path, nil, &result); err != nil {
		return err
	}

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	if result.Lobby == nil {
		out.PrintMessage("Lobby closed")
		return nil
	}
	out.Print(*result.Lobby)
	return nil
}
