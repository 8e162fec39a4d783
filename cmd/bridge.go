// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"

	"s2klaunch/cli/internal/keychain"
	"s2klaunch/cli/internal/terminal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Manage access to the .NET bridge host",
}

var bridgeTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the bridge access token",
}

// bridgeTokenSetCmd stores the bridge access token in the OS keychain.
// The token can be typed at a hidden prompt or piped in on stdin.
var bridgeTokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the bridge access token in the OS keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := "Enter bridge access token: "
		token, err := terminal.ReadSecret(prompt)
		if err != nil {
			return err
		}
		if token == "" {
			return errors.New("token is required")
		}
		km, err := keychain.GetManager()
		if err != nil {
			pterm.Error.Println("Secure storage is not available on this system.")
			pterm.Info.Println("Set " + tokenEnv + " instead.")
			return err
		}
		if err := km.SaveBridgeToken(token); err != nil {
			pterm.Error.Println("Failed to save the token securely.")
			return err
		}
		pterm.Success.Println("Bridge access token saved")
		return nil
	},
}

var bridgeTokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the bridge access token from the OS keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return err
		}
		if err := km.ClearBridgeToken(); err != nil {
			return err
		}
		pterm.Success.Println("Bridge access token removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
	bridgeCmd.AddCommand(bridgeTokenCmd)
	bridgeTokenCmd.AddCommand(bridgeTokenSetCmd, bridgeTokenClearCmd)
}
