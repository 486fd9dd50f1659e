package main

import (
	"github.com/spf13/cobra"

	"viacarona/internal/platform/config"
)

// configFile is the optional YAML file layered under the flags.
var configFile string

// NewRootCmd creates the root command. Every configuration key is a
// persistent flag so subcommands share one loader.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viacarona",
		Short: "ViaCarona onboarding client",
		Long: `viacarona drives the ViaCarona sign-up and sign-in flow from a terminal
against the auth API, and can run an in-memory sandbox of that API.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewSandboxCmd())
	cmd.AddCommand(NewSignupCmd())
	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewForgotPasswordCmd())
	cmd.AddCommand(NewResetPasswordCmd())
	cmd.AddCommand(NewStatesCmd())

	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(configFile, cmd.Flags())
}
