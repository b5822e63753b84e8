package main

import (
	"fmt"
	"os"

	"github.com/playwright-community/playwright-go"
	"github.com/spf13/cobra"
)

func installCmd() *cobra.Command {
	var browsers []string

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the Playwright driver and browser binaries",
		Long: `Download the Playwright driver and managed browser binaries so the first
test run does not pay the installation cost.

Examples:
  webrig install
  webrig install --browser chromium --browser firefox`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &playwright.RunOptions{
				Stdout: os.Stdout,
				Stderr: os.Stderr,
			}
			if len(browsers) > 0 {
				opts.Browsers = browsers
			}
			if err := playwright.Install(opts); err != nil {
				return fmt.Errorf("install playwright: %w", err)
			}
			fmt.Println("playwright driver and browsers installed")
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&browsers, "browser", nil, "browser to install (chromium, firefox, webkit); repeatable, default all")
	return cmd
}
