package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ncts-dev/nextcloud-tag-sync/internal/appversion"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print ncts version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), appversion.DetailedWithApp())
			return err
		},
	}
}
