package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ssargent/msgstore/pkg/service"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a message",
		Long: `Delete a message and print its last stored value.

Example:
  msgstore delete 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withService(cmd, func(svc service.MessageService) error {
				msg, err := svc.DeleteMessage(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(cmd, msg)
			})
		},
	}
}
