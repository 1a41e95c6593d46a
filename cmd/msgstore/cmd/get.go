package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ssargent/msgstore/pkg/service"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a message by id",
		Long: `Get a message from the store and print it as JSON.

Example:
  msgstore get 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withService(cmd, func(svc service.MessageService) error {
				msg, err := svc.GetMessage(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(cmd, msg)
			})
		},
	}
}
