package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ssargent/msgstore/pkg/message"
	"github.com/ssargent/msgstore/pkg/service"
)

func newUpdateCmd() *cobra.Command {
	var payload message.Payload

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace the content of a message",
		Long: `Replace title, body and attachment URL of an existing message.
Fields that are not given are stored empty.

Example:
  msgstore update 1 --title "Hello again" --body "Edited"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withService(cmd, func(svc service.MessageService) error {
				msg, err := svc.UpdateMessage(cmd.Context(), id, payload)
				if err != nil {
					return err
				}
				return printJSON(cmd, msg)
			})
		},
	}

	addPayloadFlags(cmd, &payload)
	return cmd
}
