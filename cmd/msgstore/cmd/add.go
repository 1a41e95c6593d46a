package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ssargent/msgstore/pkg/message"
	"github.com/ssargent/msgstore/pkg/service"
)

func newAddCmd() *cobra.Command {
	var payload message.Payload

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a message",
		Long: `Store a new message under a freshly allocated id.

Example:
  msgstore add --title "Hello" --body "First message" --attachment-url https://example.com/a.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc service.MessageService) error {
				msg, err := svc.AddMessage(cmd.Context(), payload)
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

func addPayloadFlags(cmd *cobra.Command, payload *message.Payload) {
	cmd.Flags().StringVar(&payload.Title, "title", "", "Message title")
	cmd.Flags().StringVar(&payload.Body, "body", "", "Message body")
	cmd.Flags().StringVar(&payload.AttachmentURL, "attachment-url", "", "Attachment URL")
}
