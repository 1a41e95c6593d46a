package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ssargent/msgstore/pkg/service"
)

func newListCmd() *cobra.Command {
	var (
		after uint64
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages in id order",
		Long: `List stored messages in ascending id order.

Examples:
  msgstore list
  msgstore list --after 100 --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc service.MessageService) error {
				messages, err := svc.ListMessages(cmd.Context(), after, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, messages)
			})
		},
	}

	cmd.Flags().Uint64Var(&after, "after", 0, "Only list ids greater than this")
	cmd.Flags().IntVar(&limit, "limit", service.DefaultListLimit, "Maximum number of messages")
	return cmd
}
