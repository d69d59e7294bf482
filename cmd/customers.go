package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/log"

	cmdUtils "github.com/stellar/customer-intake-backend/cmd/utils"
	"github.com/stellar/customer-intake-backend/internal/customerapi"
	"github.com/stellar/customer-intake-backend/internal/intake"
	"github.com/stellar/customer-intake-backend/internal/serve/httpclient"
)

// CustomersCommand reads and removes customer records through the REST API at --base-url.
type CustomersCommand struct {
	HTTPClient httpclient.HTTPClientInterface
	// Confirm asks before destructive actions. It defaults to an interactive prompt.
	Confirm func(label string, in io.Reader, out io.Writer) (bool, error)
}

func (c *CustomersCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:              "customers",
		Short:            "Customer records helpers",
		PersistentPreRun: cmdUtils.PropagatePersistentPreRun,
		RunE:             cmdUtils.CallHelpCommand,
	}

	cmd.AddCommand(c.listCmd())
	cmd.AddCommand(c.getCmd())
	cmd.AddCommand(c.deleteCmd())

	return cmd
}

func (c *CustomersCommand) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:              "list",
		Short:            "Lists every customer record",
		Args:             cobra.NoArgs,
		PersistentPreRun: cmdUtils.PropagatePersistentPreRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}

			records, err := client.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing customers: %w", err)
			}
			if records == nil {
				records = []intake.CustomerRecord{}
			}
			return printJSON(cmd.OutOrStdout(), records)
		},
	}
}

func (c *CustomersCommand) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:              "get <id>",
		Short:            "Prints one customer record",
		Args:             cobra.ExactArgs(1),
		PersistentPreRun: cmdUtils.PropagatePersistentPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}

			record, err := client.Load(cmd.Context(), args[0])
			if errors.Is(err, intake.ErrRecordNotFound) {
				return fmt.Errorf("customer %s not found", args[0])
			} else if err != nil {
				return fmt.Errorf("getting customer: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), record)
		},
	}
}

func (c *CustomersCommand) deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:              "delete <id>",
		Short:            "Deletes one customer record",
		Args:             cobra.ExactArgs(1),
		PersistentPreRun: cmdUtils.PropagatePersistentPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			if !yes {
				confirm := c.Confirm
				if confirm == nil {
					confirm = cmdUtils.Confirm
				}
				ok, err := confirm(fmt.Sprintf("Delete customer %s", id), cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if !ok {
					log.Ctx(ctx).Infof("Deletion of customer %s cancelled", id)
					return nil
				}
			}

			client, err := c.client()
			if err != nil {
				return err
			}
			if err = client.Delete(ctx, id); err != nil {
				return fmt.Errorf("deleting customer: %w", err)
			}

			log.Ctx(ctx).Infof("Customer %s deleted", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func (c *CustomersCommand) client() (*customerapi.Client, error) {
	client, err := customerapi.NewClient(customerapi.ClientOptions{
		BaseURL:      globalOptions.BaseURL,
		HTTPClient:   c.HTTPClient,
		LoadCacheTTL: -1,
	})
	if err != nil {
		return nil, fmt.Errorf("creating customer API client: %w", err)
	}
	return client, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
