package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/source"
)

// clientsCmd represents the clients command.
var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List client codes found in the adjustment headers",
	Long: `List the distinct client codes that generate would discover,
one per line in sorted order.

Example:
  adjustment-report clients`,
	Run: runClients,
}

func runClients(cmd *cobra.Command, args []string) {
	exitOnError(listClients(cmd.Context()), "failed to list clients")
}

func listClients(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conn, err := openDatabase(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer conn.Close()

	codes, err := source.NewStore(conn).DiscoverClientCodes(ctx)
	if err != nil {
		return err
	}

	for _, code := range codes {
		fmt.Println(code)
	}
	slog.Info("Listed client codes", "count", len(codes))
	return nil
}
