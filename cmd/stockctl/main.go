// Command stockctl manages the shop's stock from a terminal, against the same
// database as the server.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"stockroom/internal/app"
	"stockroom/internal/config"
	"stockroom/internal/logger"
	"stockroom/internal/model"
	"stockroom/internal/report"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	app *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	var logLevel string

	root := &cobra.Command{
		Use:          "stockctl",
		Short:        "Inventory and sales from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			logger.Init(logLevel)

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.app != nil {
				c.app.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		c.stockCmd(),
		c.soldCmd(),
		c.sellCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.reportCmd(),
		c.usersCmd(),
		c.addUserCmd(),
		c.chatCmd(),
	)
	return root
}

func (c *cli) stockCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "List products ordered by name with the total stock value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.ProductService.Search(cmd.Context(), model.ProductFilter{InStockOnly: !all})
			if err != nil {
				return err
			}
			renderStock(cmd.OutOrStdout(), res.Products, res.TotalValue)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include sold-out products")
	return cmd
}

func (c *cli) soldCmd() *cobra.Command {
	var unit string
	cmd := &cobra.Command{
		Use:   "sold",
		Short: "Products with at least one sale, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := c.app.ReportService.Sold(cmd.Context(), report.SoldUnit(unit))
			if err != nil {
				return err
			}
			renderSold(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().StringVarP(&unit, "unit", "u", string(report.UnitPrice), "count, revenue or unit_price")
	return cmd
}

func (c *cli) sellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sell <id> [quantity]",
		Short: "Record a sale",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			qty := 1
			if len(args) == 2 {
				if qty, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
			}

			p, err := c.app.SaleService.Sell(cmd.Context(), uint(id), qty)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sold %d x %s, %d left\n", qty, p.Name, p.Quantity)
			return nil
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.csv>",
		Short: "Write every product to a semicolon separated CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := c.app.CSVService.Export(cmd.Context(), f); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Append the rows of a CSV as new products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			count, err := c.app.CSVService.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d products\n", count)
			return nil
		},
	}
}

func (c *cli) reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <file.pdf>",
		Short: "Write the stock report PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := c.app.ReportService.StockPDF(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], doc.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d page(s)\n", args[0], doc.Pages)
			return nil
		},
	}
}

func (c *cli) usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users, admins first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := c.app.UserService.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			renderUsers(cmd.OutOrStdout(), users)
			return nil
		},
	}
}

func (c *cli) addUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adduser <username> <password> [role]",
		Short: "Create a user (role: admin, staff or user)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := model.RoleUser
			if len(args) == 3 {
				role = model.Role(args[2])
			}
			created, err := c.app.UserService.AddUser(cmd.Context(), args[0], args[1], role)
			if err != nil {
				return err
			}
			if !created {
				return fmt.Errorf("user %q already exists", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s created as %s\n", args[0], role)
			return nil
		},
	}
}
