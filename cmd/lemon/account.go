package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"

	"github.com/betbot/golemon/pkg/sdk/lemon"
)

var dateLayouts = cli.TimestampConfig{Layouts: []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"}}

func accountCommand() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Show the account state",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
				st, err := c.Account.State(ctx)
				if err != nil {
					return err
				}
				return printJSON(st)
			})
		},
	}
}

func positionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "positions",
		Usage: "List positions",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "isin", Usage: "only this instrument"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
				list, err := c.Account.Positions(ctx, cmd.String("isin"))
				if err != nil {
					return err
				}
				return printJSON(list)
			})
		},
	}
}

func withdrawalsCommand() *cli.Command {
	return &cli.Command{
		Name:  "withdrawals",
		Usage: "List withdrawals",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
				list, err := c.Account.Withdrawals(ctx)
				if err != nil {
					return err
				}
				return printJSON(list)
			})
		},
	}
}

func withdrawCommand() *cli.Command {
	return &cli.Command{
		Name:      "withdraw",
		Usage:     "Request a withdrawal",
		ArgsUsage: "<amount in EUR>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "pin", Usage: "account PIN (money mode)", Sources: cli.EnvVars("LEMON_PIN")},
			&cli.StringFlag{Name: "idempotency", Usage: "idempotency key (generated when empty)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, 1, "<amount in EUR>")
			if err != nil {
				return err
			}
			amount, err := parseEuro(args[0])
			if err != nil {
				return err
			}
			if amount == nil {
				return fmt.Errorf("amount is required")
			}
			idem := cmd.String("idempotency")
			if idem == "" {
				idem = lemon.NewIdempotencyKey()
			}
			return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
				if err := c.Account.Withdraw(ctx, *amount, cmd.String("pin"), idem); err != nil {
					return err
				}
				return printJSON(map[string]any{"amount": *amount, "idempotency": idem})
			})
		},
	}
}

func statementsCommand() *cli.Command {
	return &cli.Command{
		Name:  "statements",
		Usage: "List bank statements",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Usage: "pay_in, pay_out, order_buy, order_sell, eod_balance, dividend or tax_refunded"},
			&cli.TimestampFlag{Name: "from", Usage: "start `DATE`", Config: dateLayouts},
			&cli.TimestampFlag{Name: "to", Usage: "end `DATE`", Config: dateLayouts},
			&cli.StringFlag{Name: "sorting", Usage: "asc or desc"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			q := lemon.BankStatementQuery{
				Type:    lemon.BankStatementType(cmd.String("type")),
				From:    cmd.Timestamp("from"),
				To:      cmd.Timestamp("to"),
				Sorting: lemon.Sorting(cmd.String("sorting")),
			}
			return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
				list, err := c.Account.BankStatements(ctx, q)
				if err != nil {
					return err
				}
				return printJSON(list)
			})
		},
	}
}

func documentsCommand() *cli.Command {
	return &cli.Command{
		Name:  "documents",
		Usage: "List account documents",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
				list, err := c.Account.Documents(ctx)
				if err != nil {
					return err
				}
				return printJSON(list)
			})
		},
	}
}

// parseEuro converts a euro string such as "12.50" to amount units.
func parseEuro(s string) (*lemon.Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	a, err := lemon.AmountFromEuro(d)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
