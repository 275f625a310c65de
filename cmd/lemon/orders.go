package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/betbot/golemon/pkg/logger"
	"github.com/betbot/golemon/pkg/sdk/lemon"
)

func ordersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "List, place and manage orders",
		Commands: []*cli.Command{
			ordersListCommand(),
			ordersGetCommand(),
			ordersPlaceCommand(),
			ordersActivateCommand(),
			ordersCancelCommand(),
			ordersWatchCommand(),
		},
	}
}

func ordersListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List orders",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "isin"},
			&cli.StringFlag{Name: "side", Usage: "buy or sell"},
			&cli.StringFlag{Name: "status", Usage: "inactive, activated, open, executed, canceling, canceled or expired"},
			&cli.StringFlag{Name: "type", Usage: "market, stop, limit or stop_limit"},
			&cli.StringFlag{Name: "key-creation-id"},
			&cli.TimestampFlag{Name: "from", Usage: "created after `DATE`", Config: dateLayouts},
			&cli.TimestampFlag{Name: "to", Usage: "created before `DATE`", Config: dateLayouts},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			q := lemon.OrderQuery{
				ISIN:          cmd.String("isin"),
				Side:          lemon.OrderSide(cmd.String("side")),
				Status:        lemon.OrderStatus(cmd.String("status")),
				Type:          lemon.OrderType(cmd.String("type")),
				KeyCreationID: cmd.String("key-creation-id"),
				From:          cmd.Timestamp("from"),
				To:            cmd.Timestamp("to"),
			}
			return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
				orders, err := c.Account.Orders(ctx, q)
				if err != nil {
					return err
				}
				return printJSON(orders)
			})
		},
	}
}

func ordersGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show one order",
		ArgsUsage: "<order id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, 1, "<order id>")
			if err != nil {
				return err
			}
			return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
				o, err := c.Account.GetOrder(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(o)
			})
		},
	}
}

func ordersPlaceCommand() *cli.Command {
	return &cli.Command{
		Name:  "place",
		Usage: "Place a new order",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "isin", Required: true},
			&cli.StringFlag{Name: "side", Usage: "buy or sell", Required: true},
			&cli.IntFlag{Name: "quantity", Aliases: []string{"q"}, Value: 1},
			&cli.StringFlag{Name: "venue", Usage: "MIC of the venue", Value: string(lemon.VenueGettex)},
			&cli.StringFlag{Name: "expires", Usage: "expiry `DATE` or timestamp (API default when empty)"},
			&cli.StringFlag{Name: "stop", Usage: "stop price in EUR"},
			&cli.StringFlag{Name: "limit", Usage: "limit price in EUR"},
			&cli.StringFlag{Name: "notes"},
			&cli.StringFlag{Name: "idempotency", Usage: "idempotency key (generated when empty)"},
			&cli.BoolFlag{Name: "activate", Usage: "activate right after placing"},
			&cli.StringFlag{Name: "pin", Usage: "account PIN (money mode)", Sources: cli.EnvVars("LEMON_PIN")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			params, err := orderParams(cmd)
			if err != nil {
				return err
			}
			return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
				o := c.Account.NewOrder(params)
				if err := o.Place(ctx); err != nil {
					return err
				}
				if cmd.Bool("activate") {
					if err := o.Activate(ctx, cmd.String("pin")); err != nil {
						return err
					}
					if err := o.Reload(ctx); err != nil {
						return err
					}
				}
				id, _ := o.ID()
				logger.Infof("order %s placed (status=%s)", id, o.Status())
				return printJSON(o)
			})
		},
	}
}

func orderParams(cmd *cli.Command) (lemon.OrderParams, error) {
	p := lemon.OrderParams{
		ISIN:        cmd.String("isin"),
		Side:        lemon.OrderSide(cmd.String("side")),
		Quantity:    int(cmd.Int("quantity")),
		Venue:       lemon.Venue(cmd.String("venue")),
		Notes:       cmd.String("notes"),
		Idempotency: cmd.String("idempotency"),
	}
	if p.Idempotency == "" {
		p.Idempotency = lemon.NewIdempotencyKey()
	}
	if s := cmd.String("expires"); s != "" {
		ts, err := lemon.ParseTimestamp(s)
		if err != nil {
			return p, err
		}
		p.ExpiresAt = &ts
	}
	var err error
	if p.StopPrice, err = parseEuro(cmd.String("stop")); err != nil {
		return p, err
	}
	if p.LimitPrice, err = parseEuro(cmd.String("limit")); err != nil {
		return p, err
	}
	return p, nil
}

func ordersActivateCommand() *cli.Command {
	return &cli.Command{
		Name:      "activate",
		Usage:     "Activate a placed order",
		ArgsUsage: "<order id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "pin", Usage: "account PIN (money mode)", Sources: cli.EnvVars("LEMON_PIN")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, 1, "<order id>")
			if err != nil {
				return err
			}
			return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
				o, err := c.Account.GetOrder(ctx, args[0])
				if err != nil {
					return err
				}
				if err := o.Activate(ctx, cmd.String("pin")); err != nil {
					return err
				}
				if err := o.Reload(ctx); err != nil {
					return err
				}
				return printJSON(o)
			})
		},
	}
}

func ordersCancelCommand() *cli.Command {
	return &cli.Command{
		Name:      "cancel",
		Usage:     "Cancel an order",
		ArgsUsage: "<order id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, 1, "<order id>")
			if err != nil {
				return err
			}
			return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
				o, err := c.Account.GetOrder(ctx, args[0])
				if err != nil {
					return err
				}
				if err := o.Cancel(ctx); err != nil {
					return err
				}
				if err := o.Reload(ctx); err != nil {
					return err
				}
				return printJSON(o)
			})
		},
	}
}

func ordersWatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Poll an order until it reaches one of the given statuses",
		ArgsUsage: "<order id>",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "interval", Value: 2 * time.Second},
			&cli.DurationFlag{Name: "timeout", Usage: "give up after this long (0 waits until interrupted)"},
			&cli.StringSliceFlag{
				Name:  "until",
				Usage: "target statuses",
				Value: []string{string(lemon.StatusExecuted), string(lemon.StatusCanceled), string(lemon.StatusExpired)},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, 1, "<order id>")
			if err != nil {
				return err
			}
			var targets []lemon.OrderStatus
			for _, s := range cmd.StringSlice("until") {
				targets = append(targets, lemon.OrderStatus(s))
			}
			return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
				if d := cmd.Duration("timeout"); d > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, d)
					defer cancel()
				}
				o, err := c.Account.GetOrder(ctx, args[0])
				if err != nil {
					return err
				}
				status, err := o.WaitFor(ctx, cmd.Duration("interval"), targets...)
				if err != nil {
					return fmt.Errorf("order %s still %s: %w", args[0], status, err)
				}
				return printJSON(o)
			})
		},
	}
}
