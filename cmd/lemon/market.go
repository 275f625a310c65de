package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/betbot/golemon/pkg/sdk/lemon"
)

func marketCommand() *cli.Command {
	return &cli.Command{
		Name:  "market",
		Usage: "Query instruments, venues and prices",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search instruments",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "name, ISIN, WKN or symbol"},
					&cli.StringSliceFlag{Name: "isin", Usage: "up to 10 ISINs"},
					&cli.StringFlag{Name: "type", Usage: "stock, bond, fund, etf or warrant"},
					&cli.StringFlag{Name: "mic", Usage: "venue"},
					&cli.StringFlag{Name: "currency"},
					&cli.BoolFlag{Name: "tradable", Usage: "only tradable instruments"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					q := lemon.InstrumentQuery{
						Search:   cmd.String("query"),
						ISINs:    cmd.StringSlice("isin"),
						Type:     lemon.InstrumentType(cmd.String("type")),
						Venue:    lemon.Venue(cmd.String("mic")),
						Currency: cmd.String("currency"),
					}
					if cmd.IsSet("tradable") {
						tradable := cmd.Bool("tradable")
						q.Tradable = &tradable
					}
					return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
						list, err := c.Market.SearchInstrument(ctx, q)
						if err != nil {
							return err
						}
						return printJSON(list)
					})
				},
			},
			{
				Name:  "venues",
				Usage: "List trading venues",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mic"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
						list, err := c.Market.TradingVenues(ctx, lemon.Venue(cmd.String("mic")))
						if err != nil {
							return err
						}
						return printJSON(list)
					})
				},
			},
			{
				Name:      "quote",
				Usage:     "Latest quotes",
				ArgsUsage: "<isin>...",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "mic"}},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					isins, err := requireArgs(cmd, 1, "<isin>...")
					if err != nil {
						return err
					}
					return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
						list, err := c.Market.LatestQuotes(ctx, isins, lemon.Venue(cmd.String("mic")))
						if err != nil {
							return err
						}
						return printJSON(list)
					})
				},
			},
			{
				Name:      "trade",
				Usage:     "Latest trades",
				ArgsUsage: "<isin>...",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "mic"}},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					isins, err := requireArgs(cmd, 1, "<isin>...")
					if err != nil {
						return err
					}
					return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
						list, err := c.Market.LatestTrades(ctx, isins, lemon.Venue(cmd.String("mic")))
						if err != nil {
							return err
						}
						return printJSON(list)
					})
				},
			},
			{
				Name:      "ohlc",
				Usage:     "OHLC bars",
				ArgsUsage: "<isin>...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "timespan", Usage: "m, h or d", Value: string(lemon.TimespanDay)},
					&cli.TimestampFlag{Name: "from", Usage: "start `DATE`", Config: dateLayouts},
					&cli.TimestampFlag{Name: "to", Usage: "end `DATE`", Config: dateLayouts},
					&cli.StringFlag{Name: "mic"},
					&cli.StringFlag{Name: "sorting", Usage: "asc or desc"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					isins, err := requireArgs(cmd, 1, "<isin>...")
					if err != nil {
						return err
					}
					q := lemon.OHLCQuery{
						ISINs:    isins,
						Timespan: lemon.Timespan(cmd.String("timespan")),
						From:     cmd.Timestamp("from"),
						To:       cmd.Timestamp("to"),
						Venue:    lemon.Venue(cmd.String("mic")),
						Sorting:  lemon.Sorting(cmd.String("sorting")),
					}
					return withClient(ctx, cmd, func(ctx context.Context, c *lemon.Client) error {
						bars, err := c.Market.OHLC(ctx, q)
						if err != nil {
							return err
						}
						return printJSON(bars)
					})
				},
			},
		},
	}
}
