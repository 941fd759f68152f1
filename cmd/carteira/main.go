// Command carteira is the on-device CLI: account registration, transaction
// entry, period management, notification import and manual sync runs.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/carteiraapp/carteira/internal/classifier"
	"github.com/carteiraapp/carteira/internal/config"
	"github.com/carteiraapp/carteira/internal/localstore"
	"github.com/carteiraapp/carteira/internal/logger"
	"github.com/carteiraapp/carteira/internal/notify"
	"github.com/carteiraapp/carteira/internal/period"
	"github.com/carteiraapp/carteira/internal/remotestore"
	"github.com/carteiraapp/carteira/internal/syncengine"
	"github.com/carteiraapp/carteira/internal/usecase"
)

// app holds the wired dependencies shared by the subcommands.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   *localstore.Store
	service *usecase.Service
}

func (a *app) ctx() context.Context {
	return logger.WithContext(context.Background(), a.log)
}

// setup loads configuration and opens the local store. The classifier gets
// the AI fallback only when configured; everything else works offline.
func setup() (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithLevel(cfg.Log.Level)

	store, err := localstore.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	opts := []classifier.Option{}
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		ctx := logger.WithContext(context.Background(), log)
		fallback, err := classifier.NewGeminiFallback(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			log.Warn().Err(err).Msg("AI fallback unavailable, keyword rules only")
		} else {
			opts = append(opts, classifier.WithFallback(fallback))
		}
	}
	cls := classifier.New(opts...)

	manager := period.NewManager(store.Periods(), store.Transactions(), nil)
	service := usecase.NewService(store, manager, cls, nil)

	return &app{cfg: cfg, log: log, store: store, service: service}, nil
}

// engine wires the reconciliation engine against the configured Notion
// databases.
func (a *app) engine(dryRun bool) (*syncengine.Engine, error) {
	if a.cfg.Notion.Token == "" {
		return nil, fmt.Errorf("notion token is not configured")
	}

	client := remotestore.NewClient(a.cfg.Notion.Token)
	remote := syncengine.NewRemoteAdapter(
		remotestore.NewUserStore(client, a.cfg.Notion.UsersDB),
		remotestore.NewPeriodStore(client, a.cfg.Notion.PeriodsDB),
		remotestore.NewTransactionStore(client, a.cfg.Notion.TransactionsDB),
	)

	return syncengine.New(
		syncengine.NewLocalAdapter(a.store),
		remote,
		syncengine.WithCallTimeout(a.cfg.CallTimeout()),
		syncengine.WithRunDeadline(a.cfg.RunDeadline()),
		syncengine.WithDryRun(dryRun),
	), nil
}

func main() {
	var a *app

	root := &cobra.Command{
		Use:           "carteira",
		Short:         "Personal finance tracker with background sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = setup()
			return err
		},
	}

	root.AddCommand(
		registerCmd(&a),
		addCmd(&a),
		listCmd(&a),
		periodsCmd(&a),
		syncCmd(&a),
		listenCmd(&a),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func registerCmd(a **app) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create the device account",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := (*a).service.Register((*a).ctx(), name, email)
			if err != nil {
				return err
			}
			fmt.Printf("Registered %s <%s> (id %d)\n", user.Name, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "account holder name")
	cmd.Flags().StringVar(&email, "email", "", "account email, the remote identity key")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func addCmd(a **app) *cobra.Command {
	var amountStr, description, category, dateStr string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction in the active period",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := (*a).ctx()
			user, err := (*a).service.CurrentUser(ctx)
			if err != nil {
				return err
			}

			amount, err := decimal.NewFromString(amountStr)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amountStr, err)
			}

			in := usecase.TransactionInput{
				Amount:      amount,
				Description: description,
				Category:    category,
			}
			if dateStr != "" {
				in.Date, err = time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", dateStr, err)
				}
			}

			tx, err := (*a).service.AddTransaction(ctx, user.ID, in)
			if err != nil {
				return err
			}
			fmt.Printf("Added %s %s (%s)\n", tx.Amount.StringFixed(2), tx.Description, tx.Category)
			return nil
		},
	}
	cmd.Flags().StringVar(&amountStr, "amount", "", "amount, sign is derived from the category")
	cmd.Flags().StringVar(&description, "description", "", "free-text description")
	cmd.Flags().StringVar(&category, "category", "", "category; classified from the description when empty")
	cmd.Flags().StringVar(&dateStr, "date", "", "date as YYYY-MM-DD, defaults to today")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func listCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := (*a).ctx()
			user, err := (*a).service.CurrentUser(ctx)
			if err != nil {
				return err
			}
			txs, err := (*a).service.Transactions(ctx, user.ID)
			if err != nil {
				return err
			}
			for _, tx := range txs {
				fmt.Printf("%d\t%s\t%s\t%-14s\t%s\t[%s]\n",
					tx.ID,
					tx.Date.Format("2006-01-02"),
					tx.Amount.StringFixed(2),
					tx.Category,
					tx.Description,
					tx.SyncStatus,
				)
			}
			return nil
		},
	}
}

func periodsCmd(a **app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "periods",
		Short: "List and manage budgeting periods",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := (*a).ctx()
			user, err := (*a).service.CurrentUser(ctx)
			if err != nil {
				return err
			}
			periods, err := (*a).service.Periods(ctx, user.ID)
			if err != nil {
				return err
			}
			for _, p := range periods {
				end := "open"
				if p.EndDate != nil {
					end = p.EndDate.Format("2006-01-02")
				}
				marker := " "
				if p.Selected {
					marker = "*"
				}
				fmt.Printf("%s %d\t%s .. %s\tin %s\tout %s\t[%s]\n",
					marker, p.ID,
					p.StartDate.Format("2006-01-02"), end,
					p.TotalIncome.StringFixed(2), p.TotalExpenses.StringFixed(2),
					p.SyncStatus,
				)
			}
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "new",
			Short: "Close the selected period today and open a fresh one",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := (*a).ctx()
				user, err := (*a).service.CurrentUser(ctx)
				if err != nil {
					return err
				}
				next, err := (*a).service.StartNewPeriod(ctx, user.ID)
				if err != nil {
					return err
				}
				fmt.Printf("Started period %d on %s\n", next.ID, next.StartDate.Format("2006-01-02"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "select <id>",
			Short: "Make a period the selected one",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := (*a).ctx()
				user, err := (*a).service.CurrentUser(ctx)
				if err != nil {
					return err
				}
				id, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid period id %q: %w", args[0], err)
				}
				return (*a).service.SelectPeriod(ctx, user.ID, uint(id))
			},
		},
		&cobra.Command{
			Use:   "delete <id>...",
			Short: "Delete periods and their transactions",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := (*a).ctx()
				user, err := (*a).service.CurrentUser(ctx)
				if err != nil {
					return err
				}
				ids := make([]uint, 0, len(args))
				for _, arg := range args {
					id, err := strconv.ParseUint(arg, 10, 32)
					if err != nil {
						return fmt.Errorf("invalid period id %q: %w", arg, err)
					}
					ids = append(ids, uint(id))
				}
				return (*a).service.DeletePeriods(ctx, user.ID, ids)
			},
		},
	)
	return cmd
}

func syncCmd(a **app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation against the remote store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := (*a).ctx()
			user, err := (*a).service.CurrentUser(ctx)
			if err != nil {
				return err
			}
			engine, err := (*a).engine(dryRun)
			if err != nil {
				return err
			}
			return engine.Sync(ctx, user.ID)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log intended remote writes without performing them")
	return cmd
}

// listenCmd feeds stdin lines formatted as "package|text" through the
// notification pipeline. It stands in for the platform listener service on
// targets that have none.
func listenCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Import bank notifications read from stdin (package|text per line)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := (*a).ctx()

			events := make(chan notify.Event)
			listener := notify.NewListener(events, (*a).service)

			go func() {
				defer close(events)
				scanner := bufio.NewScanner(os.Stdin)
				for scanner.Scan() {
					pkg, text, found := strings.Cut(scanner.Text(), "|")
					if !found {
						continue
					}
					events <- notify.Event{Package: pkg, Text: text}
				}
			}()

			return listener.Run(ctx)
		},
	}
}
