package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"storefront/internal/checkout"
	"storefront/internal/client"
	"storefront/internal/inventory"
	"storefront/internal/money"
	"storefront/internal/payments"
	"storefront/internal/poller"
)

func (o *options) client() (*client.Client, error) {
	timeout, err := time.ParseDuration(o.timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid --request-timeout: %w", err)
	}
	c := client.New(strings.TrimRight(o.server, "/"), client.WithTimeout(timeout))
	if o.session != "" {
		c.SetSession(o.session)
	}
	return c, nil
}

func configCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the storefront configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			cfg, err := c.Config(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, cfg)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Currency:\t%s\n", strings.ToUpper(cfg.Currency))
			fmt.Fprintf(tw, "Country:\t%s\n", cfg.DefaultCountry)
			fmt.Fprintf(tw, "Account country:\t%s\n", cfg.AccountCountry)
			fmt.Fprintf(tw, "Payment methods:\t%s\n", strings.Join(cfg.PaymentMethods, ", "))
			for _, opt := range cfg.ShippingOptions {
				fmt.Fprintf(tw, "Shipping %s:\t%s (%s)\n", opt.ID, opt.Label, money.Format(opt.Amount, cfg.Currency))
			}
			return tw.Flush()
		},
	}
}

func methodsCmd(opts *options) *cobra.Command {
	var (
		currency string
		amount   int64
	)

	cmd := &cobra.Command{
		Use:   "methods [country]",
		Short: "List the payment methods offered to a country",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			pm, err := c.PaymentMethods(cmd.Context(), strings.ToUpper(args[0]), currency, amount)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, pm)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, d := range pm.PaymentMethods {
				label := pm.ButtonLabels[d.ID]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.DisplayName, d.Flow, label)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if pm.Count == 1 {
				fmt.Fprintln(out, "Only one method is available, no tabs shown")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&currency, "currency", "c", "", "Currency (defaults to the store currency)")
	cmd.Flags().Int64VarP(&amount, "amount", "a", 0, "Amount in minor units, used for button labels")

	return cmd
}

type checkoutFlags struct {
	currency        string
	items           []string
	email           string
	method          string
	paymentMethodID string
	source          string
	returnURL       string
	wait            bool
	waitTimeout     time.Duration
}

func checkoutCmd(opts *options) *cobra.Command {
	f := &checkoutFlags{}

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Create a payment intent for a cart and optionally confirm it",
		Long: `Create a payment intent for the given cart. With --method the intent is
confirmed with that payment method and the next action is printed. With
--wait the intent status is polled until it settles.

Items are given as SKU=QUANTITY, for example --item increment-03=2.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseItems(f.items)
			if err != nil {
				return err
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			return runCheckout(cmd.Context(), cmd.OutOrStdout(), c, opts, f, items)
		},
	}

	cmd.Flags().StringVarP(&f.currency, "currency", "c", "eur", "Currency of the payment intent")
	cmd.Flags().StringSliceVarP(&f.items, "item", "i", nil, "Cart item as SKU=QUANTITY (repeatable)")
	cmd.Flags().StringVar(&f.email, "email", "", "Receipt e-mail")
	cmd.Flags().StringVarP(&f.method, "method", "m", "", "Payment method to confirm with")
	cmd.Flags().StringVar(&f.paymentMethodID, "payment-method-id", "", "Tokenized card, e.g. pm_card_visa")
	cmd.Flags().StringVar(&f.source, "source", "", "Source id for receiver methods")
	cmd.Flags().StringVar(&f.returnURL, "return-url", "", "Return URL for redirect methods")
	cmd.Flags().BoolVarP(&f.wait, "wait", "w", false, "Poll the status until it settles")
	cmd.Flags().DurationVar(&f.waitTimeout, "wait-timeout", 0, "Polling timeout (defaults to the method's timeout)")
	_ = cmd.MarkFlagRequired("item")

	return cmd
}

type checkoutResult struct {
	PaymentIntent *payments.Intent `json:"paymentIntent"`
	OrderNumber   string           `json:"orderNumber"`
	SessionToken  string           `json:"sessionToken"`
	NextAction    *checkout.Action `json:"nextAction,omitempty"`
	Final         *payments.Intent `json:"final,omitempty"`
	TimedOut      bool             `json:"timedOut,omitempty"`
}

func runCheckout(ctx context.Context, out io.Writer, c *client.Client, opts *options, f *checkoutFlags, items []inventory.Item) error {
	created, err := c.CreatePaymentIntent(ctx, client.CreateIntentRequest{
		Currency: strings.ToLower(f.currency),
		Items:    items,
		Email:    f.email,
	})
	if err != nil {
		return err
	}

	res := checkoutResult{
		PaymentIntent: created.PaymentIntent,
		OrderNumber:   created.OrderNumber,
		SessionToken:  c.Session(),
	}
	if !opts.json {
		in := created.PaymentIntent
		fmt.Fprintf(out, "Order %s: intent %s for %s\n", res.OrderNumber, in.ID, money.Format(in.Amount, in.Currency))
		fmt.Fprintf(out, "Session: %s\n", res.SessionToken)
	}

	if f.method == "" {
		if opts.json {
			return printJSON(out, res)
		}
		return nil
	}

	confirmed, err := c.Confirm(ctx, created.PaymentIntent.ID, client.ConfirmRequest{
		PaymentMethod:   f.method,
		PaymentMethodID: f.paymentMethodID,
		Source:          f.source,
		ReturnURL:       f.returnURL,
	})
	if err != nil {
		return err
	}
	res.PaymentIntent = confirmed.PaymentIntent
	res.NextAction = &confirmed.NextAction
	if !opts.json {
		printAction(out, confirmed.NextAction)
	}

	if f.wait && confirmed.NextAction.Kind != checkout.ActionRedirect {
		timeout := f.waitTimeout
		if timeout <= 0 && confirmed.NextAction.PollTimeoutMs > 0 {
			timeout = time.Duration(confirmed.NextAction.PollTimeoutMs) * time.Millisecond
		}
		final, timedOut, err := waitForStatus(ctx, c, created.PaymentIntent.ID, timeout, time.Second, false)
		if err != nil {
			return err
		}
		res.Final, res.TimedOut = final, timedOut
		if !opts.json {
			printStatus(out, final, timedOut)
		}
	}

	if opts.json {
		return printJSON(out, res)
	}
	return nil
}

func statusCmd(opts *options) *cobra.Command {
	var (
		wait     bool
		final    bool
		timeout  time.Duration
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status [intent-id]",
		Short: "Show the status of a payment intent",
		Long: `Show the status of a payment intent owned by --session. With --wait the
status is polled until the intent succeeds, fails, is canceled or is
processing. --final also waits past processing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.session == "" {
				return errors.New("--session is required")
			}
			c, err := opts.client()
			if err != nil {
				return err
			}

			var (
				in       *payments.Intent
				timedOut bool
			)
			if wait {
				in, timedOut, err = waitForStatus(cmd.Context(), c, args[0], timeout, interval, final)
			} else {
				in, err = c.RetrieveStatus(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, struct {
					PaymentIntent *payments.Intent `json:"paymentIntent"`
					TimedOut      bool             `json:"timedOut,omitempty"`
				}{in, timedOut})
			}
			printStatus(out, in, timedOut)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the intent settles")
	cmd.Flags().BoolVar(&final, "final", false, "Keep polling while the intent is processing")
	cmd.Flags().DurationVar(&timeout, "timeout", poller.DefaultTimeout, "Polling timeout")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Delay between status requests")

	return cmd
}

// waitForStatus polls the API until the intent settles. A timeout is not an
// error: the last state seen is returned with timedOut set.
func waitForStatus(ctx context.Context, c *client.Client, id string, timeout, interval time.Duration, final bool) (*payments.Intent, bool, error) {
	p := poller.New(c, poller.Config{
		Timeout:            timeout,
		Interval:           interval,
		WaitPastProcessing: final,
	})

	in, err := p.PollUntilTerminal(ctx, id)
	var timeoutErr *payments.TimeoutError
	if errors.As(err, &timeoutErr) {
		if in == nil {
			return nil, true, err
		}
		return in, true, nil
	}
	return in, false, err
}

func parseItems(raw []string) ([]inventory.Item, error) {
	items := make([]inventory.Item, 0, len(raw))
	for _, s := range raw {
		sku, qty, found := strings.Cut(s, "=")
		sku = strings.TrimSpace(sku)
		if sku == "" {
			return nil, fmt.Errorf("invalid item %q: missing SKU", s)
		}
		n := 1
		if found {
			var err error
			n, err = strconv.Atoi(strings.TrimSpace(qty))
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid item %q: quantity must be a positive integer", s)
			}
		}
		items = append(items, inventory.Item{Parent: sku, Quantity: n})
	}
	return items, nil
}

func printAction(out io.Writer, a checkout.Action) {
	switch a.Kind {
	case checkout.ActionRedirect:
		fmt.Fprintf(out, "Redirect the customer to %s\n", a.RedirectURL)
	case checkout.ActionDisplayInstructions:
		fmt.Fprintf(out, "Show %s payment instructions, waiting up to %s\n", a.Method, time.Duration(a.PollTimeoutMs)*time.Millisecond)
	case checkout.ActionDone:
		fmt.Fprintf(out, "Payment %s\n", a.Status)
	default:
		fmt.Fprintf(out, "Next: %s\n", a.Kind)
	}
	if a.Message != "" {
		fmt.Fprintln(out, a.Message)
	}
}

func printStatus(out io.Writer, in *payments.Intent, timedOut bool) {
	if in == nil {
		fmt.Fprintln(out, "No status received")
		return
	}
	fmt.Fprintf(out, "%s: %s\n", in.ID, in.Status)
	if in.LastError != "" {
		fmt.Fprintf(out, "Last error: %s\n", in.LastError)
	}
	if timedOut {
		fmt.Fprintln(out, "Still waiting for the payment to settle")
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
