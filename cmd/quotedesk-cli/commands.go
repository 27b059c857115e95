package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quotedesk/quotedesk/internal/documents"
	"github.com/quotedesk/quotedesk/internal/pricing"
)

func newLoginCmd(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain access and refresh tokens",
		Example: `  quotedesk-cli login --email jane@example.com --password secret >> .env`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("QUOTEDESK_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			res, err := opts.apiClient().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "QUOTEDESK_TOKEN=%s\n", res.Access)
			fmt.Fprintf(out, "QUOTEDESK_REFRESH=%s\n", res.Refresh)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or QUOTEDESK_PASSWORD)")
	return cmd
}

func newDocumentCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "document",
		Short: "Inspect quotations and invoices",
	}
	var version int
	show := &cobra.Command{
		Use:     "show quotation|invoice ID",
		Short:   "Print a document version with its totals and status history",
		Example: "  quotedesk-cli document show quotation 12 --version 2",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := pricing.ParseKind(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid document id %q", args[1])
			}
			doc, err := opts.apiClient().GetDocument(cmd.Context(), kind, id)
			if err != nil {
				return err
			}
			v := doc.Latest()
			if version > 0 {
				v = doc.FindVersion(version)
			}
			if v == nil {
				return fmt.Errorf("%s %d has no version %d", kind, id, version)
			}
			return printDocument(cmd.OutOrStdout(), doc, v)
		},
	}
	show.Flags().IntVar(&version, "version", 0, "version number (default: latest)")
	cmd.AddCommand(show)
	return cmd
}

func printDocument(out io.Writer, doc *documents.Document, v *documents.Version) error {
	fmt.Fprintf(out, "%s  %s\n", doc.ReferenceNumber, doc.CustomerDisplayName)
	fmt.Fprintf(out, "Version %d of %v  %s  %s to %s\n\n",
		v.Version, doc.VersionNumbers(), v.Status.Label(), v.IssueDate, v.ExpiryDate)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tItem\tQty\tUnit price\tDiscount\tTotal\t")
	for i, item := range v.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n", i+1, item.Detail, item.Quantity.String(),
			pricing.FormatMoney(item.UnitPrice), pricing.FormatMoney(item.Discount), pricing.FormatMoney(item.TotalAmount))
	}
	for _, adj := range v.Adjustments {
		name := adj.CategoryName
		if name == "" {
			name = adj.Category
		}
		fmt.Fprintf(tw, "\t%s\t\t\t\t%s\t\n", name, pricing.FormatMoney(adj.Amount))
	}
	fmt.Fprintf(tw, "\tSubtotal\t\t\t\t%s\t\n", pricing.FormatMoney(v.SubtotalPrice))
	fmt.Fprintf(tw, "\tTotal\t\t\t\t%s\t\n", pricing.FormatMoney(v.TotalPrice))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(doc.StatusChanges) > 0 {
		fmt.Fprintln(out, "\nHistory:")
		for _, c := range doc.StatusChanges {
			fmt.Fprintf(out, "  %s  %s\n", c.ChangeDate.Format("2006-01-02 15:04"), c.Describe())
		}
	}
	return nil
}

func newTotalsCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "totals FILE",
		Short: "Compute line totals, subtotal and total of a draft JSON file",
		Long: `Reads a draft in the version payload format ("items" and "adjustments")
from FILE, or from stdin when FILE is "-", and prints the figures the
server would persist. With --kind the draft is also validated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			var draft pricing.Draft
			if err := json.NewDecoder(r).Decode(&draft); err != nil {
				return fmt.Errorf("decode draft: %w", err)
			}
			draft.Items = draft.Items.Normalize()

			out := cmd.OutOrStdout()
			for i, item := range draft.Items {
				fmt.Fprintf(out, "%d. %s  %s\n", i+1, strings.TrimSpace(item.Detail), pricing.FormatMoney(item.TotalAmount))
			}
			totals := draft.Totals()
			fmt.Fprintf(out, "Subtotal: %s\n", pricing.FormatMoney(totals.Subtotal))
			fmt.Fprintf(out, "Total: %s\n", pricing.FormatMoney(totals.Total))

			if kind == "" {
				return nil
			}
			k, err := pricing.ParseKind(kind)
			if err != nil {
				return err
			}
			if draft.Status == "" {
				draft.Status = k.DefaultStatus()
			}
			return pricing.ValidateDraft(k, draft)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "validate the draft as a quotation or invoice")
	return cmd
}

func newLatestNumberCmd(opts *options) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:     "latest-number QUOTATION|INVOICE|RECEIPT",
		Short:   "Show the next suggested document number",
		Args:    cobra.ExactArgs(1),
		Example: "  quotedesk-cli latest-number QUOTATION --user 4",
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := opts.apiClient().LatestNumber(cmd.Context(), strings.ToUpper(args[0]), userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), number)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user whose sequence to show (default: yourself)")
	return cmd
}

func newJobsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect housekeeping jobs",
	}
	trigger := &cobra.Command{
		Use:     "trigger TASK",
		Short:   "Enqueue attachments:sweep or idempotency:cleanup",
		Args:    cobra.ExactArgs(1),
		Example: "  quotedesk-cli jobs trigger attachments:sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			jc := dialJobs(opts.redisAddr)
			defer jc.Close()
			info, err := jc.trigger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show queue depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jc := dialJobs(opts.redisAddr)
			defer jc.Close()
			s, err := jc.stats()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
			return nil
		},
	}
	cmd.AddCommand(trigger, stats)
	return cmd
}
