package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pesio-ai/be-fraud-cases/internal/client"
	"github.com/pesio-ai/be-fraud-cases/internal/rpc"
)

const callTimeout = 30 * time.Second

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Work with fraud cases over gRPC",
}

var listFlags rpc.ListCasesRequest

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cases, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCases(cmd, func(ctx context.Context, c *client.CasesGRPCClient) error {
			resp, err := c.ListCases(ctx, &listFlags)
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(resp.Cases))
			for _, cs := range resp.Cases {
				rows = append(rows, caseRow(cs))
			}
			if err := render(cmd.OutOrStdout(), rootFlags.output, resp, caseHeader, rows); err != nil {
				return err
			}
			if rootFlags.output == outputTable {
				fmt.Fprintf(cmd.OutOrStdout(), "page %d, %d of %d cases\n", resp.Page, len(resp.Cases), resp.Total)
			}
			return nil
		})
	},
}

var casesGetCmd = &cobra.Command{
	Use:   "get <case-id>",
	Short: "Show one case with its SLA and allowed transitions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCases(cmd, func(ctx context.Context, c *client.CasesGRPCClient) error {
			cs, err := c.GetCase(ctx, &rpc.GetCaseRequest{CaseID: args[0]})
			if err != nil {
				return err
			}
			return renderCaseDetail(cmd, cs)
		})
	},
}

var createFlags struct {
	rpc.CreateCaseRequest
	customer rpc.Customer
}

var casesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new case",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		req := createFlags.CreateCaseRequest
		if createFlags.customer != (rpc.Customer{}) {
			customer := createFlags.customer
			req.Customer = &customer
		}
		return withCases(cmd, func(ctx context.Context, c *client.CasesGRPCClient) error {
			cs, err := c.CreateCase(ctx, &req)
			if err != nil {
				return err
			}
			return renderCaseDetail(cmd, cs)
		})
	},
}

var transitionRationale string

var casesTransitionCmd = &cobra.Command{
	Use:   "transition <case-id> <status>",
	Short: "Move a case to a new status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &rpc.TransitionCaseRequest{CaseID: args[0], Status: args[1]}
		if cmd.Flags().Changed("rationale") {
			req.Rationale = &transitionRationale
		}
		return withCases(cmd, func(ctx context.Context, c *client.CasesGRPCClient) error {
			cs, err := c.TransitionCase(ctx, req)
			if err != nil {
				return err
			}
			return renderCaseDetail(cmd, cs)
		})
	},
}

var commentType string

var casesCommentCmd = &cobra.Command{
	Use:   "comment <case-id> <text>",
	Short: "Add a comment to a case",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCases(cmd, func(ctx context.Context, c *client.CasesGRPCClient) error {
			cm, err := c.AddComment(ctx, &rpc.AddCommentRequest{CaseID: args[0], Text: args[1], CommentType: commentType})
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), rootFlags.output, cm,
				table.Row{"ID", "Type", "By", "At", "Text"},
				[]table.Row{{cm.ID, cm.CommentType, cm.CreatedBy, stamp(cm.CreatedAt), cm.Text}})
		})
	},
}

var auditLimit int32

var casesAuditCmd = &cobra.Command{
	Use:   "audit [case-id]",
	Short: "Show the audit trail of a case, or the global feed",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &rpc.AuditTrailRequest{Limit: auditLimit}
		if len(args) == 1 {
			req.CaseID = args[0]
		}
		return withCases(cmd, func(ctx context.Context, c *client.CasesGRPCClient) error {
			resp, err := c.GetAuditTrail(ctx, req)
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(resp.Entries))
			for _, e := range resp.Entries {
				rows = append(rows, table.Row{e.ID, e.CaseID, e.Action, e.PerformedBy, stamp(e.PerformedAt), e.Detail})
			}
			return render(cmd.OutOrStdout(), rootFlags.output, resp,
				table.Row{"ID", "Case", "Action", "By", "At", "Detail"}, rows)
		})
	},
}

func init() {
	lf := casesListCmd.Flags()
	lf.StringVar(&listFlags.Status, "status", "", "filter by status")
	lf.StringVar(&listFlags.CaseType, "case-type", "", "filter by case type")
	lf.StringVar(&listFlags.Product, "product", "", "filter by product")
	lf.StringVar(&listFlags.Region, "region", "", "filter by region")
	lf.StringVar(&listFlags.CreatedBy, "created-by", "", "filter by creator")
	lf.StringVarP(&listFlags.Query, "query", "q", "", "free-text search")
	lf.Int32Var(&listFlags.Page, "page", 1, "page number")
	lf.Int32Var(&listFlags.PageSize, "page-size", 50, "cases per page")

	cf := casesCreateCmd.Flags()
	cf.StringVar(&createFlags.CaseID, "case-id", "", "explicit case id (generated when empty)")
	cf.StringVar(&createFlags.LAN, "lan", "", "loan account number")
	cf.StringVar(&createFlags.CaseType, "case-type", "", "case type")
	cf.StringVar(&createFlags.Product, "product", "", "product")
	cf.StringVar(&createFlags.Region, "region", "", "region")
	cf.StringVar(&createFlags.ReferredBy, "referred-by", "", "referring unit")
	cf.StringVar(&createFlags.Description, "description", "", "case description")
	cf.StringVar(&createFlags.CaseDate, "case-date", "", "case date YYYY-MM-DD (defaults to today)")
	cf.StringVar(&createFlags.Status, "status", "", "initial status (Draft or Submitted)")
	cf.StringVar(&createFlags.customer.Name, "customer-name", "", "customer name")
	cf.StringVar(&createFlags.customer.PAN, "customer-pan", "", "customer PAN")
	cf.StringVar(&createFlags.customer.Mobile, "customer-mobile", "", "customer mobile")
	cf.StringVar(&createFlags.customer.Email, "customer-email", "", "customer email")
	for _, name := range []string{"case-type", "product", "region", "referred-by", "description"} {
		_ = casesCreateCmd.MarkFlagRequired(name)
	}

	casesTransitionCmd.Flags().StringVar(&transitionRationale, "rationale", "", "reason recorded with the transition")
	casesCommentCmd.Flags().StringVar(&commentType, "type", "", "comment type (defaults to General)")
	casesAuditCmd.Flags().Int32Var(&auditLimit, "limit", 0, "maximum entries to return")

	casesCmd.AddCommand(casesListCmd, casesGetCmd, casesCreateCmd, casesTransitionCmd, casesCommentCmd, casesAuditCmd)
	rootCmd.AddCommand(casesCmd)
}

func withCases(cmd *cobra.Command, fn func(ctx context.Context, c *client.CasesGRPCClient) error) error {
	c, err := dialCases()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), callTimeout)
	defer cancel()
	return fn(ctx, c)
}

var caseHeader = table.Row{"Case", "Status", "Type", "Product", "Region", "Created By", "Created"}

func caseRow(cs *rpc.Case) table.Row {
	return table.Row{cs.CaseID, cs.Status, cs.CaseType, cs.Product, cs.Region, cs.CreatedBy, stamp(cs.CreatedAt)}
}

func renderCaseDetail(cmd *cobra.Command, cs *rpc.Case) error {
	rows := []table.Row{
		{"Case", cs.CaseID},
		{"Status", cs.Status},
		{"Version", cs.Version},
		{"Type", cs.CaseType},
		{"Product", cs.Product},
		{"Region", cs.Region},
		{"Referred By", cs.ReferredBy},
		{"Case Date", cs.CaseDate},
		{"Created By", cs.CreatedBy},
		{"Created", stamp(cs.CreatedAt)},
		{"Updated", stamp(cs.UpdatedAt)},
	}
	if cs.LAN != "" {
		rows = append(rows, table.Row{"LAN", cs.LAN})
	}
	for _, st := range cs.Stages {
		rows = append(rows, table.Row{st.Stage, st.Actor + " @ " + stamp(st.At)})
	}
	if cs.SLA != nil {
		rows = append(rows,
			table.Row{"SLA", cs.SLA.Status},
			table.Row{"FMR1 Due", cs.SLA.FMR1Due},
			table.Row{"FMR3 Due", cs.SLA.FMR3Due},
		)
	}
	if len(cs.AllowedTransitions) > 0 {
		rows = append(rows, table.Row{"Next", strings.Join(cs.AllowedTransitions, ", ")})
	}
	return render(cmd.OutOrStdout(), rootFlags.output, cs, table.Row{"Field", "Value"}, rows)
}
