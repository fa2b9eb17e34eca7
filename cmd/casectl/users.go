package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pesio-ai/be-fraud-cases/internal/app"
	"github.com/pesio-ai/be-fraud-cases/internal/auth"
	"github.com/pesio-ai/be-fraud-cases/internal/logger"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
	"github.com/pesio-ai/be-fraud-cases/internal/rpc"
	"github.com/pesio-ai/be-fraud-cases/internal/workflow"
)

var usersFlags struct {
	remote bool
	as     string
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage the user directory",
}

var usersImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Bulk import users from CSV",
	Long: `Bulk import users from a CSV file with a header row. Recognised columns:
user_id, display_name, email, team, role, all_roles, active.
Missing active defaults to true.

By default the import writes straight to the configured store as an Admin.
With --remote it goes through the running service and needs an Admin token.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		users, err := parseUsersCSV(f)
		if err != nil {
			return err
		}

		var n int
		if usersFlags.remote {
			n, err = importRemote(cmd.Context(), users)
		} else {
			n, err = importLocal(cmd.Context(), users)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d users\n", n)
		return nil
	},
}

func init() {
	usersImportCmd.Flags().BoolVar(&usersFlags.remote, "remote", false, "import through the gRPC service instead of the local store")
	usersImportCmd.Flags().StringVar(&usersFlags.as, "as", "casectl", "user id recorded on the audit entry for local imports")
	usersCmd.AddCommand(usersImportCmd)
	rootCmd.AddCommand(usersCmd)
}

func importRemote(ctx context.Context, users []*rpc.User) (int, error) {
	c, err := dialCases()
	if err != nil {
		return 0, err
	}
	defer c.Close()

	resp, err := c.ImportUsers(ctx, &rpc.ImportUsersRequest{Users: users})
	if err != nil {
		return 0, err
	}
	return int(resp.Imported), nil
}

func importLocal(ctx context.Context, users []*rpc.User) (int, error) {
	cfg, err := loadConfig()
	if err != nil {
		return 0, err
	}
	log := logger.New(logger.Config{
		Level:       "warn",
		Environment: cfg.Service.Environment,
		ServiceName: "casectl",
		Version:     cfg.Service.Version,
	})

	store, err := app.OpenStore(ctx, cfg.Database, log)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	svc := app.NewServices(store, nil, app.SLAPolicy(cfg.SLA), log)
	admin := auth.ActorFromUser(&repository.User{UserID: usersFlags.as, Role: workflow.RoleAdmin, Active: true})

	rows := make([]*repository.User, len(users))
	for i, u := range users {
		rows[i] = &repository.User{
			UserID:      u.UserID,
			DisplayName: u.DisplayName,
			Email:       u.Email,
			Team:        u.Team,
			Role:        workflow.Role(u.Role),
			AllRoles:    u.AllRoles,
			Active:      u.Active,
		}
	}
	return svc.Directory.ImportUsers(ctx, admin, rows)
}

// parseUsersCSV reads a header-led CSV into wire users. Column names are
// matched case-insensitively; unknown columns are ignored.
func parseUsersCSV(r io.Reader) ([]*rpc.User, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv is empty")
		}
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"user_id", "role"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv header is missing %q", required)
		}
	}

	var users []*rpc.User
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		field := func(name string) string {
			if i, ok := cols[name]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		u := &rpc.User{
			UserID:      field("user_id"),
			DisplayName: field("display_name"),
			Email:       field("email"),
			Team:        field("team"),
			Role:        field("role"),
			Active:      true,
		}
		if v := field("all_roles"); v != "" {
			if u.AllRoles, err = strconv.ParseBool(v); err != nil {
				return nil, fmt.Errorf("line %d: all_roles: %w", line, err)
			}
		}
		if v := field("active"); v != "" {
			if u.Active, err = strconv.ParseBool(v); err != nil {
				return nil, fmt.Errorf("line %d: active: %w", line, err)
			}
		}
		users = append(users, u)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("csv has no user rows")
	}
	return users, nil
}
