package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"clinic-api/internal/config"
	"clinic-api/internal/database"
	"clinic-api/internal/model"
	"clinic-api/internal/repository"
	"clinic-api/internal/service"
)

func hashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for seeding users by hand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := service.NewPasswordVerifier(cost).Hash(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}

	cmd.Flags().IntVar(&cost, "cost", 12, fmt.Sprintf("bcrypt cost (%d-%d)", bcrypt.MinCost, bcrypt.MaxCost))
	return cmd
}

type createUserOptions struct {
	username  string
	password  string
	role      string
	staffID   int64
	email     string
	lastName  string
	firstName string
}

func createUserCmd() *cobra.Command {
	var opts createUserOptions

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Provision a staff login",
		Long: "Creates a user account. Pass --staff-id to link an existing staff row, " +
			"or --last-name/--first-name to create the staff row in the same transaction.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDatabase()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			setupLogger(cfg)

			db, err := database.New(cmd.Context(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if err := db.EnsureSchema(cmd.Context()); err != nil {
				return err
			}

			user, err := createUser(cmd.Context(), db, cfg, opts)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id=%d, role=%s)\n", user.Username, user.ID, user.Role)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.username, "username", "", "login name")
	flags.StringVar(&opts.password, "password", "", "initial password (min 8 characters)")
	flags.StringVar(&opts.role, "role", "", "DOCTOR, NURSE, RECEPTIONIST or ADMIN")
	flags.Int64Var(&opts.staffID, "staff-id", 0, "existing staff id to link")
	flags.StringVar(&opts.email, "email", "", "contact email")
	flags.StringVar(&opts.lastName, "last-name", "", "staff last name when creating a staff row")
	flags.StringVar(&opts.firstName, "first-name", "", "staff first name when creating a staff row")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("role")
	cmd.MarkFlagsMutuallyExclusive("staff-id", "last-name")

	return cmd
}

func createUser(ctx context.Context, db *database.DB, cfg *config.Config, opts createUserOptions) (model.User, error) {
	users := repository.NewUserRepository(db)
	auth := service.NewAuthService(users, service.NewPasswordVerifier(cfg.BcryptCost), service.LockoutPolicy{}, nil, nil)

	var created model.User
	err := db.WithTx(ctx, func(ctx context.Context) error {
		var staffID *int64
		if opts.staffID > 0 {
			staffID = &opts.staffID
		}

		if last := strings.TrimSpace(opts.lastName); last != "" {
			id, err := users.CreateStaff(ctx, last, strings.TrimSpace(opts.firstName), nil)
			if err != nil {
				return fmt.Errorf("create staff: %w", err)
			}
			staffID = &id
		}

		var email *string
		if trimmed := strings.TrimSpace(opts.email); trimmed != "" {
			email = &trimmed
		}

		user, err := auth.CreateUser(ctx, opts.username, opts.password, opts.role, staffID, email)
		if err != nil {
			return err
		}
		created = user
		return nil
	})

	return created, err
}
