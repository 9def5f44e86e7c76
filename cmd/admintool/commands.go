package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/database"
	"github.com/VeeCC-T/ShieldHer/internal/fieldcrypt"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/repository"
	"github.com/VeeCC-T/ShieldHer/internal/security"
	"github.com/VeeCC-T/ShieldHer/internal/services"
	"github.com/spf13/cobra"
)

// errPasswordMismatch makes verify-password exit non-zero on a mismatch.
var errPasswordMismatch = errors.New("password does not match hash")

// newRootCmd builds the command tree. getenv supplies DATABASE_URL.
func newRootCmd(getenv func(string) string) *cobra.Command {
	root := &cobra.Command{
		Use:           "admintool",
		Short:         "ShieldHer administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newGenKeyCmd(),
		newHashPasswordCmd(),
		newVerifyPasswordCmd(),
		newCreateAdminCmd(getenv),
		newMigrateCmd(getenv),
	)
	return root
}

func newGenKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-key",
		Short: "Generate a new ENCRYPTION_KEY value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := fieldcrypt.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash of a password (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(cmd, args)
			if err != nil {
				return err
			}
			hash, err := services.HashPassword(password, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", security.DefaultSecurityConfig().BcryptCost, "bcrypt cost factor")
	return cmd
}

func newVerifyPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-password <hash> [password]",
		Short: "Check a password against a bcrypt hash",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(cmd, args[1:])
			if err != nil {
				return err
			}
			if !services.VerifyPassword(args[0], password) {
				return errPasswordMismatch
			}
			fmt.Fprintln(cmd.OutOrStdout(), "match")
			return nil
		},
	}
}

// createAdminOptions are the create-admin flags.
type createAdminOptions struct {
	Username string
	Email    string
	Role     string
	Password string
}

func newCreateAdminCmd(getenv func(string) string) *cobra.Command {
	var opts createAdminOptions
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin or moderator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Password == "" {
				password, err := passwordArg(cmd, nil)
				if err != nil {
					return err
				}
				opts.Password = password
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := connect(ctx, getenv); err != nil {
				return err
			}
			defer database.Close()

			return createAdmin(ctx, cmd.OutOrStdout(), opts, security.DefaultSecurityConfig())
		},
	}
	cmd.Flags().StringVar(&opts.Username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&opts.Role, "role", string(models.RoleAdmin), "admin or moderator")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// createAdmin validates opts and stores the account on database.DB.
func createAdmin(ctx context.Context, out io.Writer, opts createAdminOptions, cfg *security.SecurityConfig) error {
	username := strings.TrimSpace(opts.Username)
	if username == "" {
		return errors.New("username is required")
	}
	role, err := models.ParseRole(opts.Role)
	if err != nil {
		return err
	}

	validator := security.NewValidationService(cfg)
	if opts.Email != "" {
		if err := validator.ValidateEmail(opts.Email); err != nil {
			return err
		}
	}
	if err := validator.ValidatePassword(opts.Password); err != nil {
		return err
	}

	hash, err := services.HashPassword(opts.Password, cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.AdminUser{
		Username:     username,
		Email:        opts.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := repository.NewAdminUserRepository().Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create %s: %w", username, err)
	}

	fmt.Fprintf(out, "created %s %q (id %d)\n", user.Role, user.Username, user.ID)
	return nil
}

func newMigrateCmd(getenv func(string) string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	logf := func(out io.Writer) database.Logf {
		return func(format string, args ...interface{}) {
			fmt.Fprintf(out, format+"\n", args...)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				url, err := databaseURL(getenv)
				if err != nil {
					return err
				}
				return database.RunMigrations(url, logf(cmd.OutOrStdout()))
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				url, err := databaseURL(getenv)
				if err != nil {
					return err
				}
				if err := database.RollbackMigration(url); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "rolled back one migration")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				url, err := databaseURL(getenv)
				if err != nil {
					return err
				}
				version, dirty, err := database.GetMigrationVersion(url)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			},
		},
	)
	return cmd
}

func databaseURL(getenv func(string) string) (string, error) {
	url := getenv("DATABASE_URL")
	if url == "" {
		return "", errors.New("DATABASE_URL is not set")
	}
	return url, nil
}

func connect(ctx context.Context, getenv func(string) string) error {
	url, err := databaseURL(getenv)
	if err != nil {
		return err
	}
	return database.Connect(ctx, database.DefaultConfig(url))
}

// passwordArg returns args[0], or the first line of stdin when args is empty.
func passwordArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}
