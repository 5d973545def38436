package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCreateAdminCmd() *cobra.Command {
	var (
		email     string
		password  string
		firstName string
		lastName  string
	)
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the first administrator account",
		Long: `Create an administrator who can sign in and manage the other users.

The password may also be given through CRM_ADMIN_PASSWORD so it stays out
of the shell history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("CRM_ADMIN_PASSWORD")
			}
			db, err := openDatabase(state.cfg, state.log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			user, err := createAdmin(cmd.Context(), persistence.NewGormUserRepository(db.DB), email, firstName, lastName, password)
			if err != nil {
				return err
			}
			state.log.Info("Administrator created",
				zap.String("user_id", user.ID.String()),
				zap.String("email", user.Email),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "sign-in email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&firstName, "first-name", "Admin", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func createAdmin(ctx context.Context, users identity.UserRepository, email, firstName, lastName, password string) (*identity.User, error) {
	if password == "" {
		return nil, errors.New("a password is required (--password or CRM_ADMIN_PASSWORD)")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	exists, err := users.ExistsByEmail(ctx, email, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("a user with email %s already exists", email)
	}

	user, err := identity.NewUser(email, firstName, lastName, identity.RoleAdmin, password)
	if err != nil {
		return nil, err
	}
	if err := users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
