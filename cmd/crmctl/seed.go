package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	leadapp "github.com/crm/backend/internal/application/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/event"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	leadSources   = []string{"web", "affiliate", "referral", "landing", "call"}
	leadLanguages = []string{"en", "de", "es", "fr", "it"}
)

func newSeedCmd() *cobra.Command {
	var (
		count    int
		campaign string
		owner    string
		seed     uint64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with fake leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return errors.New("--count must be positive")
			}
			db, err := openDatabase(state.cfg, state.log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			users := persistence.NewGormUserRepository(db.DB)
			entities := leadapp.NewEntityService(
				persistence.NewGormEntityRepository(db.DB),
				users,
				persistence.NewGormAccountTypeRepository(db.DB),
				event.NewInMemoryEventBus(state.log),
				state.log,
			)

			var ownerID *uuid.UUID
			if owner != "" {
				u, err := users.FindByEmail(cmd.Context(), owner)
				if err != nil {
					return fmt.Errorf("owner %s: %w", owner, err)
				}
				ownerID = &u.ID
			}

			created, skipped, err := seedLeads(cmd.Context(), entities, gofakeit.New(seed), count, campaign, ownerID)
			if err != nil {
				return err
			}
			state.log.Info("Seed finished", zap.Int("created", created), zap.Int("skipped", skipped))
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 100, "number of leads")
	cmd.Flags().StringVar(&campaign, "campaign", "seed", "campaign stamped on every lead")
	cmd.Flags().StringVar(&owner, "owner", "", "email of the agent the leads are assigned to")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "faker seed, 0 for random")
	return cmd
}

// seedLeads creates count leads. Email collisions are skipped; any other
// failure stops the run.
func seedLeads(ctx context.Context, entities *leadapp.EntityService, f *gofakeit.Faker, count int, campaign string, ownerID *uuid.UUID) (created, skipped int, err error) {
	for range count {
		input := fakeLead(f, campaign)
		input.OwnerID = ownerID
		if _, err := entities.Create(ctx, input); err != nil {
			var de *shared.DomainError
			if errors.As(err, &de) && de.Code == "ALREADY_EXISTS" {
				skipped++
				continue
			}
			return created, skipped, err
		}
		created++
	}
	return created, skipped, nil
}

func fakeLead(f *gofakeit.Faker, campaign string) leadapp.CreateEntityInput {
	return leadapp.CreateEntityInput{
		FirstName: f.FirstName(),
		LastName:  f.LastName(),
		Email:     f.Email(),
		Phone:     f.Phone(),
		Country:   f.CountryAbr(),
		Language:  f.RandomString(leadLanguages),
		Campaign:  campaign,
		Source:    f.RandomString(leadSources),
	}
}
