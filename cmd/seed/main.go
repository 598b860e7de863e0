// Package main provides a tool to seed the database with development data.
//
// It creates a handful of users, stacks and stakes so the feed, signals
// and alignment endpoints have something to show.
//
// Usage:
//
//	DATA_PATH=~/Stacked/data go run ./cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/stackedapp/stacked-server/internal/auth"
	"github.com/stackedapp/stacked-server/internal/config"
	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/id"
	"github.com/stackedapp/stacked-server/internal/service"
	"github.com/stackedapp/stacked-server/internal/store"
	"github.com/stackedapp/stacked-server/internal/store/ledger"
)

var seedPassword = flag.String("password", "stacked-dev", "Password for all seeded users")

type seedStack struct {
	title    string
	category domain.Category
	items    []string
}

var seedUsers = []string{"nova", "atlas", "quill", "vesper"}

var seedStacks = []seedStack{
	{"Top DeFi protocols", domain.CategoryDeFi, []string{"Uniswap", "Aave", "Maker", "Curve"}},
	{"L2s worth watching", domain.CategoryInfrastructure, []string{"Arbitrum", "Optimism", "Base"}},
	{"AI agents that matter", domain.CategoryAI, []string{"AutoGPT", "LangChain", "Claude"}},
	{"Identity primitives", domain.CategoryIdentity, []string{"ENS", "Lens Protocol", "Farcaster"}},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/Stacked/data")
	}

	fmt.Printf("Seeding data at: %s\n", dataPath)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	s, err := store.New(filepath.Join(dataPath, "entities"), nil, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	l, err := ledger.Open(filepath.Join(dataPath, "ledger.db"), logger)
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}
	defer l.Close()

	ctx := context.Background()

	signalSvc := service.NewSignalService(s, l, config.SignalsConfig{}, nil, logger)
	notificationSvc := service.NewNotificationService(s, nil, logger)
	atomSvc := service.NewAtomService(s, nil, logger)
	stackSvc := service.NewStackService(s, l, atomSvc, signalSvc, notificationSvc, nil, logger)
	stakeSvc := service.NewLedgerService(s, l, nil, signalSvc, notificationSvc, nil, logger)

	users := createSeedUsers(ctx, s)
	stacks := createSeedStacks(ctx, stackSvc, users)
	placeSeedStakes(ctx, stakeSvc, users, stacks)

	fmt.Printf("Seeded %d users and %d stacks\n", len(users), len(stacks))
}

func createSeedUsers(ctx context.Context, s *store.Store) []*domain.User {
	hash, err := auth.HashPassword(*seedPassword)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	users := make([]*domain.User, 0, len(seedUsers))
	for _, username := range seedUsers {
		user := &domain.User{
			ID:           id.MustGenerate(id.PrefixUser),
			Username:     username,
			DisplayName:  username,
			Email:        username + "@stacked.dev",
			PasswordHash: hash,
			CreatedAt:    time.Now(),
		}
		if err := s.Users.Create(ctx, user.ID, user); err != nil {
			// Probably reseeding over an existing database.
			existing, lookupErr := s.Users.GetByIndex(ctx, "username", username)
			if lookupErr != nil {
				log.Fatalf("Failed to create user %s: %v", username, err)
			}
			user = existing
		}
		users = append(users, user)
	}
	return users
}

func createSeedStacks(ctx context.Context, stacks *service.StackService, users []*domain.User) []*domain.Stack {
	created := make([]*domain.Stack, 0, len(seedStacks))
	for i, seed := range seedStacks {
		creator := users[i%len(users)]

		items := make([]service.NewItemParams, 0, len(seed.items))
		for _, label := range seed.items {
			items = append(items, service.NewItemParams{Label: label})
		}

		stack, err := stacks.CreateStack(ctx, creator.ID, service.CreateStackParams{
			Title:    seed.title,
			Category: seed.category,
			Items:    items,
		})
		if err != nil {
			log.Printf("Skipping stack %q: %v", seed.title, err)
			continue
		}
		fmt.Printf("Created stack %q (%s)\n", stack.Title, stack.ID)
		created = append(created, stack)
	}
	return created
}

func placeSeedStakes(ctx context.Context, stakes *service.LedgerService, users []*domain.User, created []*domain.Stack) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, stack := range created {
		for _, user := range users {
			if user.ID == stack.CreatorID {
				continue
			}
			amount := int64(rng.Intn(400) + 50)
			_, err := stakes.RecordStake(ctx, user.ID, service.StakeParams{
				TargetType: domain.TargetStack,
				TargetID:   stack.ID,
				Amount:     amount,
			})
			if err != nil {
				log.Printf("Stake on %s by %s failed: %v", stack.ID, user.Username, err)
			}
		}
	}
}
