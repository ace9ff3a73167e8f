package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vidtube-accounts/config"
	"github.com/oksasatya/vidtube-accounts/internal/application"
	"github.com/oksasatya/vidtube-accounts/internal/domain/apperror"
	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
	"github.com/oksasatya/vidtube-accounts/internal/domain/repository"
	pginfra "github.com/oksasatya/vidtube-accounts/internal/infrastructure/postgres"
	"github.com/oksasatya/vidtube-accounts/pkg/helpers"
)

// Every demo user signs in with this password. Re-running the seed is safe:
// existing users, videos and watch history are reused.
const demoPassword = "password123"

var demoUsers = []application.NewCredential{
	{Username: "alice", Email: "alice@example.com", DisplayName: "Alice"},
	{Username: "bob", Email: "bob@example.com", DisplayName: "Bob"},
	{Username: "carol", Email: "carol@example.com", DisplayName: "Carol"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolConfig{MaxConns: 2, MinConns: 1, MaxConnLife: cfg.DBMaxConnLife})
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	graphRepo := pginfra.NewGraphRepository(pool)
	creds := application.NewCredentialStore(users, helpers.NewBcryptHasher(cfg.BcryptCost))
	graph := application.NewGraphService(graphRepo, logger)

	seeded := make(map[string]*entity.User, len(demoUsers))
	for _, in := range demoUsers {
		in.Password = demoPassword
		in.AvatarURL = fmt.Sprintf("https://api.dicebear.com/7.x/identicon/svg?seed=%s", in.Username)
		u, err := creds.Create(ctx, in)
		if apperror.KindOf(err) == apperror.KindConflict {
			u, err = creds.FindByIdentity(ctx, in.Username, in.Email)
		}
		if err != nil {
			logger.Fatalf("seed user %s: %v", in.Username, err)
		}
		seeded[u.Username] = u
		helpers.LogInfo(logger, "seeded user", logrus.Fields{"id": u.ID, "username": u.Username})
	}

	alice, bob, carol := seeded["alice"], seeded["bob"], seeded["carol"]

	videos := []*entity.Video{
		{OwnerID: alice.ID, Title: "Getting started", Description: "First upload", Duration: 61.5, IsPublished: true},
		{OwnerID: alice.ID, Title: "Behind the scenes", Description: "How the channel is made", Duration: 300, IsPublished: true},
		{OwnerID: bob.ID, Title: "Bob's vlog", Description: "Day one", Duration: 120, IsPublished: true},
	}
	for i, v := range videos {
		id, err := graphRepo.FindVideoID(ctx, v.OwnerID, v.Title)
		if err == nil {
			v.ID = id
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Fatalf("look up video %q: %v", v.Title, err)
		}
		v.VideoFile = fmt.Sprintf("https://cdn.example.com/videos/%d.mp4", i+1)
		v.Thumbnail = fmt.Sprintf("https://cdn.example.com/thumbs/%d.jpg", i+1)
		if err := graphRepo.CreateVideo(ctx, v); err != nil {
			logger.Fatalf("seed video %q: %v", v.Title, err)
		}
	}

	subs := [][2]*entity.User{{bob, alice}, {carol, alice}, {alice, bob}}
	for _, s := range subs {
		if err := graphRepo.Subscribe(ctx, s[0].ID, s[1].ID); err != nil {
			logger.Fatalf("seed subscription %s -> %s: %v", s[0].Username, s[1].Username, err)
		}
	}

	history, err := graph.GetWatchHistory(ctx, bob.ID)
	if err != nil {
		logger.Fatalf("load watch history: %v", err)
	}
	if len(history) == 0 {
		for _, v := range []*entity.Video{videos[0], videos[2], videos[1]} {
			if err := graph.RecordWatch(ctx, bob.ID, v.ID); err != nil {
				logger.Fatalf("seed watch history: %v", err)
			}
		}
	}

	helpers.LogInfo(logger, "seed complete", logrus.Fields{"users": len(seeded), "videos": len(videos), "subscriptions": len(subs)})
}
