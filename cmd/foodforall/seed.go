package main

import (
	"context"
	"fmt"
	"time"

	"foodforall/internal/seed"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the store with sample donors and food listings",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Print the sample listings instead of writing them",
		},
	},
	Action: func(c *cli.Context) error {
		now := time.Now()

		if c.Bool("dry-run") {
			pp.Println(seed.Users())
			pp.Println(seed.Foods(now))
			return nil
		}

		cfg, err := loadConfig(c.String("env-prefix"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		repos, err := openStores(ctx, cfg, logrus.StandardLogger())
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer repos.close()

		logrus.Info("Seeding food listings...")
		n, err := seed.SeedFoods(ctx, repos.foods, repos.users, now)
		if err != nil {
			return fmt.Errorf("failed to seed foods: %w", err)
		}

		logrus.WithField("count", n).Info("Food listings seeded successfully")

		return nil
	},
}
