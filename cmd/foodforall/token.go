package main

import (
	"fmt"

	"foodforall/internal/auth"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var tokenCommand = &cli.Command{
	Name:  "token",
	Usage: "Mint a sealed identity cookie for manual API testing",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Aliases:  []string{"e"},
			Usage:    "Email the token identifies",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Optional display name claim",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c.String("env-prefix"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cfg.CookieHashKey == "" {
			logrus.Warn("COOKIE_HASH_KEY is not set; the server will not accept this cookie")
		}

		issuer, err := auth.NewIssuer([]byte(cfg.TokenSecret), cfg.TokenTTL)
		if err != nil {
			return err
		}

		jar, err := auth.NewCookieJar(auth.CookieConfig{
			Name:     cfg.CookieName,
			HashKey:  cfg.CookieHashKey,
			BlockKey: cfg.CookieBlockKey,
			MaxAge:   cfg.TokenTTL,
		})
		if err != nil {
			return err
		}

		token, expiresAt, err := issuer.Issue(auth.Identity{Email: c.String("email"), Name: c.String("name")})
		if err != nil {
			return err
		}

		value, err := jar.Encode(token)
		if err != nil {
			return err
		}

		fmt.Printf("Cookie: %s=%s\n", jar.Name(), value)
		logrus.WithField("expires_at", expiresAt).Info("token minted")

		return nil
	},
}
