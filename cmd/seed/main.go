package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-wallet-accounts/config"
	"github.com/oksasatya/go-wallet-accounts/internal/application"
	"github.com/oksasatya/go-wallet-accounts/internal/container"
	"github.com/oksasatya/go-wallet-accounts/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	repo, closeRepo, err := container.OpenAccountRepo(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open account store: %v", err)
	}
	defer closeRepo()

	svc := application.NewAccountService(repo, logger, application.WithPasswordHashing(cfg.PasswordHashing))

	username := "demoUser"
	email := "demo@example.com"
	password := "password123"
	res, err := svc.Create(ctx, application.CreateAccountInput{Username: username, Email: email, Password: password})
	if errors.Is(err, application.ErrConflict) {
		fmt.Printf("account %s already exists\n", username)
		return
	}
	if err != nil {
		log.Fatalf("failed to seed account: %v", err)
	}
	helpers.LogInfo(logger, "seeded account", logrus.Fields{"username": username, "wallet_address": res.WalletAddress})
	fmt.Printf("seeded account: username=%s email=%s password=%s walletAddress=%s\n", username, email, password, res.WalletAddress)
}
