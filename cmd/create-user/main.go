// Command create-user registers an account without going through the API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/log"
	"expenses/internal/services"
)

func main() {
	username := flag.String("username", "", "username of the new account")
	password := flag.String("password", "", "password (prompted when omitted)")
	flag.Parse()

	cli.LoadEnvFile()
	cfg, logger := cli.LoadConfig(log.ComponentAuth, (*config.Config).ValidateShared)

	if *username == "" {
		fmt.Fprintln(os.Stderr, "usage: create-user -username NAME [-password PASS]")
		os.Exit(2)
	}

	pw := *password
	if pw == "" {
		var err error
		pw, err = prompt("Password: ")
		if err != nil {
			logger.Error("Failed to read password", log.FieldError, err)
			os.Exit(1)
		}
	}

	repo := cli.InitSQLite(logger, cfg)
	defer repo.Close()

	svc := services.NewTrackerService(repo, nil)
	id, err := svc.SignUp(context.Background(), *username, pw, pw)
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		logger.Error("Username already exists", "username", *username)
		os.Exit(1)
	case err != nil:
		logger.Error("Failed to create user", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("User created", log.FieldUserID, id, "username", *username)
}

func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
