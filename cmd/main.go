package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"autotrader/cmd/dispatcher"
	"autotrader/cmd/listener"
	"autotrader/src/connectors"
	"autotrader/src/database"
	"autotrader/src/model"
	"autotrader/src/repository"
	"autotrader/src/security"
	"autotrader/src/server"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Autotrader CMD"
	app.Usage = "The autotrader command line interface"

	app.Commands = []cli.Command{
		serverCMD,
		dispatcherCMD,
		listenerCMD,
		addAccountCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serverCMD = cli.Command{
		Name:        "server",
		Usage:       "run the API server",
		Action:      serverAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Serve the auto-trading HTTP API. The execute route places live
orders under in-process quota locks; do not run it alongside a separate
dispatcher process (see the dispatcher command).`,
	}
	dispatcherCMD = cli.Command{
		Name:        "dispatcher",
		Usage:       "run the signal dispatch loop",
		Action:      dispatcherAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Poll pending signals and execute them for every user with auto-trading enabled.
The daily trade quota is enforced with in-process locks: run a single
dispatcher, and do not serve the execute API from a separate process at the
same time.`,
	}
	listenerCMD = cli.Command{
		Name:        "listener",
		Usage:       "run the signal feed listener",
		Action:      listenerAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Subscribe to the websocket signal feed and persist inbound signals`,
	}
	addAccountCMD = cli.Command{
		Name:      "addaccount",
		Usage:     "store encrypted exchange credentials for a user",
		Action:    addAccountAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.UintFlag{Name: "user-id", Usage: "owning user ID"},
			cli.StringFlag{Name: "exchange", Usage: "exchange name (binance, phemex)"},
			cli.StringFlag{Name: "api-key", Usage: "exchange API key"},
			cli.StringFlag{Name: "api-secret", Usage: "exchange API secret"},
			cli.BoolFlag{Name: "testnet", Usage: "route orders to the exchange testnet"},
		},
		Description: `Encrypt the given credentials and create an exchange account row`,
	}
)

func serverAction(_ *cli.Context) error {
	logrus.Info("Starting server CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return err
	}

	server.StartServer(server.GetConfig().Port)
	return nil
}

func dispatcherAction(_ *cli.Context) error {
	logrus.Info("Starting dispatcher CMD")

	d := &dispatcher.Dispatcher{}
	if err := d.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func listenerAction(_ *cli.Context) error {
	logrus.Info("Starting listener CMD")

	l := &listener.Listener{}
	if err := l.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func addAccountAction(c *cli.Context) error {
	userID := c.Uint("user-id")
	exchange := c.String("exchange")
	apiKey := c.String("api-key")
	apiSecret := c.String("api-secret")

	if userID == 0 || exchange == "" || apiKey == "" || apiSecret == "" {
		return errors.New("user-id, exchange, api-key and api-secret are required")
	}
	if _, err := connectors.ParseExchange(exchange); err != nil {
		return err
	}

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return err
	}

	encryptedKey, err := security.EncryptString(apiKey)
	if err != nil {
		logrus.WithError(err).Error("Failed to encrypt API key")
		return err
	}
	encryptedSecret, err := security.EncryptString(apiSecret)
	if err != nil {
		logrus.WithError(err).Error("Failed to encrypt API secret")
		return err
	}

	account := &model.ExchangeAccount{
		UserID:             userID,
		Exchange:           exchange,
		APIKeyEncrypted:    encryptedKey,
		APISecretEncrypted: encryptedSecret,
		Enabled:            true,
		Testnet:            c.Bool("testnet"),
	}

	accountRep := repository.NewExchangeAccountRepository()
	if err := accountRep.Create(context.Background(), account); err != nil {
		logrus.WithError(err).Error("Failed to create exchange account")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"account_id": account.ID,
		"user_id":    account.UserID,
		"exchange":   account.Exchange,
	}).Info("Exchange account created")

	return nil
}
