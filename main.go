package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/customeros/invoicextract/config"
	"github.com/customeros/invoicextract/server"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("invoicextract: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "invoicextract",
		Usage: "extract electronic invoices from mailboxes",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Start the scheduler and HTTP server",
				Action: runServer,
			},
			{
				Name:   "once",
				Usage:  "Process every active mailbox once and exit",
				Action: runOnce,
			},
		},
	}
}

func newServer() (*server.Server, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, err
	}
	return server.NewServer(cfg)
}

func runServer(*cli.Context) error {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("invoicextract starting up...")

	srv, err := newServer()
	if err != nil {
		return err
	}
	if err := srv.Run(); err != nil {
		return err
	}
	log.Println("Shutdown complete")
	return nil
}

func runOnce(c *cli.Context) error {
	srv, err := newServer()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.RunOnce(ctx)
}
