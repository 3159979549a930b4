package http_test

import (
	"context"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/pinrecover/internal/extraction"
	httpserver "github.com/fyrsmithlabs/pinrecover/internal/http"
	"github.com/fyrsmithlabs/pinrecover/internal/logging"
	"github.com/fyrsmithlabs/pinrecover/internal/recovery"
	"github.com/fyrsmithlabs/pinrecover/internal/scanner"
)

// ExampleServer shows how to build and run the scan API.
func ExampleServer() {
	sc, err := scanner.New(scanner.DefaultConfig(), extraction.Default())
	if err != nil {
		panic(err)
	}
	svc, err := recovery.NewService(sc)
	if err != nil {
		panic(err)
	}

	server, err := httpserver.NewServer(svc, logging.NewNop(), &httpserver.Config{
		Host:     "localhost",
		Port:     9191,
		ScanRoot: "/var/lib/pinrecover",
	})
	if err != nil {
		panic(err)
	}

	go func() {
		if err := server.Start(); err != nil {
			fmt.Printf("server stopped: %v\n", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}
