package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcp "github.com/tonyzorin/youtrack-mcp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := mcp.Run(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
