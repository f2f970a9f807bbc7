package main

import (
	"context"
	"os"
	"time"

	"github.com/shandysiswandi/sigil/internal/app"
)

func main() {
	application := app.New()               // Initialize the application
	wait := application.Start(os.Args[1:]) // Run the command until it finishes or a signal arrives
	<-wait                                 // Wait for the command to finish
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	application.Stop(ctx) // Stop the application gracefully
	cancel()
	os.Exit(application.ExitCode())
}
