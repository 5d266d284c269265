// MBFlow Server - workflow execution engine
package main

import (
	"log"
	"os"

	"github.com/smilemakc/mbflow/go/pkg/server"
)

func main() {
	srv, err := server.New()
	if err != nil {
		log.Fatalf("failed to initialize server: %v", err)
	}

	if err := srv.Run(); err != nil {
		srv.Logger().Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
