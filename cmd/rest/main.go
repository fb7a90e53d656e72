package main

import (
	"context"
	"log"

	"bank-chatbot-be/internal/bootstrap"
	"bank-chatbot-be/internal/config"
	"bank-chatbot-be/internal/server"
	"bank-chatbot-be/internal/tracer"
	"bank-chatbot-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Provision the cached inference context. Startup fails without it.
	if _, err := container.Provisioner.Provision(context.Background()); err != nil {
		log.Panicf("Unable to provision context cache: %v", err)
	}

	// 5. Start Background Services
	go func() {
		log.Println("Background: Starting Audit Consumer...")
		if err := container.AuditService.Consume(context.Background()); err != nil {
			log.Printf("Background Audit Consumer Error: %v", err)
		}
	}()
	go container.Sweeper.Run(context.Background())

	// 6. Initialize Server
	srv := server.New(cfg, container)

	// 7. Run Server
	log.Fatal(srv.Run())
}
