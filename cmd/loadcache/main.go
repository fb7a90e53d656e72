// Provisions the cached inference context without starting the server.
// Useful after updating the reference document: the metadata file lets the
// next server start reuse the fresh cache immediately.
package main

import (
	"context"
	"log"

	"bank-chatbot-be/internal/config"
	"bank-chatbot-be/internal/constant"
	"bank-chatbot-be/internal/pkg/logger"
	"bank-chatbot-be/pkg/contextcache"
	"bank-chatbot-be/pkg/document"
	"bank-chatbot-be/pkg/genai"
)

func main() {
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	client := genai.NewClient(cfg.Keys.GoogleGemini, cfg.Chat.ModelName)
	holder := contextcache.NewHolder()
	provisioner := contextcache.NewProvisioner(
		client,
		document.NewLoader(),
		holder,
		contextcache.Config{
			DocumentPath:      cfg.Chat.DocumentPath,
			DisplayName:       cfg.Chat.CacheDisplayName,
			SystemInstruction: constant.SystemInstruction,
			TTL:               cfg.Chat.CacheTTL,
			MetadataPath:      cfg.Chat.CacheMetadataPath,
		},
		sysLogger,
	)

	handle, err := provisioner.Refresh(context.Background())
	if err != nil {
		log.Fatalf("Error: Failed to provision context cache: %v", err)
	}

	log.Printf("✅ Context cache ready: %s (expires %s)", handle.Name, handle.ExpiresAt)
}
