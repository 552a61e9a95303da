package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/garageware/crm-backend/internal/config"
	"github.com/garageware/crm-backend/internal/controller"
	"github.com/garageware/crm-backend/internal/db"
	"github.com/garageware/crm-backend/internal/mailgun"
	"github.com/garageware/crm-backend/internal/queue"
	"github.com/garageware/crm-backend/internal/repository"
	"github.com/garageware/crm-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	conn, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}

	publisher, err := queue.NewAMQPPublisher(cfg.AMQP)
	if err != nil {
		log.Fatalf("failed to connect to queue: %v", err)
	}
	defer publisher.Close()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	customerRepo := &repository.CustomerRepository{DB: conn}
	contactRepo := &repository.ContactRepository{DB: conn}

	gateway := mailgun.NewClient(cfg.Mailgun)

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		CustomerRepo: customerRepo,
		ContactRepo:  contactRepo,
		Queue:        publisher,
	}

	webhookService := &service.WebhookService{
		ContactRepo: contactRepo,
		Verifier:    gateway,
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
		Renderer:        service.NewRenderer(),
	}
	webhookController := &controller.WebhookController{
		WebhookService: webhookService,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Company-ID"},
	}))

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaignDetails)
	r.Get("/campaigns/{id}/contacts", campaignController.ListContacts)
	r.Post("/campaigns/{id}/send", campaignController.SendCampaign)
	r.Post("/campaigns/{id}/personalized-preview", campaignController.PersonalizedPreview)

	// Provider webhook
	r.Post("/webhooks/mailgun", webhookController.HandleMailgunEvent)

	log.Println("🚀 Server running on", cfg.ServerAddr)
	log.Fatal(http.ListenAndServe(cfg.ServerAddr, r))
}
