// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/unclebandit/taxleopard-backend/internal/config"
	"github.com/unclebandit/taxleopard-backend/internal/controller"
	"github.com/unclebandit/taxleopard-backend/internal/db"
	"github.com/unclebandit/taxleopard-backend/internal/handler"
	"github.com/unclebandit/taxleopard-backend/internal/provider"
	"github.com/unclebandit/taxleopard-backend/internal/queue"
	"github.com/unclebandit/taxleopard-backend/internal/repository"
	"github.com/unclebandit/taxleopard-backend/internal/scheduler"
	"github.com/unclebandit/taxleopard-backend/internal/service"
	"github.com/unclebandit/taxleopard-backend/internal/token"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	// Init DB
	db.Init()

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	recipientRepo := &repository.RecipientRepository{DB: db.DB}
	subscriberRepo := &repository.SubscriberRepository{DB: db.DB}
	suppressionRepo := &repository.SuppressionRepository{DB: db.DB}
	audienceRepo := &repository.AudienceRepository{DB: db.DB}

	sender := provider.NewESPClient(cfg.ESPAPIKey, cfg.ESPURL, cfg.FromEmail, cfg.FromName)

	// Retry jobs go to RabbitMQ when it is configured, consumed by
	// cmd/worker. Without a broker, fall back to the in-process queue and
	// run the retry worker inline so local dev still retries.
	var publisher queue.Publisher
	if cfg.RabbitURL != "" {
		amqpQueue, err := queue.NewAmqpQueue(cfg.RabbitURL)
		if err != nil {
			log.Fatal("failed to connect to RabbitMQ:", err)
		}
		defer amqpQueue.Close()
		publisher = amqpQueue
		log.Println("✅ Connected to RabbitMQ")
	} else {
		log.Println("⚠️ RABBITMQ_URL not set, using in-memory queue")
		memQueue := queue.NewInMemoryQueue()
		retryWorker := &service.RetryWorker{RecipientRepo: recipientRepo, Sender: sender}
		memQueue.Subscribe(queue.TopicRecipientRetries, func(payload any) error {
			job, ok := payload.(map[string]int)
			if !ok {
				return nil
			}
			return retryWorker.ProcessRecipient(job["recipient_id"])
		})
		publisher = memQueue
	}

	bridge := scheduler.NewBridge(
		cfg.SchedulerURL,
		cfg.SchedulerAPIKey,
		cfg.BaseURL+"/internal/campaigns/dispatch",
		cfg.SchedulerSecret,
	)

	codec := token.NewCodec(cfg.UnsubSecret)

	audienceService := &service.AudienceService{
		SubscriberRepo:  subscriberRepo,
		AudienceRepo:    audienceRepo,
		SuppressionRepo: suppressionRepo,
	}

	campaignService := &service.CampaignService{
		CampaignRepo:  campaignRepo,
		RecipientRepo: recipientRepo,
		Audience:      audienceService,
		Bridge:        bridge,
	}

	dispatchService := &service.DispatchService{
		CampaignRepo:    campaignRepo,
		RecipientRepo:   recipientRepo,
		SubscriberRepo:  subscriberRepo,
		SuppressionRepo: suppressionRepo,
		Sender:          sender,
		Queue:           publisher,
		Codec:           codec,
		BaseURL:         cfg.BaseURL,
		CompanyName:     cfg.CompanyName,
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
	}

	campaignHandler := &handler.CampaignHandler{Repo: campaignRepo}

	dispatchHandler := &handler.DispatchHandler{
		Service: dispatchService,
		Secret:  cfg.SchedulerSecret,
	}

	unsubscribeHandler := &handler.UnsubscribeHandler{
		Codec:           codec,
		SuppressionRepo: suppressionRepo,
		SubscriberRepo:  subscriberRepo,
		RecipientRepo:   recipientRepo,
	}

	subscriberHandler := &handler.SubscriberHandler{Repo: subscriberRepo}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignHandler.GetCampaignWithStats)
	r.Post("/campaigns/{id}/recipients", campaignController.BuildRecipients)
	r.Post("/campaigns/{id}/schedule", campaignController.ScheduleCampaign)
	r.Post("/campaigns/{id}/cancel-schedule", campaignController.CancelSchedule)
	r.Post("/campaigns/{id}/preview", campaignController.Preview)

	// Dispatch callback from the trigger service
	r.Post("/internal/campaigns/dispatch", dispatchHandler.HandleTrigger)

	// Public unsubscribe (GET for the mailed link, POST for the confirm form)
	r.Get("/unsubscribe", unsubscribeHandler.Confirm)
	r.Post("/unsubscribe", unsubscribeHandler.Confirm)

	// Subscriber routes
	r.Post("/subscribers", subscriberHandler.Upsert)
	r.Get("/subscribers", subscriberHandler.List)

	log.Println("🚀 Server running on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
