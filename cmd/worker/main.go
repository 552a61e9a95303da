package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/garageware/crm-backend/internal/config"
	"github.com/garageware/crm-backend/internal/db"
	"github.com/garageware/crm-backend/internal/mailgun"
	"github.com/garageware/crm-backend/internal/queue"
	"github.com/garageware/crm-backend/internal/repository"
	"github.com/garageware/crm-backend/internal/service"
)

const scheduleInterval = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	conn, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}

	campaignRepo := &repository.CampaignRepository{DB: conn}
	customerRepo := &repository.CustomerRepository{DB: conn}
	contactRepo := &repository.ContactRepository{DB: conn}

	dispatch := &service.DispatchService{
		CampaignRepo: campaignRepo,
		ContactRepo:  contactRepo,
		CustomerRepo: customerRepo,
		Gateway:      mailgun.NewClient(cfg.Mailgun),
		Renderer:     service.NewRenderer(),
	}

	// Connect to RabbitMQ
	amqpConn, err := amqp.Dial(cfg.AMQP.URL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer amqpConn.Close()

	ch, err := amqpConn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		cfg.AMQP.QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	publisher, err := queue.NewAMQPPublisher(cfg.AMQP)
	if err != nil {
		log.Fatal("Failed to create publisher:", err)
	}
	defer publisher.Close()

	// Scheduler loop: find campaigns whose schedule has arrived and enqueue
	// them. The CAS claim in the dispatch run makes double-enqueues harmless.
	go func() {
		ticker := time.NewTicker(scheduleInterval)
		defer ticker.Stop()
		for range ticker.C {
			ids, err := campaignRepo.DueCampaignIDs(time.Now(), 50)
			if err != nil {
				log.Println("⚠️ scheduler query failed:", err)
				continue
			}
			for _, id := range ids {
				if err := publisher.PublishDispatch(queue.DispatchJob{CampaignID: id}); err != nil {
					log.Println("⚠️ failed to enqueue due campaign", id, ":", err)
				}
			}
		}
	}()

	go func() {
		for d := range msgs {
			var job queue.DispatchJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Println("Invalid job:", err)
				d.Ack(false)
				continue
			}

			err := dispatch.Run(context.Background(), job.CampaignID)
			if err != nil {
				log.Println("Dispatch run failed:", err)
				// Re-publish with an incremented attempt counter; a plain
				// Nack requeue would never advance x-retry-count.
				attempt := queue.RetryCount(d.Headers) + 1
				if attempt < queue.MaxDeliveryAttempts {
					if pubErr := publisher.PublishDispatchRetry(job, attempt); pubErr != nil {
						log.Println("⚠️ failed to re-enqueue dispatch job:", pubErr)
					}
				} else {
					log.Printf("Dispatch job permanently failed after %d attempts: campaign %d\n",
						queue.MaxDeliveryAttempts, job.CampaignID)
				}
			}

			d.Ack(false)
		}
	}()

	log.Println("Worker running, waiting for dispatch jobs...")
	select {}
}
