// cmd/worker/main.go
package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/unclebandit/taxleopard-backend/internal/config"
	"github.com/unclebandit/taxleopard-backend/internal/db"
	"github.com/unclebandit/taxleopard-backend/internal/provider"
	"github.com/unclebandit/taxleopard-backend/internal/queue"
	"github.com/unclebandit/taxleopard-backend/internal/repository"
	"github.com/unclebandit/taxleopard-backend/internal/service"
)

type retryJob struct {
	RecipientID int `json:"recipient_id"`
}

const maxRetryAttempts = 3

// retryCountFrom reads the x-retry-count header. A plain nack would
// redeliver the original headers untouched, so the count must ride on a
// republished message; missing header means first attempt. The broker hands
// table integers back as int32, not int.
func retryCountFrom(headers amqp.Table) int {
	switch v := headers["x-retry-count"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// retryPublishing rebuilds the job for republish with the attempt count
// stamped on it.
func retryPublishing(body []byte, attempts int) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{"x-retry-count": int32(attempts)},
		Body:         body,
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	// Connect to DB
	dbConn, err := db.Open(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}
	defer dbConn.Close()

	recipientRepo := &repository.RecipientRepository{DB: dbConn}
	sender := provider.NewESPClient(cfg.ESPAPIKey, cfg.ESPURL, cfg.FromEmail, cfg.FromName)
	worker := &service.RetryWorker{RecipientRepo: recipientRepo, Sender: sender}

	// Connect to RabbitMQ
	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queue.TopicRecipientRetries,
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

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var job retryJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Println("Invalid job:", err)
				d.Ack(false)
				continue
			}

			if err := worker.ProcessRecipient(job.RecipientID); err != nil {
				log.Println("Failed to retry recipient:", err)
				// Republish with an incremented count instead of nacking:
				// a nack redelivers the identical message, so the count
				// would never advance and a dead address would spin forever.
				attempts := retryCountFrom(d.Headers) + 1
				if attempts < maxRetryAttempts {
					if pubErr := ch.Publish("", q.Name, false, false, retryPublishing(d.Body, attempts)); pubErr != nil {
						log.Println("Failed to requeue retry job:", pubErr)
						d.Nack(false, true)
						continue
					}
				} else {
					log.Printf("Dropping retry job for recipient %d after %d attempts", job.RecipientID, attempts)
				}
			}

			d.Ack(false)
		}
	}()

	log.Println("Worker running, waiting for retry jobs...")
	<-forever
}
