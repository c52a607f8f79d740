// Package kafka provides topic bootstrap and a readiness probe for the job queue
package kafka

import (
	"context"
	"errors"
	"log"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// InitKafkaTopics - creates topics in kafka, retries until every topic exists or ctx is done
func InitKafkaTopics(ctx context.Context, brokerAddr string, delay time.Duration, topics ...string) {
	client := &kafkago.Client{
		Addr:    kafkago.TCP(brokerAddr),
		Timeout: 10 * time.Second,
	}

	req := kafkago.CreateTopicsRequest{
		Topics: make([]kafkago.TopicConfig, 0, len(topics)),
	}

	for _, t := range topics {
		topic := kafkago.TopicConfig{
			Topic:             t,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
		req.Topics = append(req.Topics, topic)
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("InitKafkaTopics canceled or timed out")
			return
		default:
		}

		resp, err := client.CreateTopics(ctx, &req)
		if err != nil {
			log.Printf("Failed to run topics creation request: %v\nWait %v before next try...", err, delay)
			sleepCtx(ctx, delay)
			continue
		}

		if failed := failedTopics(resp.Errors); len(failed) > 0 {
			for t, e := range failed {
				log.Printf("Topic %q creation error: %v", t, e)
			}
			sleepCtx(ctx, delay)
			continue
		}

		log.Println("All topics are ready!")
		return
	}
}

// failedTopics - топики, которые не создались; уже существующий топик считается готовым
func failedTopics(errs map[string]error) map[string]error {
	failed := make(map[string]error)
	for t, e := range errs {
		if e == nil || errors.Is(e, kafkago.TopicAlreadyExists) {
			continue
		}
		failed[t] = e
	}
	return failed
}

// WaitKafkaReady - блокируется, пока брокер не начнет принимать соединения; false - ctx отменен раньше
func WaitKafkaReady(ctx context.Context, brokerAddr string, delay time.Duration) bool {
	for {
		conn, err := kafkago.DialContext(ctx, "tcp", brokerAddr)
		if err == nil {
			if errConn := conn.Close(); errConn != nil {
				log.Println("Failed to close connection after testing Kafka readyness:", errConn)
			}
			log.Println("Kafka is ready!")
			return true
		}

		log.Printf("Kafka not ready, retrying in %v...", delay)
		if !sleepCtx(ctx, delay) {
			return false
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
