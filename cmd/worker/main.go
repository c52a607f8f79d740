package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/WatermarkStamper/internal/batch"
	"github.com/UnendingLoop/WatermarkStamper/internal/kafka"
	"github.com/UnendingLoop/WatermarkStamper/internal/repository"
	"github.com/UnendingLoop/WatermarkStamper/internal/service"
	"github.com/UnendingLoop/WatermarkStamper/internal/storage"
	"github.com/UnendingLoop/WatermarkStamper/internal/video/cvstream"
	"github.com/UnendingLoop/WatermarkStamper/internal/worker"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Fatalf("Failed to load envs: %s\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	level := appConfig.GetString("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	if err := zlog.SetLevel(level); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// Listening to interruptions through context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключитсья к базе
	dbConn := repository.ConnectWithRetries(appConfig, 5, 10*time.Second)
	// подкллючиться к хранилищу
	strg, err := storage.NewObjectStorage(ctx, appConfig, 10*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}
	// создаем экземпляр репо
	repo := repository.NewPostgresJobRepo(dbConn)
	// создаем экземпляр сервиса
	keys := service.PrefixesFrom(appConfig)
	var svc worker.JobWorkerService = service.NewJobService(repo, worker.NoopPublisher{}, strg, keys)

	// движок штамповки: один файл за раз, видео через OpenCV
	tmpDir := appConfig.GetString("TMP_DIR")
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		log.Fatalf("Failed to create TMP_DIR %q: %v", tmpDir, err)
	}
	runner := batch.NewRunner(appConfig.GetString("FONT_DIR"), cvstream.New(), 1)

	// ждем пока кафка раздуплится
	broker := appConfig.GetString("KAFKA_BROKER")
	if !kafka.WaitKafkaReady(ctx, broker, 3*time.Second) {
		log.Fatalln("Interrupted while waiting for Kafka")
	}
	// подключиться к кафке как читатель
	queue := make(chan kafkago.Message)
	retryStrategy := retry.Strategy{
		Attempts: 5,
		Delay:    2 * time.Second,
		Backoff:  1.5,
	}
	topic := appConfig.GetString("KAFKA_TOPIC")
	groupID := appConfig.GetString("KAFKA_GROUPID")
	cons := wbfkafka.NewConsumer([]string{broker}, topic, groupID)

	cons.StartConsuming(ctx, queue, retryStrategy)

	// Собираем воедино все что нужно воркеру и запускаем его
	wrk := worker.NewWorkerInstance(strg, svc, runner, queue, cons, keys, tmpDir)
	go wrk.StartWorker(ctx)

	// Waiting for interruption to stop context to start Graceful shutdown
	<-ctx.Done()

	shutdown(cons, dbConn)
	log.Println("Exiting worker...")
}

func shutdown(cons *wbfkafka.Consumer, dbConn *dbpg.DB) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	// Closing Kafka connection:
	if err := cons.Close(); err != nil {
		log.Println("Failed to close Kafka-reader:", err)
	}
	log.Println("Kafka-consumer connection closed.")

	// Closing DB connection
	if err := dbConn.Master.Close(); err != nil {
		log.Println("Failed to close DB-conn correctly:", err)
		return
	}
	log.Println("DBconn closed")
}
