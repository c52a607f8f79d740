// Package main (in api-subfolder) provides launch of the whole application except worker
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/WatermarkStamper/internal/kafka"
	"github.com/UnendingLoop/WatermarkStamper/internal/mwlogger"
	"github.com/UnendingLoop/WatermarkStamper/internal/repository"
	"github.com/UnendingLoop/WatermarkStamper/internal/service"
	"github.com/UnendingLoop/WatermarkStamper/internal/storage"
	"github.com/UnendingLoop/WatermarkStamper/internal/transport"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
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
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключитсья к базе
	dbConn := repository.ConnectWithRetries(appConfig, 5, 10*time.Second)
	// накатываем миграцию
	repository.MigrateWithRetries(dbConn.Master, "./migrations", 10, 15*time.Second)

	// подключиться к хранилищу
	strg, err := storage.NewObjectStorage(ctx, appConfig, 10*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}
	// создаем экземпляр репо
	repo := repository.NewPostgresJobRepo(dbConn)

	// ждем пока кафка раздуплится
	broker := appConfig.GetString("KAFKA_BROKER")
	if !kafka.WaitKafkaReady(ctx, broker, 3*time.Second) {
		log.Fatalln("Interrupted while waiting for Kafka")
	}
	// подключиться к кафке как продюсер
	topic := appConfig.GetString("KAFKA_TOPIC")
	kafka.InitKafkaTopics(ctx, broker, 10*time.Second, topic)
	pub := wbfkafka.NewProducer([]string{broker}, topic)

	// создаем экземпляр сервиса
	var svc JobAPIService = service.NewJobService(repo, pub, strg, service.PrefixesFrom(appConfig))
	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewJobHandler(svc)
	// сетапим сервер
	mode := appConfig.GetString("GIN_MODE")
	engine := ginext.New(mode)

	engine.GET("/ping", handlers.SimplePinger)
	engine.POST("/jobs/upload", handlers.Create)          // создание задачи
	engine.GET("/jobs/:id", handlers.GetJob)              // статус задачи
	engine.GET("/jobs/:id/result", handlers.LoadResult)   // загрузка результата
	engine.GET("/jobs/:id/preview", handlers.LoadPreview) // превью для картинок
	engine.GET("/jobs", handlers.GetAllJobs)              // список задач с пагинацией и сортировкой
	engine.DELETE("/jobs/:id", handlers.Delete)           // удаление

	srv := &http.Server{
		Addr:    ":" + appConfig.GetString("APP_PORT"),
		Handler: mwlogger.NewMWLogger(engine),
	}

	// Server launch
	go func() {
		zlog.Logger.Info().Msgf("Server running on http://localhost%s", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				zlog.Logger.Info().Msg("Server gracefully stopping...")
			default:
				zlog.Logger.Error().Err(err).Msg("Server stopped")
				stop()
			}
		}
	}()

	// запускаем фонового воркера для отслеживания подвисших задач
	go recoveryLoop(ctx, svc)

	// ждем отмены контекста для запуска грейсфул закрытия соединений бд и кафки
	<-ctx.Done()

	shutdown(srv, pub, dbConn)
	log.Println("Exiting API...")
}

func recoveryLoop(ctx context.Context, svc JobAPIService) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovery loop crashed:", r)
		}
	}()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.ReviveOrphans(ctx, 20)
		}
	}
}

func shutdown(srv *http.Server, pub *wbfkafka.Producer, dbConn *dbpg.DB) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Println("Failed to shutdown HTTP-server:", err)
	}
	log.Println("HTTP-server stopped.")

	// Closing Kafka connection:
	if err := pub.Close(); err != nil {
		log.Println("Failed to close Kafka-writer:", err)
	}
	log.Println("Kafka-producer connection closed.")

	// Closing DB connection
	if err := dbConn.Master.Close(); err != nil {
		log.Println("Failed to close DB-conn correctly:", err)
		return
	}
	log.Println("DBconn closed")
}
