package main

import (
	"context"

	"vogueapi/config"
	"vogueapi/dbhelper"
	"vogueapi/logging"
	"vogueapi/services"
	"vogueapi/tasks"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

func runScheduler(redis asynq.RedisClientOpt) {
	scheduler := asynq.NewScheduler(redis, &asynq.SchedulerOpts{
		LogLevel: asynq.InfoLevel,
	})

	entries := []struct {
		cron string
		task *asynq.Task
		desc string
	}{
		{
			cron: "*/15 * * * *",
			task: tasks.NewSweepPendingLooksTask(),
			desc: "Re-enqueue pending look archives",
		},
	}

	for _, t := range entries {
		entryID, err := scheduler.Register(t.cron, t.task)
		if err != nil {
			log.Fatal().Err(err).Msgf("Failed to register task '%s'", t.desc)
		}
		log.Info().Str("entry_id", entryID).Str("cron", t.cron).Msgf("Registered task '%s'", t.desc)
	}

	log.Info().Msg("Starting scheduler...")
	if err := scheduler.Run(); err != nil {
		log.Fatal().Err(err).Msg("Scheduler failed")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	redis := asynq.RedisClientOpt{Addr: cfg.AsyncBrokerAddress}
	srv := asynq.NewServer(redis, asynq.Config{Concurrency: 10})

	awsService := &services.AWSService{Storage: cfg.Storage}
	if err := awsService.InitClient(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("[Queue] Failed to initialize AWS provider: S3")
	}
	db, err := dbhelper.SetupDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("[Queue] Failed to connect database")
	}
	client := tasks.NewClient(cfg.AsyncBrokerAddress)
	defer client.Close()

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeArchiveLook, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleArchiveLookTask(log.Logger.WithContext(ctx), t, db, awsService, cfg.Storage.BucketName)
	})
	mux.HandleFunc(tasks.TypeSweepPendingLooks, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleSweepPendingLooks(log.Logger.WithContext(ctx), db, client)
	})

	go runScheduler(redis)
	if err := srv.Run(mux); err != nil {
		log.Fatal().Err(err).Msg("worker stopped")
	}
}
