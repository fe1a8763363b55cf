package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dpe27/esk-upload/config"
	"github.com/dpe27/esk-upload/internal/dlq"
	"github.com/dpe27/esk-upload/internal/httpclient"
	"github.com/dpe27/esk-upload/internal/job"
	"github.com/dpe27/esk-upload/pkg/log"
	cronlogger "github.com/dpe27/esk-upload/pkg/log/cron"

	"github.com/robfig/cron/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewConfig()
	log.Initialize(os.Stdout, cfg.Debug(), nil)
	ctx = log.AddLogValToCtx(ctx, "app", cfg.App.Name)
	ctx = log.AddLogValToCtx(ctx, "version", cfg.App.Version)

	loc, err := time.LoadLocation(cfg.App.Location)
	if err != nil {
		log.Fatal(ctx, "Failed to load location", "error", err)
	}

	jobs, err := job.LoadJobsFromDir(cfg.Upload.JobsDir)
	if err != nil {
		log.Fatal(ctx, "Failed to load jobs", "error", err)
	}

	queue := dlq.NewDeadLetterQueue(cfg)
	if err := queue.Ping(ctx); err != nil {
		log.Fatal(ctx, "Failed to connect to DLQ", "error", err)
	}

	cliOpt := httpclient.ClientOptBuilder().
		ServiceName(cfg.App.Name).
		UserAgent(cfg.App.Name+"/"+cfg.App.Version).
		Timeout(cfg.Upload.Timeout).
		ResponseHeaderTimeout(cfg.Upload.ResponseHeaderTimeout).
		MaxIdleConnsPerHost(cfg.Upload.MaxIdleConnsPerHost).
		Build()
	httpCli := httpclient.NewHttpClient(cliOpt)
	loaded := job.ByName(jobs)
	dlqWorker := dlq.NewDLQWorker(queue, func(j *job.UploadJob) dlq.Runner {
		j.RestoreSecrets(loaded)
		return job.NewJobRunner(j, httpCli, loc)
	})

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		dlqWorker.Start(ctx)
	}()

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronlogger.NewCronLogger()),
	)
	scheduleJobs(ctx, c, jobs, httpCli, queue, loc)
	c.Start()
	log.Info(ctx, "Upload scheduler started", "jobs", len(jobs))

	<-ctx.Done()
	log.Info(ctx, "Shutting down")
	<-c.Stop().Done()
	<-workerDone
}

func scheduleJobs(
	ctx context.Context,
	c *cron.Cron,
	jobs []job.UploadJob,
	client httpclient.HttpClient,
	queue dlq.DeadLetterQueue,
	loc *time.Location,
) {
	for _, j := range jobs {
		jobRunner := job.NewJobRunner(&j, client, loc)
		_, err := c.AddFunc(j.Schedule, func() {
			log.Info(ctx, "Executing scheduled job", "name", j.Name, "schedule", j.Schedule)
			if lastTried, err := jobRunner.Run(ctx); err != nil {
				log.Error(ctx, "Job execution failed", "name", j.Name, "error", err)
				if err := queue.Push(ctx, dlq.NewDLQJob(j, err, lastTried)); err != nil {
					log.Error(ctx, "Failed to push job to DLQ", "error", err)
				}
			}
		})

		if err != nil {
			log.Error(ctx, "Failed to schedule job", "name", j.Name, "error", err)
		}
	}
}
