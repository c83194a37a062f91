package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agromov/postwatch/config"
	"github.com/agromov/postwatch/core/database"
	domainPost "github.com/agromov/postwatch/domains/post"
	"github.com/agromov/postwatch/infrastructure/telegram"
	intOpenAI "github.com/agromov/postwatch/integrations/openai"
	"github.com/agromov/postwatch/pkg/postworker"
	"github.com/agromov/postwatch/pkg/ratelimit"
	"github.com/agromov/postwatch/pkg/tgutil"
	"github.com/agromov/postwatch/repository"
	"github.com/agromov/postwatch/ui/bot"
	"github.com/agromov/postwatch/ui/rest"
	"github.com/agromov/postwatch/usecase"
	"github.com/agromov/postwatch/validations"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the configured channels and review candidate comments",
	Run:   runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(_ *cobra.Command, _ []string) {
	if config.AppDebug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := tgutil.EnsureDir(config.PathTemp, config.PathStorages); err != nil {
		logrus.Fatalln(err)
	}

	channels, err := config.LoadChannels(config.ChannelsFile)
	if err != nil {
		logrus.Fatalln(err)
	}
	if err := validateStartup(channels); err != nil {
		logrus.Fatalln(err)
	}

	db, err := database.NewDatabase(config.DBDriver, config.DBDSN, config.AppDebug)
	if err != nil {
		logrus.Fatalln(err)
	}

	reviewRepo := repository.NewReviewGormRepository(db)
	if err := reviewRepo.InitSchema(context.Background()); err != nil {
		logrus.Fatalln("failed to migrate review schema:", err)
	}

	teleBot, err := telegram.NewBot(config.BotToken)
	if err != nil {
		logrus.Fatalln(err)
	}

	generator, err := intOpenAI.NewGenerator(config.OpenAIAPIKey, config.OpenAIModel, config.OpenAIProxyURL)
	if err != nil {
		logrus.Fatalln(err)
	}

	policy := ratelimit.Policy{
		MaxAttempts: config.SendMaxAttempts,
		Cooldown:    config.SendRetryDelay,
	}

	media := telegram.NewMediaStore(teleBot, config.PathTemp, config.MaxImageDimension)
	poster := telegram.NewCommentPoster(teleBot)

	reviewService := usecase.NewReviewService(reviewRepo, poster, channels, policy)
	reviewer := bot.NewReviewer(teleBot, config.AdminUserID, reviewService, policy)
	pipeline := usecase.NewPipelineService(reviewRepo, generator, reviewer, channels, media)

	aggregator := usecase.NewGroupAggregator(config.DebounceInterval, func(post domainPost.LogicalPost) {
		if err := pipeline.HandlePost(context.Background(), post); err != nil {
			logrus.WithError(err).Errorf("[RUN] Pipeline failed for channel %d message %d",
				post.ChannelID, post.MessageID)
		}
	})

	pool := postworker.NewPool(config.WorkerPoolSize, config.WorkerQueueSize)
	pool.Start(context.Background())

	listener := telegram.NewListener(teleBot, channels, pool, aggregator, media)
	listener.Register()
	reviewer.Register()

	app := rest.NewApp(config.AppDebug)
	rest.InitRestHealth(app)
	rest.InitRestReview(app, reviewRepo)
	rest.InitRestWorker(app, pool)

	go func() {
		if err := app.Listen(":" + config.AppPort); err != nil {
			logrus.WithError(err).Error("[RUN] Inspection API stopped")
		}
	}()

	go teleBot.Start()
	logrus.Infof("[RUN] Postwatch %s started, reviewing for admin %d", config.AppVersion, config.AdminUserID)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("[RUN] Shutting down...")

	teleBot.Stop()
	pool.Stop()
	aggregator.Close()
	_ = app.Shutdown()

	// Sweep photos recorded in the store, then whatever else the temp dir holds.
	if paths, err := reviewRepo.PhotoPaths(context.Background()); err == nil {
		tgutil.RemoveFiles(paths)
	}
	tgutil.CleanupDir(config.PathTemp)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logrus.Info("[RUN] Bye")
}

// validateStartup fails fast on missing credentials or a broken channel
// mapping, before any connection is attempted.
func validateStartup(channels *config.ChannelRegistry) error {
	if config.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is not set")
	}
	if config.AdminUserID == 0 {
		return fmt.Errorf("ADMIN_USER_ID is not set")
	}
	if config.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	for _, channel := range channels.All() {
		if err := validations.ValidateChannel(context.Background(), channel); err != nil {
			return fmt.Errorf("invalid channel %q: %w", channel.Name, err)
		}
	}
	return nil
}
