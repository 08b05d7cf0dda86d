package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"

	config "github.com/Cascapera/social-automation/configs"
	"github.com/Cascapera/social-automation/internal/api/handlers"
	"github.com/Cascapera/social-automation/internal/api/middleware"
	job "github.com/Cascapera/social-automation/internal/jobs"
	"github.com/Cascapera/social-automation/internal/media"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/publisher"
	"github.com/Cascapera/social-automation/internal/queue"
	"github.com/Cascapera/social-automation/internal/repository"
	"github.com/Cascapera/social-automation/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    1024 * 1024 * 1024, // raw footage uploads
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PATCH,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	brandRepo := repository.NewBrandRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	sourceRepo := repository.NewSourceRepository(db)
	cutRepo := repository.NewCutRepository(db)
	jobRepo := repository.NewJobRepository(db)
	scheduledPostRepo := repository.NewScheduledPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)

	storage := service.NewStorageService(*cfg)
	ffmpeg := media.NewFFmpeg(cfg.Media.FFmpegBin, cfg.Media.FFprobeBin, cfg.Media.WorkDir)
	whisper := media.NewWhisperCLI(cfg.Media.WhisperBin, "medium", "pt")
	dispatcher := queue.NewDispatcher(client)

	instagram := publisher.NewInstagram(cfg, socialAccountRepo)
	tiktok := publisher.NewTiktok(cfg, socialAccountRepo)
	youtube := publisher.NewYouTube(cfg, socialAccountRepo, false)
	youtubeShorts := publisher.NewYouTube(cfg, socialAccountRepo, true)

	publishers := publisher.NewRegistry()
	publishers.Register(models.PlatformInstagram, instagram)
	publishers.Register(models.PlatformTiktok, tiktok)
	publishers.Register(models.PlatformYoutubeShorts, youtubeShorts)
	publishers.Register(models.PlatformYoutube, youtube)

	brandService := service.NewBrandService(brandRepo)
	assetService := service.NewAssetService(brandRepo, assetRepo, storage)
	cutService := service.NewCutService(db, sourceRepo, cutRepo, storage, ffmpeg, ffmpeg)
	jobService := service.NewJobService(db, jobRepo, cutRepo, assetRepo, scheduledPostRepo, storage, ffmpeg, ffmpeg, dispatcher)
	subtitleService := service.NewSubtitleService(jobRepo, storage, ffmpeg, whisper, dispatcher)
	scheduleService := service.NewScheduleService(jobRepo, scheduledPostRepo, socialAccountRepo, publishers, dispatcher, time.Local)
	platformService := service.NewPlatformService(cfg, socialAccountRepo)

	authMiddleware := middleware.NewAuthMiddleware(cfg)

	auth := handlers.NewAuthHandler(cfg)
	app.Post("/login", auth.Login)
	app.Post("/logout", auth.Logout)

	platform := handlers.NewPlatformHandler(platformService, instagram, tiktok, youtube, cfg)
	app.Get("/auth/:platform", platform.Connect)
	app.Get("/auth/:platform/callback", platform.Callback)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	brand := handlers.NewBrandHandler(brandService)
	api.Get("/brands", brand.List)
	api.Post("/brands", brand.Create)

	asset := handlers.NewAssetHandler(assetService)
	api.Get("/assets", asset.List)
	api.Post("/assets", asset.Upload)
	api.Delete("/assets/:id", asset.Delete)

	cut := handlers.NewCutHandler(cutService)
	api.Get("/sources", cut.ListSources)
	api.Post("/sources", cut.CreateSource)
	api.Delete("/sources/:id", cut.DeleteSource)
	api.Post("/sources/:id/extract-cuts", cut.ExtractCuts)
	api.Get("/cuts", cut.List)
	api.Post("/cuts/upload", cut.Upload)
	api.Delete("/cuts/:id", cut.Delete)

	jobH := handlers.NewJobHandler(jobService, subtitleService)
	api.Get("/jobs", jobH.List)
	api.Post("/jobs", jobH.Create)
	api.Post("/jobs/upload", jobH.Upload)
	api.Get("/jobs/:id", jobH.Get)
	api.Post("/jobs/:id/run", jobH.Run)
	api.Post("/jobs/:id/archive", jobH.Archive)
	api.Delete("/jobs/:id", jobH.Delete)
	api.Get("/jobs/:id/download", jobH.Download)
	api.Post("/jobs/:id/generate-subtitles", jobH.GenerateSubtitles)
	api.Patch("/jobs/:id/subtitles", jobH.UpdateSubtitles)
	api.Post("/jobs/:id/burn-subtitles", jobH.BurnSubtitles)

	schedule := handlers.NewScheduleHandler(scheduleService)
	api.Get("/scheduled-posts", schedule.List)
	api.Post("/scheduled-posts", schedule.Create)
	api.Get("/calendar", schedule.Calendar)

	api.Get("/accounts", platform.ListAccounts)
	api.Post("/accounts/remove", platform.DeleteAccount)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, youtube, tiktok, instagram)

	// queue workers
	queueW := queue.NewQueue(jobService, subtitleService, scheduleService)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeRenderJob, queueW.HandleRenderJobTask)
		mux.HandleFunc(queue.TaskTypeSubtitleGenerate, queueW.HandleSubtitleGenerateTask)
		mux.HandleFunc(queue.TaskTypeSubtitleBurn, queueW.HandleSubtitleBurnTask)
		mux.HandleFunc(queue.TaskTypeSchedulePost, queueW.HandleSchedulePostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
