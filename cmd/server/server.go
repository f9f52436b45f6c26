package main

import (
	"errors"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	c "github.com/calebpeterson/Upcoming/calendar"
	h "github.com/calebpeterson/Upcoming/handlers"
	"github.com/calebpeterson/Upcoming/pkg/config"
	"github.com/calebpeterson/Upcoming/poller"
)

var cfg *config.Config

var serverCmd = &cobra.Command{
	Use:   "upcoming-srv",
	Short: "Serve today's calendar agenda, status line and starting-soon notifications",
	Run: func(cmd *cobra.Command, args []string) {
		logger, _ := zap.NewProduction()
		if cfg.Debug {
			logger, _ = zap.NewDevelopment()
		}

		app := fiber.New()
		fiberLogger := fiberzap.New(fiberzap.Config{
			Logger: logger,
		})
		fiberLimiter := limiter.New(limiter.Config{
			Next: func(c *fiber.Ctx) bool {
				return c.IP() == "127.0.0.1"
			},
			Max:        20,
			Expiration: 30 * time.Second,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.Get("x-forwarded-for")
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{
					"error": "Too many requests",
				})
			},
		})

		app.Use(fiberLimiter)
		app.Use(fiberLogger)

		cal := c.New(logger)
		p := poller.New(logger, cal, poller.Options{
			Sources:    appConfig.Sources,
			Timezone:   appConfig.Timezone,
			Interval:   time.Duration(appConfig.RefreshSeconds) * time.Second,
			NotifyLead: time.Duration(appConfig.NotifyLeadMinutes) * time.Minute,
			RecentSize: appConfig.RecentNotifications,
		})
		if err := p.Start(); err != nil {
			logger.Fatal("failed to start poller", zap.Error(err))
		}
		defer p.Stop()

		handlers := h.Handlers{
			Logger:   logger,
			Calendar: cal,
			Poller:   p,
		}

		app.Get("/", handlers.RootHandler)
		app.Get("/status", handlers.StatusHandler)
		app.Get("/agenda", handlers.AgendaHandler)
		app.Get("/notifications", handlers.NotificationsHandler)
		app.Post("/ics/next-event", handlers.NextEventHandler)

		defer func() {
			err := logger.Sync()
			if err != nil && !errors.Is(err, syscall.ENOTTY) {
				logger.Fatal(err.Error())
			}
		}()

		log.Fatal(app.Listen(":" + appConfig.Port))
	},
}

func init() {
	cfg = config.New(&config.Settings{ENVPrefix: "UPCOMING"})

	serverCmd.Flags().StringVarP(&appConfig.Port, "port", "p", appConfig.Port, "app server port")
	serverCmd.Flags().BoolVarP(&cfg.Debug, "debug", "d", cfg.Debug, "Debug Mode")
}

func main() {
	_ = godotenv.Load()

	if err := cfg.Load(&appConfig, "config.yml"); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(-1)
	}

	if err := serverCmd.Execute(); err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(-1)
	}
}
