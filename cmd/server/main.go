package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql"

	"github.com/stampme/stampme/config"
	"github.com/stampme/stampme/pkg/otellib"
	"github.com/stampme/stampme/repository"
	"github.com/stampme/stampme/service/campaign"
	"github.com/stampme/stampme/service/enrollment"
	"github.com/stampme/stampme/service/notification"
	"github.com/stampme/stampme/service/referral"
	"github.com/stampme/stampme/service/stamping"
	"github.com/stampme/stampme/service/stats"
	"github.com/stampme/stampme/service/user"
)

const campaignCacheSize = 32 * 1024 * 1024
const campaignCacheExpireSeconds = 60

// logSender stands in for the chat transport: notification texts are
// written to the log until a bot adapter is plugged in.
type logSender struct {
	logger *zap.Logger
}

func (s logSender) SendText(_ context.Context, userID int64, text string) error {
	s.logger.Info("send notification",
		zap.Int64("user_id", userID),
		zap.String("text", text),
	)
	return nil
}

// server is the wiring seam for the bot adapter: its command handlers
// will dispatch onto these services once the transport lands. Until
// then only the deliverer runs.
type server struct {
	campaignService   *campaign.Service
	enrollmentService *enrollment.Service
	stampingService   *stamping.Service
	referralService   *referral.Service
	statsService      *stats.Service
	userService       *user.Service

	deliverer *notification.Deliverer
}

func newServer(conf config.Config, logger *zap.Logger) *server {
	db := conf.MySQL.MustConnect()
	provider := repository.NewProvider(db)

	campaignRepo := repository.NewCampaign()
	cachedCampaignRepo := repository.NewCampaignCache(
		campaignRepo, campaignCacheSize, campaignCacheExpireSeconds)
	userRepo := repository.NewUser()
	enrollRepo := repository.NewEnrollment()
	requestRepo := repository.NewStampRequest()
	txnRepo := repository.NewStampTransaction()
	referralRepo := repository.NewReferral()
	notifRepo := repository.NewNotification()
	statsRepo := repository.NewDailyStat()

	outbox := notification.NewOutbox(provider, notifRepo)
	deliverer := notification.NewDeliverer(
		outbox, logSender{logger: logger}, logger,
		conf.Outbox.DrainInterval, conf.Outbox.BatchSize, conf.Outbox.MaxAttempts,
	)

	return &server{
		campaignService: campaign.NewService(
			provider, cachedCampaignRepo, userRepo, enrollRepo),
		enrollmentService: enrollment.NewService(
			provider, campaignRepo, enrollRepo, txnRepo, statsRepo),
		stampingService: stamping.NewService(
			provider, requestRepo, enrollRepo, campaignRepo,
			userRepo, txnRepo, statsRepo, notifRepo),
		referralService: referral.NewService(
			provider, referralRepo, enrollRepo, campaignRepo, txnRepo),
		statsService: stats.NewService(
			provider, statsRepo, requestRepo, outbox, logger),
		userService: user.NewService(provider, userRepo, notifRepo),

		deliverer: deliverer,
	}
}

func startServer() {
	conf := config.Load()
	logger := config.NewLogger(conf.Log)

	tracerProvider, shutdown := otellib.InitOtel("stampme-api", "local", conf.Jaeger)
	defer shutdown()

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	srv := newServer(conf, logger)

	ctx, cancel := context.WithCancel(context.Background())
	ctx = otellib.ToContext(ctx, logger)

	go srv.deliverer.Run(ctx)
	go stats.RunDaily(ctx, conf.Summary.Hour, conf.Summary.Minute, func(ctx context.Context) {
		if err := srv.statsService.SendDailySummaries(ctx); err != nil {
			logger.Error("send daily summaries", zap.Error(err))
		}
	})

	startHTTPServer(conf, cancel)
}

func startHTTPServer(conf config.Config, cancelBackground func()) {
	fmt.Println("HTTP:", conf.Server.HTTP.ListenString())

	httpMux := http.NewServeMux()
	httpMux.Handle("/metrics", promhttp.Handler())
	httpMux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	httpServer := &http.Server{
		Addr:    conf.Server.HTTP.ListenString(),
		Handler: httpMux,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			panic(err)
		}
		fmt.Println("Shutdown HTTP server successfully")
	}()

	//--------------------------------
	// Graceful Shutdown
	//--------------------------------
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, os.Kill)
	<-stop

	cancelBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := httpServer.Shutdown(ctx)
	if err != nil {
		panic(err)
	}

	<-done
}

func startServerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "start the server",
		Run: func(cmd *cobra.Command, args []string) {
			startServer()
		},
	}
}

func main() {
	rootCmd := cobra.Command{
		Use: "server",
	}
	rootCmd.AddCommand(
		startServerCommand(),
	)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Println(err)
	}
}
