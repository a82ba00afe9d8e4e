package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	api "outreach-backend/cmd/api"
	authdomain "outreach-backend/internal/auth/domain"
	authRepo "outreach-backend/internal/auth/repository"
	authUsecase "outreach-backend/internal/auth/usecase"
	brokerdomain "outreach-backend/internal/broker/domain"
	brokerRepo "outreach-backend/internal/broker/repository"
	brokerUsecase "outreach-backend/internal/broker/usecase"
	emaildomain "outreach-backend/internal/email/domain"
	emailRepo "outreach-backend/internal/email/repository"
	emailUsecase "outreach-backend/internal/email/usecase"
	listingdomain "outreach-backend/internal/listing/domain"
	listingRepo "outreach-backend/internal/listing/repository"
	listingUsecase "outreach-backend/internal/listing/usecase"
	"outreach-backend/internal/notification"
	outreachdomain "outreach-backend/internal/outreach/domain"
	outreachRepo "outreach-backend/internal/outreach/repository"
	"outreach-backend/internal/outreach/scheduler"
	outreachUsecase "outreach-backend/internal/outreach/usecase"
	"outreach-backend/pkg/ai"
	"outreach-backend/pkg/chroma"
	"outreach-backend/pkg/config"
	"outreach-backend/pkg/database"
	"outreach-backend/pkg/fcm"
	"outreach-backend/pkg/gmail"
	"outreach-backend/pkg/imap"
	"outreach-backend/pkg/lock"
	"outreach-backend/pkg/logger"
	"outreach-backend/pkg/search"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

func main() {
	cfg := config.Load()

	flush := logger.Init(cfg.LogLevel, cfg.LogFormat, cfg.SentryDSN, cfg.Environment)
	defer flush()

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load rules")
	}

	db, err := database.NewConnection(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	if err := db.AutoMigrate(
		&authdomain.User{}, &authdomain.RefreshToken{}, &authdomain.FCMToken{},
		&brokerdomain.Broker{}, &brokerdomain.BrokerEmail{},
		&listingdomain.Listing{}, &listingdomain.BrokerListing{},
		&emaildomain.EmailMessage{}, &emaildomain.EmailThread{}, &emaildomain.GmailSyncState{},
		&emaildomain.StyleIndexHistory{},
		&outreachdomain.SuggestedEmail{}, &outreachdomain.SentEmailLog{}, &outreachdomain.SuppressionLog{},
	); err != nil {
		logrus.WithError(err).Fatal("Failed to migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories
	userRepo := authRepo.NewUserRepository(db)
	fcmTokenRepo := authRepo.NewFCMTokenRepository(db)
	brokerRepository := brokerRepo.NewBrokerRepository(db)
	listingRepository := listingRepo.NewListingRepository(db)
	messageRepo := emailRepo.NewEmailMessageRepository(db)
	threadRepo := emailRepo.NewEmailThreadRepository(db)
	syncStateRepo := emailRepo.NewSyncStateRepository(db)
	styleHistoryRepo := emailRepo.NewStyleIndexHistoryRepository(db)
	suggestedRepo := outreachRepo.NewSuggestedEmailRepository(db)
	sentRepo := outreachRepo.NewSentEmailLogRepository(db)
	suppressionRepo := outreachRepo.NewSuppressionRepository(db)

	// Broker registry, with Meilisearch when configured
	brokerUc := brokerUsecase.NewBrokerUsecase(brokerRepository)
	if cfg.MeilisearchHost != "" {
		searchClient := search.NewSearchClient(cfg.MeilisearchHost, cfg.MeilisearchAPIKey)
		if err := searchClient.InitIndex(); err != nil {
			logrus.WithError(err).Warn("Meilisearch unavailable, broker search falls back to fuzzy matching")
		} else {
			brokerUc.SetSearchIndex(searchClient)
		}
	}

	listingUc := listingUsecase.NewListingUsecase(listingRepository, brokerUc)
	listingUc.SetAlertFetcher(imap.NewAlertFetcher(imap.Config{
		Host:     cfg.IMAPHost,
		Port:     cfg.IMAPPort,
		Username: cfg.IMAPUsername,
		Password: cfg.IMAPPassword,
		Folder:   cfg.IMAPAlertFolder,
		Sender:   cfg.IMAPAlertSender,
	}))

	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GmailRefreshToken, cfg.GmailAccountEmail)
	gmailService.SetTokenRefreshCallback(func(token *oauth2.Token) error {
		logrus.WithField("expiry", token.Expiry).Debug("Gmail access token refreshed")
		return nil
	})
	if !gmailService.Configured() {
		logrus.Warn("Gmail credentials not set, mailbox sync and sending will fail until configured")
	}

	emailUc := emailUsecase.NewEmailUsecase(messageRepo, threadRepo, syncStateRepo, brokerUc, gmailService, rules.Sync, cfg.GooglePubSubTopic)

	outreachUc := outreachUsecase.NewOutreachUsecase(suggestedRepo, sentRepo, suppressionRepo, brokerUc, listingUc, emailUc, gmailService, rules)

	// LLM delegate; the Ollama endpoint can be changed at runtime
	delegateSettings := api.NewDelegateSettings(ai.ProviderType(cfg.AIProvider), cfg.OllamaBaseURL, cfg.OllamaModel)
	decider, err := ai.NewDecider(ai.Config{
		Provider:        ai.ProviderType(cfg.AIProvider),
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
		GeminiAPIKey:    cfg.GeminiApiKey,
		OllamaBaseURL:   delegateSettings.OllamaBaseURL,
		OllamaModel:     delegateSettings.OllamaModel,
	})
	if err != nil {
		logrus.WithError(err).Warn("LLM delegate unavailable, outreach runs will fail until configured")
	} else {
		outreachUc.SetDecider(decider)
		logrus.WithField("provider", cfg.AIProvider).Info("LLM delegate initialized")
	}

	// Style memory for the delegate
	styleWorker := emailUsecase.NewStyleWorkerService(styleHistoryRepo, 2)
	if cfg.ChromaAPIKey != "" {
		chromaClient, err := chroma.NewChromaClient(cfg)
		if err != nil {
			logrus.WithError(err).Warn("Chroma unavailable, drafts are written without style examples")
		} else {
			styleWorker.SetStyleIndex(chromaClient)
		}
	}
	styleWorker.Start()
	defer styleWorker.Stop()
	outreachUc.SetStyleIndex(styleWorker)

	locker := lock.NewLocker(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer locker.Close()
	if locker.Enabled() {
		outreachUc.SetRunLocker(locker)
	}

	// Operator push notifications
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(ctx, cfg.FirebaseCredentials)
		if err != nil {
			logrus.WithError(err).Warn("Failed to initialize FCM client, push notifications disabled")
		} else {
			notifier := notification.NewOperatorNotifier(fcmClient, fcmTokenRepo)
			outreachUc.SetNotifier(notifier)
			emailUc.SetReplyHandler(notifier.NotifyReplies)
		}
	}

	// Gmail watch notifications trigger incremental syncs
	if cfg.GoogleProjectID != "" && cfg.GooglePubSubTopic != "" && gmailService.Configured() {
		notifService, err := notification.NewService(cfg.GoogleProjectID, cfg.GooglePubSubTopic, gmailService.Account(), emailUc, cfg.GoogleCredentials)
		if err != nil {
			logrus.WithError(err).Error("Failed to initialize notification service")
		} else {
			defer notifService.Close()
			go func() {
				if err := notifService.Start(ctx); err != nil {
					logrus.WithError(err).Error("Notification service stopped")
				}
			}()
		}
	} else {
		logrus.Info("Pub/Sub not configured, relying on scheduled incremental syncs")
	}

	var mailboxSync scheduler.MailboxSync
	if gmailService.Configured() {
		mailboxSync = emailUc
	}
	sched := scheduler.NewScheduler(outreachUc, mailboxSync, rules)
	if err := sched.Start(); err != nil {
		logrus.WithError(err).Fatal("Failed to start scheduler")
	}
	defer sched.Stop()

	authUc := authUsecase.NewAuthUsecase(userRepo, fcmTokenRepo, cfg)
	handler := api.NewHandler(api.Usecases{
		Auth:     authUc,
		Broker:   brokerUc,
		Listing:  listingUc,
		Email:    emailUc,
		Outreach: outreachUc,
	}, delegateSettings, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler.Router(),
	}

	go func() {
		logrus.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
}
