package api

import (
	authDelivery "outreach-backend/internal/auth/delivery"
	authUsecase "outreach-backend/internal/auth/usecase"
	brokerDelivery "outreach-backend/internal/broker/delivery"
	brokerUsecase "outreach-backend/internal/broker/usecase"
	emailDelivery "outreach-backend/internal/email/delivery"
	emailUsecase "outreach-backend/internal/email/usecase"
	listingDelivery "outreach-backend/internal/listing/delivery"
	listingUsecase "outreach-backend/internal/listing/usecase"
	outreachDelivery "outreach-backend/internal/outreach/delivery"
	outreachUsecase "outreach-backend/internal/outreach/usecase"
	"outreach-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

// Handler owns the HTTP surface of the service.
type Handler struct {
	authUsecase     authUsecase.AuthUsecase
	authHandler     *authDelivery.AuthHandler
	brokerHandler   *brokerDelivery.BrokerHandler
	listingHandler  *listingDelivery.ListingHandler
	emailHandler    *emailDelivery.EmailHandler
	outreachHandler *outreachDelivery.OutreachHandler
	settingsHandler *SettingsHandler
	config          *config.Config
}

type Usecases struct {
	Auth     authUsecase.AuthUsecase
	Broker   brokerUsecase.BrokerUsecase
	Listing  listingUsecase.ListingUsecase
	Email    emailUsecase.EmailUsecase
	Outreach outreachUsecase.OutreachUsecase
}

func NewHandler(uc Usecases, settings *DelegateSettings, cfg *config.Config) *Handler {
	return &Handler{
		authUsecase:     uc.Auth,
		authHandler:     authDelivery.NewAuthHandler(uc.Auth),
		brokerHandler:   brokerDelivery.NewBrokerHandler(uc.Broker),
		listingHandler:  listingDelivery.NewListingHandler(uc.Listing),
		emailHandler:    emailDelivery.NewEmailHandler(uc.Email),
		outreachHandler: outreachDelivery.NewOutreachHandler(uc.Outreach),
		settingsHandler: NewSettingsHandler(settings),
		config:          cfg,
	}
}

// Router builds the gin engine with CORS and every route.
func (h *Handler) Router() *gin.Engine {
	if h.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h)
	return r
}
