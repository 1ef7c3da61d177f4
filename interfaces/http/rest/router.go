package rest

import (
	"net/http"

	"converse-backend/application/mediators"
	"converse-backend/application/services"
	"converse-backend/infrastructure/config"
	"converse-backend/interfaces/http/rest/handlers"
	"converse-backend/interfaces/http/rest/middleware"
	"converse-backend/pkg/auth"
	"converse-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg                  *config.Config
	userService          *services.UserService
	conversationMediator *mediators.ConversationMediator
	messageMediator      *mediators.MessageMediator
	validator            *auth.JWTValidator
	metrics              *observability.Metrics
	logger               *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	userService *services.UserService,
	conversationMediator *mediators.ConversationMediator,
	messageMediator *mediators.MessageMediator,
	validator *auth.JWTValidator,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:                  cfg,
		userService:          userService,
		conversationMediator: conversationMediator,
		messageMediator:      messageMediator,
		validator:            validator,
		metrics:              metrics,
		logger:               logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.converse.app"},
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)

	userHandler := handlers.NewUserHandler(rt.userService, rt.conversationMediator, rt.logger)
	friendHandler := handlers.NewFriendHandler(rt.conversationMediator, rt.messageMediator, rt.logger)
	groupHandler := handlers.NewGroupHandler(rt.conversationMediator, rt.messageMediator, rt.logger)
	meetingHandler := handlers.NewMeetingHandler(rt.conversationMediator, rt.messageMediator, rt.logger)
	messageHandler := handlers.NewMessageHandler(rt.messageMediator, rt.logger)

	// Signup happens before a token exists
	router.Post("/users", userHandler.CreateUser)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.logger))

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Use(middleware.RequireSelf())

			r.Get("/", userHandler.GetUser)
			r.Get("/conversations", userHandler.GetConversations)

			r.Route("/friends", func(r chi.Router) {
				r.Post("/", friendHandler.AddFriend)
				r.Route("/{friendID}", func(r chi.Router) {
					r.Delete("/", friendHandler.RemoveFriend)
					r.Post("/messages", friendHandler.CreateMessage)
					r.Get("/messages", friendHandler.GetMessages)
					r.Patch("/messages", friendHandler.MarkMessagesSeen)
				})
			})

			r.Patch("/groups/{groupID}/messages", groupHandler.MarkMessagesSeen)
			r.Patch("/meetings/{meetingID}/messages", meetingHandler.MarkMessagesSeen)
			r.Patch("/messages/{messageID}", messageHandler.UpdateMessage)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", groupHandler.CreateGroup)
			r.Route("/{groupID}", func(r chi.Router) {
				r.Get("/", groupHandler.GetGroup)
				r.Post("/users", groupHandler.AddUsers)
				r.Delete("/users/{userID}", groupHandler.RemoveUser)
				r.Post("/messages", groupHandler.CreateMessage)
				r.Get("/messages", groupHandler.GetMessages)
			})
		})

		r.Route("/meetings", func(r chi.Router) {
			r.Post("/", meetingHandler.CreateMeeting)
			r.Route("/{meetingID}", func(r chi.Router) {
				r.Get("/", meetingHandler.GetMeeting)
				r.Post("/users", meetingHandler.AddUsers)
				r.Delete("/users/{userID}", meetingHandler.RemoveUser)
				r.Post("/messages", meetingHandler.CreateMessage)
				r.Get("/messages", meetingHandler.GetMessages)
			})
		})

		r.Route("/messages/{messageID}", func(r chi.Router) {
			r.Get("/", messageHandler.GetMessage)
			r.Get("/replies", messageHandler.GetReplies)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
