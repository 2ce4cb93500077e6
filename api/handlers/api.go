package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/civicpulse/civic-report-api/api"
	"github.com/civicpulse/civic-report-api/config"
	"github.com/civicpulse/civic-report-api/databases"
	"github.com/civicpulse/civic-report-api/dispatch"
	"github.com/civicpulse/civic-report-api/models"
)

// dailySubmissionLimit caps complaints per citizen per rolling day.
const dailySubmissionLimit = 5

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Engine   *dispatch.Engine
	Hub      *NotificationHub
	Redis    *redis.Client
	Uploader ImageUploader
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	c := Complaint{
		DB:       databases.NewComplaintDatabase(a.dbHelper),
		UDB:      databases.NewUserDatabase(a.dbHelper),
		Uploader: a.Uploader,
		Hub:      a.Hub,
	}
	d := Dispatch{
		CDB:    databases.NewComplaintDatabase(a.dbHelper),
		ODB:    databases.NewOfficerDatabase(a.dbHelper),
		Engine: a.Engine,
	}
	o := Officer{DB: databases.NewOfficerDatabase(a.dbHelper)}
	u := User{DB: databases.NewUserDatabase(a.dbHelper)}
	g := NewGeocode(&a.Config)
	cloudinaryHandler := CloudinaryHandler{}

	rateLimit := api.SubmissionRateLimiter(a.Redis, dailySubmissionLimit)

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	r.HandleFunc("/ws/notifications", a.Hub.HandleNotificationsWebSocket)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/complaint", api.Middleware(rateLimit(http.HandlerFunc(c.CreateComplaintHandler)))).Methods("POST")
	apiCreate.Handle("/complaints", api.Middleware(http.HandlerFunc(c.ComplaintHandler))).Methods("GET")
	apiCreate.Handle("/complaints/user/{user_id}", api.Middleware(http.HandlerFunc(c.ComplaintsByUserIDHandler))).Methods("GET")
	apiCreate.Handle("/complaint/{complaint_id}", api.Middleware(http.HandlerFunc(c.ComplaintByIDHandler))).Methods("GET")
	apiCreate.Handle("/complaint/{complaint_id}/status", api.Middleware(http.HandlerFunc(c.UpdateComplaintStatusHandler))).Methods("PUT")
	apiCreate.Handle("/complaint/{complaint_id}/image", api.Middleware(http.HandlerFunc(c.AttachComplaintImageHandler))).Methods("PUT")
	apiCreate.Handle("/complaint/{complaint_id}/upvote", api.Middleware(http.HandlerFunc(c.ToggleUpvoteHandler))).Methods("POST")
	apiCreate.Handle("/complaint/{complaint_id}/comment", api.Middleware(http.HandlerFunc(c.AddCommentHandler))).Methods("POST")
	apiCreate.Handle("/complaint/{complaint_id}/comment/{comment_id}", api.Middleware(http.HandlerFunc(c.DeleteCommentHandler))).Methods("DELETE")
	apiCreate.Handle("/complaint/{complaint_id}/feedback", api.Middleware(http.HandlerFunc(c.SubmitFeedbackHandler))).Methods("POST")

	apiCreate.Handle("/complaint/{complaint_id}/process", api.Middleware(http.HandlerFunc(d.ProcessComplaintHandler))).Methods("POST")
	apiCreate.Handle("/complaint/{complaint_id}/accept-recommendation", api.Middleware(http.HandlerFunc(d.AcceptRecommendationHandler))).Methods("POST")
	apiCreate.Handle("/categorize-image", api.Middleware(http.HandlerFunc(d.CategorizeImageHandler))).Methods("POST")

	apiCreate.Handle("/officer", api.Middleware(http.HandlerFunc(o.CreateOfficerHandler))).Methods("POST")
	apiCreate.Handle("/officer/{officer_id}", api.Middleware(http.HandlerFunc(o.OfficerByIDHandler))).Methods("GET")
	apiCreate.Handle("/officers", api.Middleware(http.HandlerFunc(o.OfficerHandler))).Methods("GET")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.CreateUserHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserByIDHandler))).Methods("GET")

	apiCreate.Handle("/geocode/reverse", api.Middleware(http.HandlerFunc(g.ReverseGeocodeHandler))).Methods("GET")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("civic-report-api has connected to the database")

	a.Redis = redis.NewClient(&redis.Options{
		Addr:     a.Config.RedisAddr,
		Password: a.Config.RedisPassword,
	})

	a.Engine = dispatch.NewEngine(dispatch.NewHTTPClassifier(&a.Config))
	a.Hub = NewNotificationHub()

	uploader, err := NewCloudinaryUploader()
	if err != nil {
		// photo uploads degrade to pass-through URLs without cloudinary
		zap.S().Warnw("cloudinary not configured, data URI uploads disabled", "error", err)
	} else {
		a.Uploader = uploader
	}

	// initialize api router
	a.initializeRoutes()
	return nil
}

// DBHelper exposes the underlying database connection so main can hand it
// to the scheduler.
func (a *App) DBHelper() databases.DatabaseHelper {
	return a.dbHelper
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
