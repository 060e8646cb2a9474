package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-redis/redis/v7"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/plante-app/plante-notify/backend"
	"github.com/plante-app/plante-notify/delivery"
	"github.com/plante-app/plante-notify/dispatch"
	"github.com/plante-app/plante-notify/fields"
	"github.com/plante-app/plante-notify/foreground"
	"github.com/plante-app/plante-notify/gateway"
	"github.com/plante-app/plante-notify/push"
	"github.com/plante-app/plante-notify/registration"
	"github.com/plante-app/plante-notify/scheduler"
)

const configFile = "notify.json"

func parseConfig(data *fields.NotifyConfig) error {
	raw, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(raw, data); err != nil {
		logrusLogger.Printf("Error in parsing config file: %v", err)
		return err
	}
	return nil
}

func getFirebase(credentials string) (*firebase.App, error) {
	opt := option.WithCredentialsFile(credentials)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %v", err)
	}
	return app, nil
}

// GetMainEngine assembles the gin engine with every route the platform and
// the application talk to.
func GetMainEngine() *gin.Engine {
	route := gin.Default()
	route.HandleMethodNotAllowed = true
	route.Use(gateway.RequestID())
	route.Use(gateway.RequestLogger(logrusLogger, gateway.LogSamplingConfig{}))
	route.Use(gateway.Instrumentation())

	route.POST("/notifications/register", tokenManager.Enable)
	route.POST("/notifications/unregister", tokenManager.Disable)
	route.POST("/reminders", schedulerService.CreateReminder)

	// Platform-facing delivery surface.
	route.POST("/messages", router.Receive)
	route.POST("/messages/click", backgroundHandler.Click)
	route.POST("/pages/open", pages.OpenPage)
	route.POST("/pages/close", pages.ClosePage)

	route.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": true})
	})
	route.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return route
}

var (
	logrusLogger      = logrus.New()
	notifyConfig      fields.NotifyConfig
	redisClient       *redis.Client
	backendClient     *backend.Client
	tokenManager      *registration.Manager
	schedulerService  *scheduler.Service
	backgroundHandler *delivery.Handler
	router            *push.Router
	pages             *foreground.Registry
	dispatcher        *dispatch.Service
	messagingClient   *messaging.Client
)

func init() {
	logrusLogger.Level = logrus.DebugLevel
	logrusLogger.SetReportCaller(true)

	if err := godotenv.Load(); err != nil {
		logrusLogger.Printf("no .env file loaded: %v", err)
	}
	if err := parseConfig(&notifyConfig); err != nil {
		logrusLogger.Printf("error in parsing file: %v", err)
	}
	notifyConfig.Defaults()

	redisClient = redis.NewClient(&redis.Options{Addr: notifyConfig.RedisHost})

	backendClient = backend.New(notifyConfig.BackendURL, logrusLogger)

	bridge := registration.NewPageBridge()
	tokenManager = registration.NewManager(bridge, bridge, backendClient, logrusLogger)
	tokenManager.Bridge = bridge

	firebaseApp, err := getFirebase(notifyConfig.FirebaseCredentials)
	if err != nil {
		logrusLogger.Printf("firebase is not configured, running without FCM: %v", err)
	} else {
		messagingClient, err = firebaseApp.Messaging(context.Background())
		if err != nil {
			logrusLogger.Printf("error getting messaging client: %v", err)
		} else {
			tokenManager.Verifier = &registration.FCMVerifier{Client: messagingClient}
		}
	}

	schedulerService = scheduler.New(backendClient, tokenManager, logrusLogger)

	center := delivery.NewCenter()
	navigator := delivery.NavigatorFunc(func(path string) error {
		logrusLogger.WithField("path", path).Info("opening application window")
		return nil
	})
	backgroundHandler = delivery.NewHandler(center, navigator, logrusLogger)

	broker := push.NewBroker()
	router = push.NewRouter(broker, backgroundHandler, logrusLogger)
	pages = foreground.NewRegistry(broker, center, logrusLogger)

	if messagingClient != nil {
		loc, err := time.LoadLocation(notifyConfig.Location)
		if err != nil {
			logrusLogger.Printf("unknown location %q, falling back to Asia/Bangkok", notifyConfig.Location)
			loc = nil
		}
		source := &dispatch.BackendSource{Client: backendClient}
		dispatcher = dispatch.New(source, source, messagingClient, redisClient, logrusLogger, loc)
	}

	binding.Validator = new(fields.DefaultValidator)
}
