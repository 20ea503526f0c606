package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resumetracker/internal/clmiddleware"
	handlers_analytics "resumetracker/internal/handlers/analytics"
	handlers_static "resumetracker/internal/handlers/static"
	handlers_track "resumetracker/internal/handlers/track"
	"resumetracker/internal/models/clconfig"
	"resumetracker/internal/models/cllog"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const VERSION = "v1.0.0"

var BuildID string

func parseCommandLineArgs() (configFile string, shouldCreateExample bool, versionDisplay bool) {
	var config = flag.String("config", "", "Fichier de configuration YAML (optionnel)")
	var example = flag.Bool("example", false, "Créer un fichier de configuration exemple")
	var version = flag.Bool("version", false, "version du produit")
	flag.Parse()

	return *config, *example, *version
}

func initConfiguration() *clconfig.Config {
	configFile, shouldCreateExample, versionDisplay := parseCommandLineArgs()

	if versionDisplay {
		fmt.Println(BuildID)
		os.Exit(0)
	}

	clconfig.CreateExample(shouldCreateExample, configFile)

	conf, err := clconfig.Load(configFile)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		fmt.Println("Usage:")
		fmt.Println("  resumetracker -config resumetracker.yaml")
		fmt.Println("  resumetracker -example  (pour créer un fichier exemple)")
		fmt.Println("  resumetracker -version  (affiche la version)")
		os.Exit(1)
	}
	return conf
}

func newServer(conf *clconfig.Config) *gin.Engine {
	if conf.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	if conf.TrustedProxies != nil {
		if err := r.SetTrustedProxies(conf.TrustedProxies); err != nil {
			log.Warn().Err(err).Msg("Invalid trusted proxies")
		}
	}
	if conf.TrustedPlatform != "" {
		switch conf.TrustedPlatform {
		case "cloudflare":
			r.TrustedPlatform = gin.PlatformCloudflare
		case "google":
			r.TrustedPlatform = gin.PlatformGoogleAppEngine
		case "flyio":
			r.TrustedPlatform = gin.PlatformFlyIO
		default:
			r.TrustedPlatform = conf.TrustedPlatform
		}
	}

	return r
}

func setMiddleware(r *gin.Engine) {
	clmiddleware.InitMiddleware(r)
}

func setRoutes(r *gin.Engine, app *application) {
	conf := app.conf
	trackHandler := handlers_track.NewTrackHandler(app.tracker, conf.Resume.URL, app.sheetsEnabled)
	analyticsHandler := handlers_analytics.NewAnalyticsHandler(app.analytics, app.sheetsEnabled)
	staticHandler := handlers_static.NewStaticHandler(conf.StaticPath)

	//default
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})

	// Routes statiques
	r.GET("/", staticHandler.Index)
	r.GET("/index.html", staticHandler.Index)
	r.GET("/resume.pdf", staticHandler.Resume)

	// Tracking
	r.GET("/track", trackHandler.Track)
	r.GET("/track-email", trackHandler.TrackEmail)
	r.GET("/health", trackHandler.Health)

	// Stats, limitées et protégées si un login est configuré
	stats := r.Group("/stats")
	stats.Use(clmiddleware.NewLimiter(conf.Stats.RateLimit), clmiddleware.BasicAuth(conf.Stats.Login, conf.Stats.Hash))
	{
		stats.GET("", analyticsHandler.GetStats)
		stats.GET("/realtime", analyticsHandler.GetRealtimeStats)
	}
}

// startServer bloque jusqu'à l'arrêt du serveur ou l'annulation de ctx
func startServer(ctx context.Context, r *gin.Engine, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ec := make(chan error, 1)
	go func() {
		log.Info().Msgf("Website démarré sur http://%s", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			ec <- err
			return
		}
		ec <- nil
	}()

	select {
	case err := <-ec:
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server gracefully")
		haltCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(haltCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown of HTTP server failed")
		}
		return <-ec
	}
}

func main() {
	if BuildID == "" {
		BuildID = VERSION
	}

	conf := initConfiguration()
	if err := cllog.InitLogger(conf.Logger, conf.Production); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	clconfig.DisplayConfiguration(conf, BuildID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Initialisation impossible")
	}
	defer app.Close()

	r := newServer(conf)
	setMiddleware(r)
	setRoutes(r, app)

	if err := startServer(ctx, r, conf.Listen.Website); err != nil {
		log.Error().Err(err).Msg("HTTP server stopped")
	}
}
