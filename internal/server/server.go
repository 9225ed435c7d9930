package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dexgate-labs/dexgate/internal/candles"
	"github.com/dexgate-labs/dexgate/internal/quote"
	"github.com/dexgate-labs/dexgate/internal/token"
	"github.com/dexgate-labs/dexgate/internal/trades"
)

// Server owns the HTTP surface consumed by the trading UI.
type Server struct {
	tokens  *token.Service
	candles *candles.Store
	quotes  *quote.Resolver
	trades  *trades.Service
	swapper SwapBuilder

	limiter *rateLimiter
	httpSrv *http.Server
}

func New(tokens *token.Service, candleStore *candles.Store, quotes *quote.Resolver, tradeSvc *trades.Service, swapper SwapBuilder) *Server {
	return &Server{
		tokens:  tokens,
		candles: candleStore,
		quotes:  quotes,
		trades:  tradeSvc,
		swapper: swapper,
		limiter: newRateLimiter(10, 20),
	}
}

// Router assembles the gin engine with all middlewares and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	r.Use(cors.New(corsConf))

	r.Use(metricsMiddleware())
	r.Use(s.limiter.middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.GET("/tokens", s.getTokens)
	api.GET("/candles", s.getCandles)
	api.GET("/quote", s.getQuote)
	api.GET("/swap", s.getSwap)
	api.GET("/trades", s.getTrades)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, listen string) error {
	s.httpSrv = &http.Server{
		Addr:    listen,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", listen).Msg("http server started")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("http server stopped")
	return <-errCh
}
