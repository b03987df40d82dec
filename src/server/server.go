package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tracking_ivr/src/conversation"
	"tracking_ivr/src/dialogue"
	"tracking_ivr/src/model"
	"tracking_ivr/src/storage"
	"tracking_ivr/src/telephony"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const ivrPrefix = "/ivr"

// Options holds what the webhook server needs. AuthToken enables request
// signature checks when set. Threads is optional; when present its lapsed AI
// threads are swept with the sessions.
type Options struct {
	Machine       *dialogue.Machine
	Store         storage.Store
	Threads       *conversation.Service
	Config        model.ServerConfig
	Telephony     model.TelephonyConfig
	SweepSchedule string
	Logger        zerolog.Logger
}

// Server exposes the dialogue machine as telephony webhooks
type Server struct {
	machine    *dialogue.Machine
	store      storage.Store
	threads    *conversation.Service
	renderer   *telephony.Renderer
	cfg        model.ServerConfig
	authToken  string
	publicBase string
	engine     *gin.Engine
	cron       *cron.Cron
	log        zerolog.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Machine == nil || opts.Store == nil {
		return nil, fmt.Errorf("server: machine and store are required")
	}
	publicBase := strings.TrimRight(opts.Config.PublicBaseURL, "/")

	s := &Server{
		machine:    opts.Machine,
		store:      opts.Store,
		threads:    opts.Threads,
		renderer:   telephony.NewRenderer(publicBase+ivrPrefix, opts.Telephony),
		cfg:        opts.Config,
		authToken:  opts.Telephony.AuthToken,
		publicBase: publicBase,
		cron:       cron.New(),
		log:        opts.Logger,
	}

	if opts.SweepSchedule != "" {
		if _, err := s.cron.AddFunc(opts.SweepSchedule, s.sweep); err != nil {
			return nil, fmt.Errorf("server: sweep schedule %q: %w", opts.SweepSchedule, err)
		}
	}

	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", s.handleHealth)

	ivr := router.Group(ivrPrefix)
	if s.authToken != "" {
		ivr.Use(s.verifySignature())
	}
	ivr.POST("/*action", s.handleEvent)
	ivr.GET("/*action", s.handleEvent)
	return router
}

// Handler is the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.engine,
	}

	s.cron.Start()
	defer func() {
		<-s.cron.Stop().Done()
	}()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Str("backend", s.store.Backend()).Msg("IVR webhook server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.log.Info().Msg("shutting down IVR webhook server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleEvent(c *gin.Context) {
	cont, in, err := telephony.ParseEvent(c.Param("action"), c.Request)
	if err != nil {
		s.log.Warn().Err(err).Msg("malformed webhook request")
		c.String(http.StatusBadRequest, "malformed request")
		return
	}

	resp := s.machine.Handle(c.Request.Context(), cont, in)
	body, err := s.renderer.Render(resp)
	if err != nil {
		s.log.Error().Err(err).Str("call_id", in.CallID).Str("action", string(cont.Action)).Msg("failed to render response")
		c.String(http.StatusInternalServerError, "render failure")
		return
	}
	c.Data(http.StatusOK, telephony.ContentType, body)
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()
	swept := s.store.Sweep(ctx)
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"backend":  s.store.Backend(),
		"sessions": s.store.Count(ctx),
		"swept":    swept,
	})
}

func (s *Server) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if n := s.store.Sweep(ctx); n > 0 {
		s.log.Info().Int("swept", n).Msg("expired sessions swept")
	}
	if s.threads == nil {
		return
	}
	if n := s.threads.Sweep(ctx); n > 0 {
		s.log.Info().Int("swept", n).Msg("expired AI threads swept")
	}
}

func (s *Server) verifySignature() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		fullURL := s.publicBase + c.Request.URL.RequestURI()
		if !telephony.ValidSignature(s.authToken, fullURL, c.Request.PostForm, c.GetHeader(telephony.SignatureHeader)) {
			s.log.Warn().Str("path", c.Request.URL.Path).Msg("rejected webhook with invalid signature")
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
