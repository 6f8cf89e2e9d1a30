// Package preview serves the current mind map and its exports over HTTP.
package preview

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mindm/internal/actions"
	"mindm/internal/export"
	"mindm/internal/log"
	"mindm/internal/remote"
)

type Server struct {
	Actions *actions.Service
	Logger  *log.Logger
}

func NewServer(svc *actions.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Server{Actions: svc, Logger: logger}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/export/"+string(export.TypeMarkmapHTML))
	})

	api := r.Group("/api")
	api.GET("/mindmap", s.GetMindmap)
	api.GET("/selection", s.GetSelection)
	api.GET("/grounding", s.GetGrounding)
	api.GET("/mermaid", s.GetMermaid)
	api.POST("/mermaid", s.CreateFromMermaid)

	r.GET("/export/:type", s.Export)
	return r
}

// Serve listens on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.SetupRouter()}

	errc := make(chan error, 1)
	go func() {
		s.Logger.Info(ctx, "Preview server started", log.Fields{"addr": addr})
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug(c.Request.Context(), "Preview request", log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

// fail writes the action payload with a status matching its kind.
func (s *Server) fail(c *gin.Context, err error) {
	var e *actions.Error
	if !errors.As(err, &e) {
		e = &actions.Error{Kind: actions.KindInternal, Message: err.Error()}
	}
	status := http.StatusInternalServerError
	switch {
	case e.Kind == actions.KindInvalidInput:
		status = http.StatusBadRequest
	case errors.Is(err, remote.ErrNoDocument):
		status = http.StatusNotFound
	}
	s.Logger.Warn(c.Request.Context(), "Preview request failed", log.Fields{"path": c.Request.URL.Path, "error": e.Message})
	c.JSON(status, e)
}

func (s *Server) GetMindmap(c *gin.Context) {
	v, err := s.Actions.GetMindmap(c.Request.Context(), c.DefaultQuery("mode", "full"), queryBool(c, "turbo_mode"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) GetSelection(c *gin.Context) {
	v, err := s.Actions.GetSelection(c.Request.Context(), queryBool(c, "turbo_mode"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) GetGrounding(c *gin.Context) {
	v, err := s.Actions.GetGroundingInformation(c.Request.Context(), c.DefaultQuery("mode", "full"), queryBool(c, "turbo_mode"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) GetMermaid(c *gin.Context) {
	v, err := s.Actions.SerializeMermaid(c.Request.Context(), queryBool(c, "id_only"), c.DefaultQuery("mode", "full"), queryBool(c, "turbo_mode"))
	if err != nil {
		s.fail(c, err)
		return
	}
	text, _ := v.(string)
	c.String(http.StatusOK, text)
}

type CreateRequest struct {
	Mermaid   string `json:"mermaid"`
	TurboMode bool   `json:"turbo_mode"`
}

func (s *Server) CreateFromMermaid(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, &actions.Error{Kind: actions.KindInvalidInput, Message: "Invalid request"})
		return
	}
	v, err := s.Actions.CreateFromMermaid(c.Request.Context(), req.Mermaid, req.TurboMode)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func contentType(t export.Type) string {
	switch {
	case t.HTML():
		return "text/html; charset=utf-8"
	case t == export.TypeJSON:
		return "application/json; charset=utf-8"
	case t == export.TypeYAML:
		return "application/yaml; charset=utf-8"
	case t == export.TypeMarkdown || t == export.TypeMarkmap:
		return "text/markdown; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

func (s *Server) Export(c *gin.Context) {
	r, err := s.Actions.Export(c.Request.Context(), c.Param("type"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, contentType(r.Type), []byte(r.Output))
}
