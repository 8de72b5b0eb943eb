package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/example/flipbook/internal/cartoon"
)

// Response is the uniform JSON envelope for every endpoint.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CartoonStatus is the playback state of one registered cartoon. Position
// is null until the first advance.
type CartoonStatus struct {
	Name     string `json:"name"`
	Position *int   `json:"position"`
	Playing  bool   `json:"playing"`
	Mode     string `json:"mode"`
	Loop     bool   `json:"loop"`
}

// Server exposes the player registry over REST.
type Server struct {
	reg       *cartoon.Registry
	startTime time.Time
}

func NewServer(reg *cartoon.Registry) *Server {
	return &Server{reg: reg, startTime: time.Now()}
}

// Router builds the gin engine with CORS and all cartoon routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	s.Register(r)
	return r
}

// Register mounts the API routes on an existing engine.
func (s *Server) Register(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/cartoons", s.handleList)
		api.GET("/cartoons/:name", s.handleStatus)
		api.POST("/cartoons/:name/play", s.handlePlay)
		api.POST("/cartoons/:name/stop", s.handleStop)
		api.POST("/cartoons/:name/step", s.handleStep)
		api.POST("/cartoons/:name/rewind", s.handleRewind)
		api.POST("/cartoons/:name/skip", s.handleSkip)
		api.POST("/cartoons/:name/frame", s.handleFrame)
		api.PATCH("/cartoons/:name/config", s.handleConfigure)
	}
}

func (s *Server) status(name string, p *cartoon.Player) CartoonStatus {
	st := CartoonStatus{Name: name, Playing: p.Playing()}
	cfg := p.Config()
	st.Mode = string(cfg.Mode)
	st.Loop = cfg.Loop
	if pos := p.SequenceNumber(); pos >= 0 {
		st.Position = &pos
	}
	return st
}

// player resolves the :name route param, answering 404 itself on a miss.
func (s *Server) player(c *gin.Context) (*cartoon.Player, string, bool) {
	name := c.Param("name")
	p, ok := s.reg.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, Response{Status: "error", Error: "cartoon " + name + " not found"})
		return nil, name, false
	}
	return p, name, true
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Status: "success", Data: gin.H{
		"uptime_s": time.Since(s.startTime).Seconds(),
		"cartoons": len(s.reg.List()),
	}})
}

func (s *Server) handleList(c *gin.Context) {
	out := []CartoonStatus{}
	for _, name := range s.reg.List() {
		if p, ok := s.reg.Get(name); ok {
			out = append(out, s.status(name, p))
		}
	}
	c.JSON(http.StatusOK, Response{Status: "success", Data: out})
}

func (s *Server) handleStatus(c *gin.Context) {
	p, name, ok := s.player(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, Response{Status: "success", Data: s.status(name, p)})
}

func (s *Server) handlePlay(c *gin.Context) {
	p, name, ok := s.player(c)
	if !ok {
		return
	}
	p.Play()
	c.JSON(http.StatusOK, Response{Status: "success", Data: s.status(name, p)})
}

func (s *Server) handleStop(c *gin.Context) {
	p, name, ok := s.player(c)
	if !ok {
		return
	}
	p.Stop()
	c.JSON(http.StatusOK, Response{Status: "success", Data: s.status(name, p)})
}

func (s *Server) handleStep(c *gin.Context) {
	p, name, ok := s.player(c)
	if !ok {
		return
	}
	code := p.Step()
	c.JSON(http.StatusOK, Response{Status: "success", Data: gin.H{
		"progress":      int(code),
		"progress_name": code.String(),
		"cartoon":       s.status(name, p),
	}})
}

func (s *Server) handleRewind(c *gin.Context) {
	p, name, ok := s.player(c)
	if !ok {
		return
	}
	p.Rewind()
	c.JSON(http.StatusOK, Response{Status: "success", Data: s.status(name, p)})
}

type skipRequest struct {
	Position int `json:"position"`
}

func (s *Server) handleSkip(c *gin.Context) {
	p, name, ok := s.player(c)
	if !ok {
		return
	}
	var req skipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Error: "invalid skip request: " + err.Error()})
		return
	}
	p.SkipTo(req.Position)
	c.JSON(http.StatusOK, Response{Status: "success", Data: s.status(name, p)})
}

type frameRequest struct {
	Frame int `json:"frame"`
}

func (s *Server) handleFrame(c *gin.Context) {
	p, name, ok := s.player(c)
	if !ok {
		return
	}
	var req frameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Error: "invalid frame request: " + err.Error()})
		return
	}
	p.DisplayFrame(req.Frame)
	c.JSON(http.StatusOK, Response{Status: "success", Data: s.status(name, p)})
}

func (s *Server) handleConfigure(c *gin.Context) {
	p, name, ok := s.player(c)
	if !ok {
		return
	}
	var patch cartoon.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Error: "invalid configuration patch: " + err.Error()})
		return
	}
	if err := p.Configure(patch); err != nil {
		c.JSON(http.StatusBadRequest, Response{Status: "error", Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Status: "success", Data: s.status(name, p)})
}
