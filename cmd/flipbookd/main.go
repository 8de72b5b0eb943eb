package main

import (
	"context"
	"errors"
	"flag"
	"image"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/physic"

	"github.com/example/flipbook/internal/api"
	"github.com/example/flipbook/internal/cartoon"
	"github.com/example/flipbook/internal/config"
	"github.com/example/flipbook/internal/screen"
	"github.com/example/flipbook/internal/sheet"
	"github.com/example/flipbook/internal/timer"
	"github.com/example/flipbook/internal/ws"
)

func main() {
	// ---- Flags (config.yaml can override most) ----
	var (
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		configPath = flag.String("config", "flipbook.yaml", "path to flipbook.yaml")
		broker     = flag.String("broker", "", "MQTT broker URL (e.g. tcp://localhost:1883)")
		spiHz      = flag.Int("spi-hz", 2400000, "SPI clock for LED matrix screens")
		trace      = flag.Bool("trace", false, "print offsets applied to sim screens")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// ---- Load flipbook.yaml (optional) ----
	var cfg *config.Config
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; using demo cartoon")
	} else {
		cfg = c
	}
	if cfg == nil {
		cfg = demoConfig()
	}
	if cfg.Addr != "" {
		*addr = cfg.Addr
	}
	if cfg.SPIHz > 0 {
		*spiHz = cfg.SPIHz
	}
	if cfg.MQTT.Broker != "" {
		*broker = cfg.MQTT.Broker
	}

	// ---- MQTT client (lazy: only when some cartoon wants it) ----
	var mqttClient mqtt.Client
	needMQTT := false
	for _, def := range cfg.Cartoons {
		if def.Screen == "mqtt" {
			needMQTT = true
		}
	}
	if needMQTT {
		if *broker == "" {
			log.Fatal().Msg("mqtt screens configured but no broker set")
		}
		clientID := cfg.MQTT.ClientID
		if clientID == "" {
			clientID = "flipbookd"
		}
		opts := mqtt.NewClientOptions().AddBroker(*broker).SetClientID(clientID)
		mqttClient = mqtt.NewClient(opts)
		if token := mqttClient.Connect(); token.Wait() && token.Error() != nil {
			log.Fatal().Err(token.Error()).Str("broker", *broker).Msg("mqtt connect failed")
		}
	}

	// ---- Registry, hub, screens, players ----
	reg := cartoon.NewRegistry()
	hub := ws.NewHub("browser", reg)
	sched := timer.Wall{}

	screens := make([]screen.Screen, 0, len(cfg.Cartoons))
	autoplay := make([]*cartoon.Player, 0, len(cfg.Cartoons))
	for name, def := range cfg.Cartoons {
		scr, err := buildScreen(name, def, cfg, hub, mqttClient, *spiHz, *trace)
		if err != nil {
			log.Fatal().Err(err).Str("cartoon", name).Msg("screen setup failed")
		}
		screens = append(screens, scr)

		p, err := reg.Attach(named{scr, name}, def.Cartoon, sched)
		if err != nil {
			log.Fatal().Err(err).Str("cartoon", name).Msg("cartoon rejected")
		}
		log.Info().Str("cartoon", name).Str("screen", def.Screen).
			Str("mode", string(p.Config().Mode)).Msg("cartoon attached")
		if def.Play {
			autoplay = append(autoplay, p)
		}
	}

	// ---- HTTP: REST API + websocket endpoints ----
	gin.SetMode(gin.ReleaseMode)
	router := api.NewServer(reg).Router()
	router.GET("/ws", gin.WrapF(hub.HandleFramesWS))
	router.GET("/control", gin.WrapF(hub.HandleControlWS))
	router.GET("/health", gin.WrapF(hub.HandleHealth))

	srv := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", *addr).Int("cartoons", len(cfg.Cartoons)).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	for _, p := range autoplay {
		p.Play()
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited")
	}

	// ---- Teardown ----
	for _, name := range reg.List() {
		reg.Detach(name)
	}
	for _, scr := range screens {
		_ = scr.Close()
	}
	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}
	log.Info().Msg("shut down")
}

// named gives a shared screen (hub, broker) a per-cartoon identity so the
// registry keys players by cartoon name.
type named struct {
	screen.Screen
	name string
}

func (n named) ID() string { return n.name }

func buildScreen(name string, def config.CartoonDef, cfg *config.Config, hub *ws.Hub, client mqtt.Client, spiHz int, trace bool) (screen.Screen, error) {
	switch def.Screen {
	case "ws":
		return hub, nil

	case "mqtt":
		topic := cfg.MQTT.Topic
		if topic == "" {
			topic = "flipbook"
		}
		return screen.NewMQTT(name, client, topic+"/"+name+"/offset"), nil

	case "spi":
		img, err := loadSheet(def)
		if err != nil {
			return nil, err
		}
		return screen.OpenSPI(name, img, def.Cartoon.FrameWidth, def.Cartoon.FrameHeight,
			physic.Frequency(spiHz)*physic.Hertz)

	default:
		s := screen.NewSim(name)
		s.Trace = trace
		return s, nil
	}
}

// loadSheet reads the cartoon's sprite sheet, or generates a test card
// covering every frame the configuration can address.
func loadSheet(def config.CartoonDef) (image.Image, error) {
	c := def.Cartoon
	vertical := c.Orientation == cartoon.Vertical
	if def.Sheet != "" {
		sh, err := sheet.Load(def.Sheet, c.FrameWidth, c.FrameHeight, vertical)
		if err != nil {
			return nil, err
		}
		return sh.Img, nil
	}
	return sheet.TestCard(maxFrame(c)+1, c.FrameWidth, c.FrameHeight).Img, nil
}

// maxFrame is the highest source frame the configuration can ask for.
func maxFrame(c cartoon.Config) int {
	switch c.Mode {
	case cartoon.ModeSequence:
		return maxOf(c.Sequence, 1)
	case cartoon.ModeVarSequence:
		return maxOf(c.Sequence, 2)
	default:
		return c.FrameCount - 1
	}
}

func maxOf(seq []int, stride int) int {
	m := 0
	for i := 0; i < len(seq); i += stride {
		if seq[i] > m {
			m = seq[i]
		}
	}
	return m
}

func demoConfig() *config.Config {
	return &config.Config{
		Addr: ":8080",
		Cartoons: map[string]config.CartoonDef{
			"demo": {
				Screen: "sim",
				Play:   true,
				Cartoon: cartoon.Config{
					Mode:        cartoon.ModeMovie,
					FrameWidth:  32,
					FrameHeight: 32,
					FrameCount:  8,
					Delay:       250,
					Loop:        true,
				},
			},
		},
	}
}
