package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/flipbook/internal/cartoon"
	"github.com/example/flipbook/internal/screen"
	"github.com/example/flipbook/internal/timer"
)

// flipsim plays one cartoon headlessly on a tracing sim screen, printing
// every offset and progress transition. Handy for checking a cartoon
// definition before wiring it to real hardware.
func main() {
	var (
		cartoonPath = flag.String("cartoon", "", "path to a cartoon YAML definition")
		frames      = flag.Int("frames", 6, "frame count for the default movie cartoon")
		delay       = flag.Float64("delay", 120, "delay in ms for the default cartoon")
		loop        = flag.Bool("loop", false, "loop the default cartoon")
		duration    = flag.Duration("for", 5*time.Second, "how long to run before stopping")
	)
	flag.Parse()

	cfg := cartoon.Config{
		Mode:        cartoon.ModeMovie,
		FrameWidth:  16,
		FrameHeight: 16,
		FrameCount:  *frames,
		Delay:       *delay,
		Loop:        *loop,
	}
	if *cartoonPath != "" {
		data, err := os.ReadFile(*cartoonPath)
		if err != nil {
			log.Fatalf("read cartoon: %v", err)
		}
		cfg = cartoon.Config{}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("yaml: %v", err)
		}
	}
	cfg.OnLastFrame = func(p *cartoon.Player) {
		fmt.Printf("[last] position=%d\n", p.SequenceNumber())
	}

	scr := screen.NewSim("flipsim")
	scr.Trace = true

	p, err := cartoon.NewPlayer(cfg, scr, timer.Wall{})
	if err != nil {
		log.Fatalf("cartoon rejected: %v", err)
	}
	p.Play()

	poll := time.NewTicker(25 * time.Millisecond)
	defer poll.Stop()
	deadline := time.After(*duration)
	for {
		select {
		case <-poll.C:
			if !p.Playing() {
				fmt.Printf("sequence exhausted at position %d after %d renders\n",
					p.SequenceNumber(), len(scr.Offsets()))
				return
			}
		case <-deadline:
			p.Stop()
			fmt.Printf("stopped at position %d after %d renders\n",
				p.SequenceNumber(), len(scr.Offsets()))
			return
		}
	}
}
