package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mbeaumont/tide/internal/config"
	"github.com/mbeaumont/tide/internal/engine"
	"github.com/mbeaumont/tide/internal/logging"
	"github.com/mbeaumont/tide/internal/queue"
	"github.com/mbeaumont/tide/internal/scan"
	"github.com/mbeaumont/tide/internal/state"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tide: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer log.Sync() //nolint:errcheck // stderr sync is best effort

	stateMgr, err := state.Open()
	if err != nil {
		return fmt.Errorf("open state db: %w", err)
	}
	defer stateMgr.Close()

	q := queue.New()
	restored := false

	// Explicit locators replace the saved queue; otherwise restore it,
	// falling back to a scan of the configured music folder.
	if len(args) > 0 {
		q.Add(scan.Locators(args, log)...)
	} else {
		saved, err := stateMgr.GetQueue()
		if err != nil {
			log.Warn("restore queue", zap.Error(err))
		} else if len(saved.Tracks) > 0 {
			q.Restore(saved.Tracks, saved.CurrentIndex, saved.Shuffle)
			restored = true
		}
		if q.IsEmpty() && cfg.MusicFolder != "" {
			tracks, err := scan.Folder(cfg.MusicFolder, log)
			if err != nil {
				return fmt.Errorf("scan %s: %w", cfg.MusicFolder, err)
			}
			q.Add(tracks...)
		}
	}
	if q.IsEmpty() {
		return fmt.Errorf("nothing to play: pass files or URLs, or set music_folder in the config")
	}

	volume, err := stateMgr.GetVolume(cfg.Volume)
	if err != nil {
		log.Warn("restore volume", zap.Error(err))
		volume = cfg.Volume
	}

	eng, err := engine.New(q, engine.Options{
		SampleRate:       cfg.SampleRate,
		DeviceBuffer:     time.Duration(cfg.BufferMs) * time.Millisecond,
		ProgressInterval: time.Duration(cfg.ProgressMs) * time.Millisecond,
		Volume:           &volume,
		Logger:           log,
	})
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer eng.Close()

	if restored {
		saved, _ := stateMgr.GetQueue()
		if saved != nil {
			eng.SetRepeatMode(engine.RepeatMode(saved.RepeatMode))
		}
	}

	sub := eng.Subscribe()
	go printEvents(sub)

	if err := eng.Play(); err != nil {
		log.Warn("initial play", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	lineCh := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lineCh <- scanner.Text()
		}
		close(lineCh)
	}()

	fmt.Println("tide ready. Type 'help' for commands.")
	for {
		select {
		case <-sigCh:
			saveState(stateMgr, eng, log)
			return nil
		case line, ok := <-lineCh:
			if !ok {
				saveState(stateMgr, eng, log)
				return nil
			}
			if quit := dispatch(eng, stateMgr, line); quit {
				saveState(stateMgr, eng, log)
				return nil
			}
		}
	}
}

// dispatch runs one console command. It returns true when the user quits.
func dispatch(eng *engine.Engine, stateMgr *state.Manager, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "play", "p":
		err = eng.Play()
	case "pause":
		err = eng.Pause()
	case "toggle", "t":
		err = eng.TogglePlayPause()
	case "stop", "s":
		err = eng.Stop()
	case "next", "n":
		err = eng.PlayNext()
	case "prev", "b":
		err = eng.PlayPrevious()
	case "seek":
		if len(args) != 1 {
			fmt.Println("usage: seek <seconds>")
			return false
		}
		secs, parseErr := strconv.ParseFloat(args[0], 64)
		if parseErr != nil {
			fmt.Println("usage: seek <seconds>")
			return false
		}
		err = eng.Seek(time.Duration(secs * float64(time.Second)))
	case "vol", "v":
		if len(args) != 1 {
			fmt.Printf("volume %.0f%%\n", eng.Volume()*100)
			return false
		}
		v, parseErr := strconv.ParseFloat(args[0], 64)
		if parseErr != nil {
			fmt.Println("usage: vol <0..1>")
			return false
		}
		eng.SetVolume(v)
		stateMgr.SaveVolume(eng.Volume())
	case "repeat", "r":
		mode := eng.RepeatMode()
		switch mode {
		case engine.RepeatOff:
			mode = engine.RepeatAll
		case engine.RepeatAll:
			mode = engine.RepeatOne
		default:
			mode = engine.RepeatOff
		}
		eng.SetRepeatMode(mode)
	case "shuffle", "sh":
		eng.SetShuffle(!eng.Shuffle())
	case "list", "ls":
		printQueue(eng)
	case "jump", "j":
		if len(args) != 1 {
			fmt.Println("usage: jump <index>")
			return false
		}
		idx, parseErr := strconv.Atoi(args[0])
		if parseErr != nil {
			fmt.Println("usage: jump <index>")
			return false
		}
		if t := eng.Queue().JumpTo(idx); t != nil {
			err = eng.PlayTrack(*t)
		} else {
			fmt.Println("no such track")
		}
	case "status", "st":
		printStatus(eng)
	case "help", "h":
		printHelp()
	case "quit", "q", "exit":
		return true
	default:
		fmt.Printf("unknown command %q, try 'help'\n", cmd)
	}

	if err != nil {
		fmt.Printf("error: %v\n", err)
	}
	return false
}

func saveState(stateMgr *state.Manager, eng *engine.Engine, log *zap.Logger) {
	q := eng.Queue()
	snapshot := state.QueueState{
		CurrentIndex: q.CurrentIndex(),
		RepeatMode:   int(eng.RepeatMode()),
		Shuffle:      q.Shuffled(),
		Tracks:       q.Tracks(),
	}
	if err := stateMgr.SaveQueue(snapshot); err != nil {
		log.Warn("save queue", zap.Error(err))
	}
	stateMgr.SaveVolume(eng.Volume())
}

// printEvents consumes the engine's event stream until the subscription
// is closed.
func printEvents(sub *engine.Subscription) {
	for {
		select {
		case <-sub.Done:
			return
		case ev := <-sub.TrackChanged:
			fmt.Printf("\r▶ %s\n", formatTrack(ev.Track.Title, ev.Track.Artist))
		case ev := <-sub.Progress:
			fmt.Printf("\r  %s / %s ", formatDuration(ev.Position), formatDuration(ev.Duration))
		case <-sub.Paused:
			fmt.Println("\r⏸ paused")
		case <-sub.Stopped:
			fmt.Println("\r■ stopped")
		case ev := <-sub.VolumeChanged:
			fmt.Printf("\rvolume %.0f%%\n", ev.Volume*100)
		case ev := <-sub.ModeChanged:
			fmt.Printf("\rrepeat %s, shuffle %v\n", ev.Repeat, ev.Shuffle)
		case ev := <-sub.Errors:
			fmt.Printf("\r%s: %v\n", ev.Op, ev.Err)
		}
	}
}

func printQueue(eng *engine.Engine) {
	q := eng.Queue()
	current := q.CurrentIndex()
	for i, t := range q.Tracks() {
		marker := "  "
		if i == current {
			marker = "▶ "
		}
		fmt.Printf("%s%3d  %s\n", marker, i, formatTrack(t.Title, t.Artist))
	}
}

func printStatus(eng *engine.Engine) {
	fmt.Printf("%s", eng.State())
	if t := eng.CurrentTrack(); t != nil {
		fmt.Printf("  %s  %s / %s",
			formatTrack(t.Title, t.Artist),
			formatDuration(eng.Position()),
			formatDuration(eng.Duration()))
	}
	fmt.Printf("  vol %.0f%%  repeat %s", eng.Volume()*100, eng.RepeatMode())
	if eng.Shuffle() {
		fmt.Print("  shuffle")
	}
	fmt.Println()
}

func printHelp() {
	fmt.Print(`commands:
  play (p)       start or resume playback
  pause          pause playback
  toggle (t)     toggle play/pause
  stop (s)       stop playback
  next (n)       play the next track
  prev (b)       play the previous track
  seek <secs>    seek within the current track
  vol [0..1]     show or set the volume
  repeat (r)     cycle repeat mode off/all/one
  shuffle (sh)   toggle shuffle
  jump <index>   play the track at a queue index
  list (ls)      show the queue
  status (st)    show playback status
  quit (q)       save state and exit
`)
}

func formatTrack(title, artist string) string {
	if artist == "" {
		return title
	}
	return artist + " - " + title
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
