// Command termagatchi runs the pet: it wires config, item catalog,
// persistence, engine, and chat responder together, drives the tick
// and autosave timers, and reads commands from stdin. All game logic
// lives in internal/; this is glue.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/moorebrett0/termagatchi/internal/brain"
	"github.com/moorebrett0/termagatchi/internal/config"
	"github.com/moorebrett0/termagatchi/internal/items"
	"github.com/moorebrett0/termagatchi/internal/pet"
	"github.com/moorebrett0/termagatchi/internal/save"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	catalog, err := loadCatalog(cfg.Pet.ItemsPath)
	if err != nil {
		// The one fatal startup condition: no valid catalog, no game.
		logger.Error("item catalog load failed", "err", err)
		os.Exit(1)
	}

	mgr := save.NewManager(cfg.Pet.SavePath, logger)
	snap, source, err := mgr.Load()
	if err != nil {
		fmt.Println("! save file was unreadable, starting a new pet")
	}

	engine := pet.NewEngine(catalog, logger)
	if source != save.SourceFresh {
		engine.Restore(snap)
	}
	if minutes := engine.Tick(time.Now()); minutes > 0 {
		logger.Info("caught up on offline time", "minutes", minutes)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	responder := brain.New(ctx, cfg.BrainConfig(), logger)

	go tickLoop(ctx, engine, cfg.Pet.TickInterval.Std())
	go mgr.Run(ctx, cfg.Pet.AutosaveInterval.Std(), engine.Snapshot)

	repl(ctx, cfg.Pet.Name, engine, responder, mgr)

	mgr.SaveOnExit(engine.Snapshot())
}

func loadCatalog(path string) (*items.Catalog, error) {
	if path == "" {
		return items.Defaults(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return items.Load(f)
}

func tickLoop(ctx context.Context, engine *pet.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			engine.Tick(time.Now())
		}
	}
}

func repl(ctx context.Context, petName string, engine *pet.Engine, responder *brain.Responder, mgr *save.Manager) {
	fmt.Printf("%s is here. Type /help for commands, anything else to chat.\n", petName)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "/") {
				if quit := dispatch(line, engine, mgr); quit {
					return
				}
				continue
			}
			chat(ctx, line, petName, engine, responder)
		}
	}
}

// dispatch runs one slash command. Returns true on /quit.
func dispatch(line string, engine *pet.Engine, mgr *save.Manager) bool {
	cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	var action brain.Action
	var err error
	switch cmd {
	case "feed":
		action, err = engine.Feed(arg)
	case "clean":
		action, err = engine.Clean(arg)
	case "play":
		action, err = engine.Play(arg)
	case "sleep":
		action, err = engine.Sleep(arg != "off")
	case "pet":
		action, err = engine.Pet()
	case "heal":
		action, err = engine.Heal()
	case "vet":
		action, err = engine.Vet()
	case "status":
		printStatus(engine.Snapshot())
		return false
	case "save":
		if err := mgr.Save(engine.Snapshot()); err != nil {
			fmt.Println("! save failed:", err)
		} else {
			fmt.Println("saved.")
		}
		return false
	case "reset":
		engine.Reset()
		fmt.Println("started over with a brand-new pet.")
		return false
	case "help":
		fmt.Println("/feed [item]  /clean [item]  /play [item]  /sleep [on|off]")
		fmt.Println("/pet  /heal  /vet  /status  /save  /reset  /quit")
		return false
	case "quit", "exit":
		return true
	default:
		fmt.Println("? unknown command, try /help")
		return false
	}

	if err != nil {
		fmt.Println("!", friendlyError(err))
		return false
	}
	fmt.Printf("[%s]\n", action)
	return false
}

func friendlyError(err error) string {
	var cooldown *pet.CooldownError
	var unknown *items.UnknownItemError
	switch {
	case errors.As(err, &cooldown):
		return fmt.Sprintf("%s needs %s before you can use it again", cooldown.ItemID, cooldown.Remaining.Round(time.Second))
	case errors.As(err, &unknown):
		return fmt.Sprintf("don't have any %q", unknown.ID)
	case errors.Is(err, pet.ErrInvalidState):
		return "shh, the pet is sleeping"
	case errors.Is(err, pet.ErrNotNeeded):
		return "the pet is healthy enough already"
	}
	return err.Error()
}

func chat(ctx context.Context, userText, petName string, engine *pet.Engine, responder *brain.Responder) {
	gc := engine.ChatContext(userText, time.Now())
	gc.PetName = petName

	reply := responder.GetReply(ctx, gc)
	engine.RecordChat(userText, reply.Say)
	fmt.Printf("%s: %s  [%s]\n", petName, reply.Say, reply.Action)
}

func printStatus(snap pet.Snapshot) {
	s := snap.Stats
	fmt.Printf("Hunger:    %3.0f/100\n", s.Hunger)
	fmt.Printf("Hygiene:   %3.0f/100\n", s.Hygiene)
	fmt.Printf("Mood:      %3.0f/100\n", s.Mood)
	fmt.Printf("Energy:    %3.0f/100\n", s.Energy)
	fmt.Printf("Affection: %3.0f/100\n", s.Affection)
	fmt.Printf("Health:    %3.0f/100\n", s.Health)
	fmt.Printf("Sleeping:  %v\n", s.Sleeping)
	fmt.Printf("Feeling:   %s\n", snap.Mood)
	fmt.Printf("Play time: %.1f hours\n", snap.PlayTime.Hours())
}
