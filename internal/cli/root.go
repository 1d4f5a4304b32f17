package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/photoqueue/internal/models"
)

const onlineCheckInterval = 3 * time.Second

func (a *App) getStatus() string {
	s := ""
	if a.weddingID != "" {
		s = a.weddingID + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to photoqueue CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	a.Login(ctx)

	go func() {
		a.StartOnlineStatusWatcher(ctx, onlineCheckInterval)
	}()
	go a.printEvents(ctx)

	for {
		fmt.Printf("pq %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: wedding <id>, keys <album> <process>, add <file...>, (l)ist, status, session <id>, pause <uuid>, resume <uuid>, cancel <uuid>, retry <uuid>, clear, logout, exit")
			} else {
				fmt.Println("Available commands: login, exit")
			}

		case "login":
			a.Login(ctx)
		case "logout":
			a.Logout(ctx)
		case "wedding":
			if len(args) == 0 {
				fmt.Println("Usage: wedding <id>")
				continue
			}
			a.setWedding(args[0])
		case "keys":
			if len(args) != 2 {
				fmt.Println("Usage: keys <album-public-key> <process-public-key>")
				continue
			}
			a.setKeys(args[0], args[1])
		case "add":
			if len(args) == 0 {
				fmt.Println("Usage: add <file...>")
				continue
			}
			a.add(ctx, args)
		case "l", "list":
			a.list(ctx)
		case "status":
			a.status(ctx)
		case "session":
			if len(args) == 0 {
				fmt.Println("Usage: session <id>")
				continue
			}
			a.session(ctx, args[0])
		case "pause":
			a.pause(args)
		case "resume":
			a.resume(ctx, args)
		case "cancel":
			a.cancel(ctx, args)
		case "retry":
			a.retry(ctx, args)
		case "clear":
			a.clear(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}

// printEvents mirrors lifecycle transitions onto the terminal. Progress
// ticks are skipped to keep the prompt usable; 'list' shows percentages.
func (a *App) printEvents(ctx context.Context) {
	events, cancel := a.bridge.Subscribe(64)
	defer cancel()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Status {
			case models.StatusCompleted:
				log.Printf("%s completed", ev.UUID)
			case models.StatusFailed:
				log.Printf("%s failed: %s", ev.UUID, ev.LastError)
			case models.StatusPaused:
				log.Printf("%s paused at %d%%", ev.UUID, ev.Progress)
			case models.StatusCancelled:
				log.Printf("%s cancelled", ev.UUID)
			}
		case <-ctx.Done():
			return
		}
	}
}
