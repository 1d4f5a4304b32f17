package cli

import (
	"context"
	"fmt"
	"log"
)

func (a *App) pause(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: pause <uuid>")
		return
	}
	if err := a.bridge.Pause(args[0]); err != nil {
		log.Println(err.Error())
	}
}

func (a *App) resume(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: resume <uuid>")
		return
	}
	if err := a.bridge.Resume(ctx, args[0]); err != nil {
		log.Println(err.Error())
	}
}

func (a *App) cancel(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: cancel <uuid>")
		return
	}
	if err := a.bridge.Cancel(ctx, args[0]); err != nil {
		log.Println(err.Error())
	}
}

func (a *App) retry(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: retry <uuid>")
		return
	}
	if err := a.bridge.Retry(ctx, args[0]); err != nil {
		log.Println(err.Error())
	}
}

func (a *App) clear(ctx context.Context) {
	if a.weddingID == "" {
		log.Printf("Select a wedding first: wedding <id>")
		return
	}
	if err := a.bridge.ClearAll(ctx, a.weddingID); err != nil {
		log.Println(err.Error())
		return
	}
	log.Printf("queue cleared for wedding %s", a.weddingID)
}
