package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/dmitrijs2005/photoqueue/internal/progress"
)

func (a *App) list(ctx context.Context) {
	if a.weddingID == "" {
		log.Printf("Select a wedding first: wedding <id>")
		return
	}
	snap, err := a.bridge.Snapshot(ctx, a.weddingID)
	if err != nil {
		log.Println(err.Error())
		return
	}

	for _, rec := range snap.Records {
		line := fmt.Sprintf("%s  %-10s %3d%%  %s", rec.UUID, rec.Status, rec.Progress, rec.OriginalFilename)
		if rec.LastError != "" {
			line += "  (" + rec.LastError + ")"
		}
		fmt.Println(line)
	}
	fmt.Printf("%d photo(s), %d%% done\n", snap.Summary.Total, snap.Summary.Percent)
}

// session shows one submission batch: its records and a summary line.
func (a *App) session(ctx context.Context, id string) {
	recs, err := a.repo.QueryBySession(ctx, id)
	if err != nil {
		log.Println(err.Error())
		return
	}
	if len(recs) == 0 {
		fmt.Println("no such session")
		return
	}

	for _, rec := range recs {
		fmt.Printf("%s  %-10s %3d%%  %s\n", rec.UUID, rec.Status, rec.Progress, rec.OriginalFilename)
	}
	s := progress.Summarize(recs)
	fmt.Printf("session %s: %d photo(s), %d completed, %d failed (%d%% done)\n",
		id, s.Total, s.Completed, s.Failed, s.Percent)
}

func (a *App) status(ctx context.Context) {
	if a.weddingID == "" {
		log.Printf("Select a wedding first: wedding <id>")
		return
	}
	snap, err := a.bridge.Snapshot(ctx, a.weddingID)
	if err != nil {
		log.Println(err.Error())
		return
	}

	s := snap.Summary
	fmt.Printf("total %d: queued %d, uploading %d, paused %d, failed %d, completed %d, cancelled %d (%d%% done)\n",
		s.Total, s.Queued, s.Uploading, s.Paused, s.Failed, s.Completed, s.Cancelled, s.Percent)
	if !s.Active() {
		fmt.Println("nothing in flight")
	}
}
