package cli

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/photoqueue/internal/uploader"
)

// add queues the given files for upload to the active wedding.
func (a *App) add(ctx context.Context, paths []string) {
	if a.weddingID == "" {
		log.Printf("Select a wedding first: wedding <id>")
		return
	}

	var selections []uploader.Selection
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("skipping %s: %s", path, err.Error())
			continue
		}
		name := filepath.Base(path)
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		selections = append(selections, uploader.Selection{
			Filename:  name,
			Extension: ext,
			Content:   content,
		})
	}
	if len(selections) == 0 {
		log.Printf("nothing to add")
		return
	}

	session, err := a.bridge.SubmitBatch(ctx, a.weddingID, selections, a.keys)
	if err != nil {
		log.Println(err.Error())
		return
	}
	// photos that could not be queued show up as failed in the listing
	log.Printf("submitted %d photo(s), session %s", len(selections), session)
}
