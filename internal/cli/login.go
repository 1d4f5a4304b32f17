package cli

import (
	"context"
	"log"

	"github.com/dmitrijs2005/photoqueue/internal/common"
	"github.com/dmitrijs2005/photoqueue/internal/models"
)

// Login installs an API token pair pasted by the user. Tokens come from the
// wedding web app; the CLI never sees a password.
func (a *App) Login(ctx context.Context) {

	access, err := GetSecret("Enter access token", a.out)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	defer common.WipeByteArray(access)

	refresh, err := GetSecret("Enter refresh token", a.out)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	defer common.WipeByteArray(refresh)

	a.tokens.SetTokens(string(access), string(refresh))

	if err := a.api.Ping(ctx); err != nil {
		log.Printf("Server unavailable: %s", err.Error())
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
	a.loggedIn = true
	log.Printf("Logged in")

	// pick up whatever an earlier run left behind
	if err := a.orch.RecoverInterrupted(ctx); err != nil {
		log.Printf("recovering pending uploads: %s", err.Error())
	}
}

// Logout drops the token pair and wipes the local queue, encrypted payloads
// included.
func (a *App) Logout(ctx context.Context) {
	a.tokens.SetTokens("", "")
	a.loggedIn = false
	a.weddingID = ""
	a.keys = models.WeddingKeys{}
	a.setMode(ModeDisabled)

	if err := a.repo.Clear(ctx); err != nil {
		log.Printf("clearing local queue: %s", err.Error())
		return
	}
	log.Printf("Logged out, local queue cleared")
}

func (a *App) setWedding(id string) {
	a.weddingID = id
	a.keys = models.WeddingKeys{}
	log.Printf("Active wedding: %s", id)
}

func (a *App) setKeys(albumPub, processPub string) {
	if a.weddingID == "" {
		log.Printf("Select a wedding first: wedding <id>")
		return
	}
	a.keys = models.WeddingKeys{AlbumPublicKey: albumPub, ProcessPublicKey: processPub}
	log.Printf("Encryption keys set, new uploads will be encrypted")
}
