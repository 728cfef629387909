package middleware

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	FlashDefault     = "default"
	FlashDestructive = "destructive"
)

// Flash is a one-shot notification shown on the next rendered page.
type Flash struct {
	Title       string
	Description string
	Variant     string
}

func init() {
	gob.Register(Flash{})
}

func AddFlash(w http.ResponseWriter, r *http.Request, store sessions.Store, f Flash) {
	if f.Variant == "" {
		f.Variant = FlashDefault
	}
	session, _ := store.Get(r, SessionName)
	session.AddFlash(f)
	_ = session.Save(r, w)
}

// Success and Failure cover the two notification styles pages use.
func Success(w http.ResponseWriter, r *http.Request, store sessions.Store, title, description string) {
	AddFlash(w, r, store, Flash{Title: title, Description: description})
}

func Failure(w http.ResponseWriter, r *http.Request, store sessions.Store, title string, err error) {
	AddFlash(w, r, store, Flash{Title: title, Description: err.Error(), Variant: FlashDestructive})
}

// PopFlashes returns and clears pending flashes. Call before writing the body.
func PopFlashes(w http.ResponseWriter, r *http.Request, store sessions.Store) []Flash {
	session, err := store.Get(r, SessionName)
	if err != nil {
		return nil
	}
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = session.Save(r, w)

	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}
