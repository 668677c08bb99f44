package translate

import (
	"context"
	"log/slog"
	"time"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/storage"
)

// historySaveTimeout bounds how long a completion waits on the history store.
const historySaveTimeout = 5 * time.Second

// recordingListener saves completed translations before passing the
// completion on. Tokens and errors pass through untouched.
type recordingListener struct {
	next    Listener
	store   storage.HistoryStore
	ctx     context.Context
	request api.TranslationRequest
	model   string
}

func (r *recordingListener) OnToken(delta string) {
	r.next.OnToken(delta)
}

func (r *recordingListener) OnComplete(resp api.TranslationResponse) {
	rec := &storage.Record{
		ID:             api.NewTranslationID(),
		SourceLanguage: resp.SourceLanguage,
		TargetLanguage: resp.TargetLanguage,
		SourceText:     r.request.Text,
		TranslatedText: resp.TranslatedText,
		Model:          r.model,
		CreatedAt:      time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.ctx, historySaveTimeout)
	defer cancel()
	if err := r.store.Save(ctx, rec); err != nil {
		// History is best effort.
		slog.Warn("saving translation history failed", "id", rec.ID, "error", err)
	}

	r.next.OnComplete(resp)
}

func (r *recordingListener) OnError(message string) {
	r.next.OnError(message)
}
