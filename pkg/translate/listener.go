package translate

import "github.com/rhuss/simple-translate/pkg/api"

// Listener receives the notifications of one translation. Calls for a single
// translation are made sequentially from the session goroutine, so an
// implementation only needs locking if it shares state across translations.
//
// Implementations should return quickly: the session does not read further
// stream data until a notification returns.
type Listener interface {
	// OnToken delivers the next text fragment. Fragments concatenate, in
	// order, to the final translated text.
	OnToken(delta string)

	// OnComplete delivers the final result. It is the last call.
	OnComplete(resp api.TranslationResponse)

	// OnError delivers the terminal error message. It is the last call.
	OnError(message string)
}

// ListenerFuncs adapts plain functions to the Listener interface. Nil
// fields are ignored.
type ListenerFuncs struct {
	Token    func(delta string)
	Complete func(resp api.TranslationResponse)
	Error    func(message string)
}

// Ensure ListenerFuncs implements Listener at compile time.
var _ Listener = ListenerFuncs{}

// OnToken calls f.Token if set.
func (f ListenerFuncs) OnToken(delta string) {
	if f.Token != nil {
		f.Token(delta)
	}
}

// OnComplete calls f.Complete if set.
func (f ListenerFuncs) OnComplete(resp api.TranslationResponse) {
	if f.Complete != nil {
		f.Complete(resp)
	}
}

// OnError calls f.Error if set.
func (f ListenerFuncs) OnError(message string) {
	if f.Error != nil {
		f.Error(message)
	}
}
