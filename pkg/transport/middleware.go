package transport

// Middleware decorates a Translator. It sees each dispatch before the
// session starts and may swap the listener to observe the notifications
// that follow.
type Middleware func(Translator) Translator

// Chain folds middlewares into one. The first argument ends up outermost,
// so Chain(a, b)(t) dispatches through a, then b, then t.
func Chain(middlewares ...Middleware) Middleware {
	return func(t Translator) Translator {
		for i := len(middlewares) - 1; i >= 0; i-- {
			t = middlewares[i](t)
		}
		return t
	}
}
