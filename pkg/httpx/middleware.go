package httpx

import "net/http"

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies mws to h so that the first middleware is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// AllowMethods rejects requests whose method is not listed with 405.
func AllowMethods(methods ...string) Middleware {
	allowed := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		allowed[m] = struct{}{}
	}
	allowHeader := ""
	for i, m := range methods {
		if i > 0 {
			allowHeader += ", "
		}
		allowHeader += m
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[r.Method]; !ok {
				w.Header().Set("Allow", allowHeader)
				WriteText(w, http.StatusMethodNotAllowed, "Method Not Allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
