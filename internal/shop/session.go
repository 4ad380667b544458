package shop

import (
	"net/http"
	"sync"
)

// Session carries the shopper's shop-server cookies (the cart lives in the
// shop's own session) across a proxied call, and collects any cookies the
// shop sets in reply so they can be relayed to the browser.
type Session struct {
	Cookies []*http.Cookie

	mu       sync.Mutex
	returned []*http.Cookie
}

// SessionFrom copies the browser's cookies from r, skipping the named ones
// (the storefront's own cookies are of no interest to the shop).
func SessionFrom(r *http.Request, skip ...string) *Session {
	s := &Session{}
	for _, c := range r.Cookies() {
		if contains(skip, c.Name) {
			continue
		}
		s.Cookies = append(s.Cookies, c)
	}
	return s
}

// Returned lists the cookies the shop set during this session's calls.
func (s *Session) Returned() []*http.Cookie {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*http.Cookie, len(s.returned))
	copy(out, s.returned)
	return out
}

// Relay writes the cookies the shop set onto the browser response.
func (s *Session) Relay(w http.ResponseWriter) {
	for _, c := range s.Returned() {
		http.SetCookie(w, c)
	}
}

func (s *Session) apply(req *http.Request) {
	if s == nil {
		return
	}
	for _, c := range s.Cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
}

func (s *Session) collect(resp *http.Response) {
	if s == nil {
		return
	}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cookies {
		s.returned = replaceCookie(s.returned, c)
	}
}

func replaceCookie(list []*http.Cookie, c *http.Cookie) []*http.Cookie {
	for i, existing := range list {
		if existing.Name == c.Name && existing.Path == c.Path {
			list[i] = c
			return list
		}
	}
	return append(list, c)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
