package web

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lineup/internal/shared"
)

// AudioHosts are the preview hosts the audio proxy will fetch from.
var AudioHosts = []string{
	"p.scdn.co",
	"audio-ak-spotify-com.akamaized.net",
	"audio4-ak-spotify-com.akamaized.net",
	"preview.spotify.com",
	"scdn.co",
}

// relayed response headers
var audioHeaders = []string{"Content-Type", "Content-Length", "Content-Range", "Accept-Ranges"}

// AudioProxy streams preview audio from allow-listed hosts so browsers can play it cross-origin.
type AudioProxy struct {
	client *http.Client
	logger *log.Logger
}

// NewAudioProxy creates an AudioProxy; a nil client uses [http.DefaultClient].
func NewAudioProxy(client *http.Client, logger *log.Logger) *AudioProxy {
	if client == nil {
		client = http.DefaultClient
	}
	return &AudioProxy{client: client, logger: logger}
}

func (p *AudioProxy) Routes() []string { return []string{"GET /audio-proxy"} }

func (p *AudioProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target, err := audioURL(r.URL.Query().Get("url"))
	if err != nil {
		respondJSON(w, StatusFor(err), errorBody{Error: err.Error()})
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("audio fetch failed", "host", target.Host, "error", err)
		respondJSON(w, http.StatusBadGateway, errorBody{Error: "failed to fetch audio"})
		return
	}
	defer resp.Body.Close()

	for _, h := range audioHeaders {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		p.logger.Debug("audio stream interrupted", "host", target.Host, "error", err)
	}
}

// audioURL parses raw and checks it against [AudioHosts].
func audioURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, fmt.Errorf("%w: url must be an absolute http(s) URL", shared.ErrInvalidArgument)
	}
	if !allowedAudioHost(u.Hostname()) {
		return nil, fmt.Errorf("%w: host %q is not an audio preview host", shared.ErrInvalidArgument, u.Hostname())
	}
	return u, nil
}

func allowedAudioHost(host string) bool {
	host = strings.ToLower(host)
	for _, allowed := range AudioHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
