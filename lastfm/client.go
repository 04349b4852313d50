// Package lastfm is a minimal client for the last.fm artist metadata API.
// it exists purely to enrich stored artists with bios, images and tags; the
// provider is a black box and nothing in the ingestion path depends on it.
package lastfm

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

var (
	ErrLastFM        = errors.New("last.fm error")
	ErrNotConfigured = errors.New("no last.fm api key configured")
)

const BaseURL = "https://ws.audioscrobbler.com/2.0/"

// KeyFunc supplies the API key at request time, so it can live in settings
// and change without restarting.
type KeyFunc func() (string, error)

type Client struct {
	httpClient *http.Client
	baseURL    string
	key        KeyFunc
}

func NewClient(key KeyFunc) *Client {
	return NewClientCustom(http.DefaultClient, BaseURL, key)
}

func NewClientCustom(httpClient *http.Client, baseURL string, key KeyFunc) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL, key: key}
}

func (c *Client) ArtistGetInfo(artistName string) (Artist, error) {
	apiKey, err := c.key()
	if err != nil {
		return Artist{}, fmt.Errorf("get api key: %w", err)
	}

	params := url.Values{}
	params.Add("method", "artist.getInfo")
	params.Add("api_key", apiKey)
	params.Add("artist", artistName)

	resp, err := c.makeRequest(params)
	if err != nil {
		return Artist{}, fmt.Errorf("make request: %w", err)
	}
	return resp.Artist, nil
}

func (c *Client) makeRequest(params url.Values) (*LastFM, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var lastfm LastFM
	if err := xml.NewDecoder(resp.Body).Decode(&lastfm); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if lastfm.Error.Code != 0 {
		return nil, fmt.Errorf("%v: %w", lastfm.Error.Value, ErrLastFM)
	}
	return &lastfm, nil
}
