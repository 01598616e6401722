package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var (
	ErrInvalidUri         = errors.New("invalid metadata uri")
	ErrMetadataNotReached = errors.New("metadata not reachable")
)

// Metadata is the off-chain document a metadata uri points at. The settlement
// core never reads this; only the API layer resolves it to enrich listings.
type Metadata struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Image       string                 `json:"image"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
}

type Service interface {
	GetMetadata(uri string) (Metadata, error)
}

type service struct {
	client    *retryablehttp.Client
	cache     *cache.Cache
	ipfsHosts []string
}

func NewMetadataService(client *retryablehttp.Client, ipfsHosts []string) Service {
	return service{client, cache.New(10*time.Minute, 30*time.Minute), ipfsHosts}
}

func (s service) GetMetadata(uri string) (Metadata, error) {
	if cached, found := s.cache.Get(uri); found {
		return cached.(Metadata), nil
	}

	md, err := s.fetch(uri)
	if err != nil {
		return Metadata{}, err
	}

	s.cache.Set(uri, md, cache.DefaultExpiration)

	return md, nil
}

func (s service) fetch(uri string) (Metadata, error) {
	candidates := s.candidates(uri)
	if len(candidates) == 0 {
		return Metadata{}, ErrInvalidUri
	}

	for _, candidate := range candidates {
		md, err := s.fetchOne(candidate)
		if err != nil {
			zap.L().With(zap.String("uri", candidate), zap.Error(err)).Debug("Metadata: Fetch failed")
			continue
		}

		return md, nil
	}

	return Metadata{}, ErrMetadataNotReached
}

func (s service) candidates(uri string) []string {
	if !IsIpfs(uri) {
		if !IsUrl(uri) {
			return nil
		}
		return []string{uri}
	}

	candidates := make([]string, 0, len(s.ipfsHosts))
	for _, host := range s.ipfsHosts {
		candidates = append(candidates, gatewayUri(uri, host))
	}

	return candidates
}

func (s service) fetchOne(uri string) (Metadata, error) {
	resp, err := s.client.Get(uri)
	if err != nil {
		return Metadata{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return Metadata{}, errors.New(resp.Status)
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return Metadata{}, err
	}

	var md Metadata
	if err := json.Unmarshal(buf.Bytes(), &md); err != nil {
		return Metadata{}, err
	}

	return md, nil
}
