package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-wallet-accounts/pkg/helpers"
)

func viewCacheKey(username string) string {
	return "account:view:" + username
}

// cachedView is the Redis entry for one username. Rev is the commit revision
// that wrote it, 0 for fills from a read. A nil View marks a username that
// was renamed away.
type cachedView struct {
	Rev  int64        `json:"rev"`
	View *AccountView `json:"view,omitempty"`
}

// Get returns the sanitized view of one account, served from Redis when cached.
func (s *AccountService) Get(ctx context.Context, username string) (*AccountView, error) {
	if username == "" {
		return nil, validationError("Username is required", nil)
	}
	fill := s.Redis != nil
	if s.Redis != nil {
		var cached cachedView
		ok, err := helpers.RedisGetJSON(ctx, s.Redis, viewCacheKey(username), &cached)
		if err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("username", username).Warn("account cache read failed")
		}
		if ok && cached.View != nil {
			return cached.View, nil
		}
		fill = !ok
	}

	c, err := s.Repo.Load(ctx)
	if err != nil {
		return nil, asServiceError(err, ErrPersistence, "Failed to load accounts")
	}
	idx, ok := c.FindByUsername(username)
	if !ok {
		return nil, newError(ErrNotFound, "Account not found")
	}
	view := NewAccountView(c.At(idx))

	// NX: a snapshot read without the store lock must not replace an entry
	// written by a commit.
	if fill {
		if _, err := helpers.RedisSetNXJSON(ctx, s.Redis, viewCacheKey(username), cachedView{View: &view}, s.CacheTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("username", username).Warn("account cache write failed")
		}
	}
	return &view, nil
}

// afterCommit writes the committed view through to the cache, marks a
// renamed-away username, and re-indexes the view. Entries only move forward
// in revision, so a slower after-commit or a stale fill never wins.
func (s *AccountService) afterCommit(ctx context.Context, previousUsername string, v AccountView, rev int64) {
	if s.Redis != nil {
		view := v
		entries := map[string]cachedView{viewCacheKey(v.Username): {Rev: rev, View: &view}}
		if previousUsername != "" && previousUsername != v.Username {
			entries[viewCacheKey(previousUsername)] = cachedView{Rev: rev}
		}
		for k, e := range entries {
			if _, err := helpers.RedisSetJSONIfNewer(ctx, s.Redis, k, rev, e, s.CacheTTL); err != nil && s.Logger != nil {
				s.Logger.WithError(err).WithField("key", k).Warn("account cache write-through failed")
			}
		}
	}
	_ = s.indexAccount(ctx, v)
}

// indexAccount stores the view in Elasticsearch keyed by wallet address,
// which never changes across renames.
func (s *AccountService) indexAccount(ctx context.Context, v AccountView) error {
	if s.ES == nil || s.ESAccountsIndex == "" {
		return nil
	}
	doc := map[string]any{
		"username":       v.Username,
		"email":          v.Email,
		"wallet_address": v.WalletAddress,
		"indexed_at":     time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESAccountsIndex, DocumentID: v.WalletAddress, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("username", v.Username).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("username", v.Username).Warn("es index response error")
	}
	return nil
}

// SearchHit is one Elasticsearch match.
type SearchHit struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	WalletAddress string `json:"walletAddress"`
}

// Search runs a multi_match query over username and email.
func (s *AccountService) Search(ctx context.Context, q string, size int) ([]SearchHit, error) {
	if s.ES == nil || s.ESAccountsIndex == "" {
		return []SearchHit{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^2", "email"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESAccountsIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, &Error{Kind: ErrInternal, Message: "Search failed", Err: err}
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, &Error{Kind: ErrInternal, Message: "Search failed", Err: fmt.Errorf("elasticsearch: %s", res.Status())}
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source struct {
					Username      string `json:"username"`
					Email         string `json:"email"`
					WalletAddress string `json:"wallet_address"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, &Error{Kind: ErrInternal, Message: "Search failed", Err: err}
	}

	out := make([]SearchHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, SearchHit{Username: h.Source.Username, Email: h.Source.Email, WalletAddress: h.Source.WalletAddress})
	}
	return out, nil
}
