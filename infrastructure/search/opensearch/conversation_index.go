package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"converse-backend/pkg/errors"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"go.uber.org/zap"
)

// ConversationIndex queries the conversation search index. Documents are
// indexed out of band (one per conversation, carrying the member ids plus the
// searchable member and conversation fields); this adapter only reads.
type ConversationIndex struct {
	client *opensearch.Client
	index  string
	logger *zap.Logger
}

// NewConversationIndex creates a search client against the given endpoint.
func NewConversationIndex(endpoint, index string, logger *zap.Logger) (*ConversationIndex, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{endpoint},
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to create search client").WithCause(err)
	}

	return &ConversationIndex{
		client: client,
		index:  index,
		logger: logger,
	}, nil
}

type searchHit struct {
	Source struct {
		ConversationID string `json:"conversationId"`
	} `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

// SearchConversationIDs returns the ids of the user's conversations whose
// name or member details (name, email, phone, username) match the term.
// Results are restricted to conversations the user is a member of.
func (s *ConversationIndex) SearchConversationIDs(ctx context.Context, userID, searchTerm string, limit int) ([]string, error) {
	query := map[string]any{
		"size":    limit,
		"_source": []string{"conversationId"},
		"query": map[string]any{
			"bool": map[string]any{
				"filter": map[string]any{
					"term": map[string]any{"memberIds": userID},
				},
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  searchTerm,
						"type":   "phrase_prefix",
						"fields": []string{"name", "members.name", "members.email", "members.phone", "members.username"},
					},
				},
			},
		},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, errors.NewInternalError("failed to marshal search query").WithCause(err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		s.logger.Error("conversation search request failed",
			zap.String("userId", userID),
			zap.Error(err))
		return nil, errors.NewExternalError("search", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		s.logger.Error("conversation search returned error status",
			zap.String("userId", userID),
			zap.String("status", res.Status()))
		return nil, errors.NewExternalError("search", fmt.Errorf("unexpected status %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewInternalError("failed to decode search response").WithCause(err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		if hit.Source.ConversationID != "" {
			ids = append(ids, hit.Source.ConversationID)
		}
	}

	s.logger.Debug("conversation search completed",
		zap.String("userId", userID),
		zap.Int("matches", len(ids)))

	return ids, nil
}
