package asknews

import (
	"encoding/json"
	"testing"
)

func TestValidateArticlePayloadAccepts(t *testing.T) {
	t.Parallel()

	payloads := []string{
		`{"article_id": "a-1", "title": "headline", "sentiment": 0.4, "article_url": "https://x.example/1", "pub_date": "2025-06-01T08:00:00Z"}`,
		`{"article_id": 42}`,
		`{"article_id": "a-2", "extra_field": {"nested": true}}`,
	}
	for _, payload := range payloads {
		if _, err := validateArticlePayload(json.RawMessage(payload)); err != nil {
			t.Fatalf("payload rejected: %v\n%s", err, payload)
		}
	}
}

func TestValidateArticlePayloadRejects(t *testing.T) {
	t.Parallel()

	payloads := []string{
		`{"article_id": "a-1", "sentiment": "not a number"}`,
		`{"article_id": "a-1", "title": 7}`,
		`{"article_id": "a-1", "article_url": false}`,
		`"just a string"`,
		``,
		`{"a": 1} {"b": 2}`,
	}
	for _, payload := range payloads {
		if _, err := validateArticlePayload(json.RawMessage(payload)); err == nil {
			t.Fatalf("payload accepted, want rejection:\n%s", payload)
		}
	}
}
