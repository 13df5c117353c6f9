package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	pb "go.linemq.dev/core/broker/protocol"
)

// TopicsPath is the HTTP path of broker topic status.
const TopicsPath = "/debug/topics"

// ListTopics fetches status snapshots of the named topics, or of all topics
// if none are named, from the broker HTTP |endpoint| (as "http://host:port").
// If |hc| is nil, http.DefaultClient is used.
func ListTopics(ctx context.Context, hc *http.Client, endpoint string, topics ...string) ([]pb.TopicStatus, error) {
	if hc == nil {
		hc = http.DefaultClient
	}

	var u, err = url.Parse(strings.TrimSuffix(endpoint, "/") + TopicsPath)
	if err != nil {
		return nil, errors.WithMessage(err, "parsing endpoint")
	} else if len(topics) != 0 {
		u.RawQuery = url.Values{"topic": topics}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, errors.WithMessage(err, "fetching topics")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && len(topics) != 0 {
		return nil, pb.ErrTopicNotFound
	} else if resp.StatusCode != http.StatusOK {
		var body, _ = io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errors.Errorf("fetching topics: %s (%s)", resp.Status, strings.TrimSpace(string(body)))
	}

	var out []pb.TopicStatus
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.WithMessage(err, "decoding topics")
	}
	for _, ts := range out {
		if err = ts.Validate(); err != nil {
			return nil, errors.WithMessage(err, "invalid topic status")
		}
	}
	return out, nil
}
