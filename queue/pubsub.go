package queue

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"
	"github.com/amand4priscil4/DetectaBB-Backend-3/config"
)

// PubSubPublisher mirrors analysis tasks onto a Pub/Sub topic so a managed
// worker pool (push subscription -> /pubsub) can pick them up instead of the
// in-process consumer. Enabled by setting ANALYSIS_PUBSUB_TOPIC.
type PubSubPublisher struct {
	Topic string
}

func (p *PubSubPublisher) Publish(ctx context.Context, task AnalysisTask) error {
	client, err := config.GetPubSubClient(ctx)
	if err != nil {
		return err
	}

	topic, err := config.CreateTopicIfNotExists(client, p.Topic)
	if err != nil {
		return err
	}

	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	res := topic.Publish(ctx, &pubsub.Message{Data: data})
	_, err = res.Get(ctx)
	return err
}

// PushEnvelope is the JSON body Google delivers to push-subscription endpoints.
// Data unmarshals from base64 automatically.
type PushEnvelope struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"id"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}
