//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "intake/pkg/platform/audit"
	"intake/pkg/platform/audit/store/kafka"
	"intake/pkg/testutil/containers"
)

const topic = "intake.audit.test"

type SinkSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	sink     *kafka.Sink
}

func TestSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SinkSuite))
}

func (s *SinkSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
	s.Require().NoError(s.redpanda.CreateTopic(context.Background(), topic))

	sink, err := kafka.New(s.redpanda.Brokers, topic)
	s.Require().NoError(err)
	s.sink = sink
}

func (s *SinkSuite) TearDownSuite() {
	if s.sink != nil {
		s.sink.Close()
	}
}

func (s *SinkSuite) TestAppendProducesKeyedEvent() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Require().NoError(s.sink.Ping(ctx))

	event := audit.Event{
		ID:         "e1",
		Timestamp:  time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
		Action:     audit.ActionFormSubmitted,
		ResponseID: "r1",
		TemplateID: "household-reg",
		Subject:    "Person/p1",
		Records:    2,
	}
	s.Require().NoError(s.sink.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().NotEmpty(records)

	s.Equal("r1", string(records[0].Key))
	var got audit.Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(event.Action, got.Action)
	s.Equal(event.Subject, got.Subject)
	s.Equal(2, got.Records)
	s.True(event.Timestamp.Equal(got.Timestamp))
}

func (s *SinkSuite) TestNewRejectsMissingSettings() {
	_, err := kafka.New(nil, topic)
	s.Error(err)
	_, err = kafka.New(s.redpanda.Brokers, "")
	s.Error(err)
}
