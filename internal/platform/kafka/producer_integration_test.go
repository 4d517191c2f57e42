//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"credchain/internal/platform/kafka"
	audit "credchain/pkg/platform/audit"
	"credchain/pkg/platform/audit/outbox"
	auditpostgres "credchain/pkg/platform/audit/store/postgres"
	"credchain/pkg/testutil/containers"
)

type RelaySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	brokers  []string
}

func TestRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.brokers = mgr.GetRedpanda(s.T()).Brokers
}

func (s *RelaySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_outbox"))
}

func (s *RelaySuite) TestOutboxEntriesReachTopic() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "credchain.audit." + uuid.NewString()
	producer, err := kafka.NewProducer(s.brokers, topic)
	s.Require().NoError(err)
	defer producer.Close()
	s.Require().NoError(producer.Ping(ctx))
	s.Require().NoError(producer.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(producer.EnsureTopic(ctx, 1, 1), "existing topic is not an error")

	store := auditpostgres.New(s.postgres.DB)
	s.Require().NoError(store.Append(ctx, audit.Event{
		Action:  string(audit.EventCertificateIssued),
		ActorID: "officer-1",
		Subject: "c0ffee",
	}))

	relay := outbox.NewRelay(store, producer)
	n, err := relay.RelayOnce(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	backlog, err := store.CountUnpublished(ctx)
	s.Require().NoError(err)
	s.Zero(backlog)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().NoError(fetches.Err())
	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal("c0ffee", string(records[0].Key))
	s.Contains(string(records[0].Value), "certificate_issued")
}
