package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"credchain/internal/chain"
	"credchain/internal/fingerprint"
)

const (
	ownerAddr = "0x1111111111111111111111111111111111111111"
	otherAddr = "0x2222222222222222222222222222222222222222"
)

type LedgerSuite struct {
	suite.Suite
	ledger *Ledger
	now    time.Time
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	l, err := Open(Config{Owner: ownerAddr, Network: "test"}, WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)
	s.ledger = l
}

func (s *LedgerSuite) TearDownTest() {
	s.Require().NoError(s.ledger.Close())
}

func (s *LedgerSuite) TestIssueThenRead() {
	ctx := context.Background()
	fp := fingerprint.Bind([]byte("doc"), []byte(`{}`))

	receipt, err := s.ledger.Issue(ctx, "CERT-1", fp)
	s.Require().NoError(err)
	s.Equal(uint64(1), receipt.BlockNumber)
	s.Len(receipt.Reference, 66)

	anchor, err := s.ledger.Read(ctx, "CERT-1")
	s.Require().NoError(err)
	s.Equal(fp, anchor.Fingerprint)
	s.Equal(ownerAddr, anchor.Issuer)
	s.Equal(s.now, anchor.IssuedAt)
	s.Equal("test", s.ledger.Network())
}

func (s *LedgerSuite) TestDuplicateIDRejected() {
	ctx := context.Background()
	first := fingerprint.Bind([]byte("first"), nil)
	second := fingerprint.Bind([]byte("second"), nil)

	_, err := s.ledger.Issue(ctx, "CERT-1", first)
	s.Require().NoError(err)

	_, err = s.ledger.Issue(ctx, "CERT-1", second)
	s.Require().Error(err)
	s.True(chain.IsRejected(err))
	s.Equal(chain.ReasonDuplicateID, chain.ReasonOf(err))

	anchor, err := s.ledger.Read(ctx, "CERT-1")
	s.Require().NoError(err)
	s.Equal(first, anchor.Fingerprint, "original anchor is unchanged")
}

func (s *LedgerSuite) TestReadUnknownIsNotFound() {
	_, err := s.ledger.Read(context.Background(), "missing")
	s.True(chain.IsNotFound(err))
}

func (s *LedgerSuite) TestInvalidArgumentsRejected() {
	ctx := context.Background()

	_, err := s.ledger.Issue(ctx, "", fingerprint.Bind([]byte("x"), nil))
	s.True(chain.IsRejected(err))

	_, err = s.ledger.Issue(ctx, "CERT-1", fingerprint.FromBytes32([32]byte{}))
	s.True(chain.IsRejected(err))

	_, err = s.ledger.SetIssuerAuthorization(ctx, "not-an-address", true)
	s.True(chain.IsRejected(err))
}

func (s *LedgerSuite) TestCancelledContextIsUnavailable() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ledger.Issue(ctx, "CERT-1", fingerprint.Bind([]byte("x"), nil))
	s.True(chain.IsUnavailable(err))
	s.True(chain.IsRetryable(err))
}

func (s *LedgerSuite) TestSetIssuerAuthorization() {
	ctx := context.Background()

	receipt, err := s.ledger.SetIssuerAuthorization(ctx, "0x2222222222222222222222222222222222222222", true)
	s.Require().NoError(err)
	s.Equal(uint64(1), receipt.BlockNumber)

	allowed, err := s.ledger.IsIssuer(otherAddr)
	s.Require().NoError(err)
	s.True(allowed)

	_, err = s.ledger.SetIssuerAuthorization(ctx, otherAddr, false)
	s.Require().NoError(err)

	allowed, err = s.ledger.IsIssuer(otherAddr)
	s.Require().NoError(err)
	s.False(allowed)

	height, err := s.ledger.Height()
	s.Require().NoError(err)
	s.Equal(uint64(2), height)
}

func (s *LedgerSuite) TestConcurrentIssueSameIDHasOneWinner() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successes, rejections atomic.Int32
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fp := fingerprint.Bind([]byte{byte(i)}, nil)
			_, err := s.ledger.Issue(ctx, "CERT-RACE", fp)
			switch {
			case err == nil:
				successes.Add(1)
			case chain.IsRejected(err):
				rejections.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), rejections.Load())
}

func TestUnauthorizedSender(t *testing.T) {
	l, err := Open(Config{Owner: ownerAddr, Sender: otherAddr})
	require.NoError(t, err)
	defer l.Close()

	ctx := context.Background()
	_, err = l.Issue(ctx, "CERT-1", fingerprint.Bind([]byte("x"), nil))
	require.True(t, chain.IsRejected(err))
	require.Equal(t, chain.ReasonIssuerUnauthorized, chain.ReasonOf(err))

	_, err = l.SetIssuerAuthorization(ctx, otherAddr, true)
	require.True(t, chain.IsRejected(err))
	require.Equal(t, chain.ReasonNotOwner, chain.ReasonOf(err))
}

func TestLedgerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	fp := fingerprint.Bind([]byte("persisted"), nil)

	l, err := Open(Config{Dir: dir, Owner: ownerAddr})
	require.NoError(t, err)
	_, err = l.Issue(ctx, "CERT-1", fp)
	require.NoError(t, err)
	_, err = l.SetIssuerAuthorization(ctx, ownerAddr, false)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	reopened, err := Open(Config{Dir: dir, Owner: ownerAddr})
	require.NoError(t, err)
	defer reopened.Close()

	anchor, err := reopened.Read(ctx, "CERT-1")
	require.NoError(t, err)
	require.Equal(t, fp, anchor.Fingerprint)

	allowed, err := reopened.IsIssuer(ownerAddr)
	require.NoError(t, err)
	require.False(t, allowed, "genesis allowlisting only runs on an empty ledger")

	height, err := reopened.Height()
	require.NoError(t, err)
	require.Equal(t, uint64(2), height)
}

func TestOpenRejectsBadOwner(t *testing.T) {
	_, err := Open(Config{Owner: "owner"})
	require.Error(t, err)
}
