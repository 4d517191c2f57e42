package ethereum

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credchain/internal/chain"
)

func TestAnchorABIDeclaresContractSurface(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(anchorABI))
	require.NoError(t, err)

	for _, method := range []string{"issueCertificate", "getCertificate", "setIssuer"} {
		_, ok := parsed.Methods[method]
		assert.True(t, ok, "missing method %s", method)
	}
	assert.Len(t, parsed.Methods["getCertificate"].Outputs, 3)
	_, ok := parsed.Events["CertificateIssued"]
	assert.True(t, ok)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   chain.ErrorKind
		reason string
	}{
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), chain.KindUnavailable, ""},
		{"transport", errors.New("dial tcp 127.0.0.1:8545: connect: connection refused"), chain.KindUnavailable, ""},
		{"duplicate", errors.New("execution reverted: Certificate already exists"), chain.KindRejected, chain.ReasonDuplicateID},
		{"not issuer", errors.New("execution reverted: Not an authorized issuer"), chain.KindRejected, chain.ReasonIssuerUnauthorized},
		{"not owner", errors.New("execution reverted: Ownable: caller is not the owner"), chain.KindRejected, chain.ReasonNotOwner},
		{"bare revert", errors.New("execution reverted"), chain.KindRejected, chain.ReasonReverted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("issue", tt.err)
			kind, ok := chain.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.reason, chain.ReasonOf(err))
		})
	}
}

func TestDialRejectsBadConfig(t *testing.T) {
	_, err := Dial(context.Background(), Config{PrivateKey: "zz", ContractAddress: "0x0"}, nil)
	require.Error(t, err)

	key := strings.Repeat("11", 32)
	_, err = Dial(context.Background(), Config{PrivateKey: key, ContractAddress: "nope"}, nil)
	require.ErrorContains(t, err, "invalid contract address")
}
