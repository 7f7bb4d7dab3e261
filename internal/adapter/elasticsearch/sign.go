package elasticsearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/jonboulle/clockwork"
)

// signingService is the SigV4 service name of managed search domains.
const signingService = "es"

// SigV4Signer signs bulk requests with AWS credentials.
type SigV4Signer struct {
	credentials aws.CredentialsProvider
	region      string
	signer      *v4.Signer
	clock       clockwork.Clock
}

func NewSigV4Signer(credentials aws.CredentialsProvider, region string) *SigV4Signer {
	return &SigV4Signer{
		credentials: credentials,
		region:      region,
		signer:      v4.NewSigner(),
		clock:       clockwork.NewRealClock(),
	}
}

// LoadSigV4Signer resolves credentials from the default chain: environment,
// shared config, then the Lambda or container role.
func LoadSigV4Signer(ctx context.Context, region string) (*SigV4Signer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSigV4Signer(cfg.Credentials, cfg.Region), nil
}

func (s *SigV4Signer) Sign(ctx context.Context, req *http.Request, body []byte) error {
	creds, err := s.credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("retrieve credentials: %w", err)
	}
	sum := sha256.Sum256(body)
	return s.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), signingService, s.region, s.clock.Now())
}
