package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

// MTLSServerOption connects to a SPIRE agent over socketPath and returns a
// grpc.ServerOption authenticating peers by SPIFFE SVID, securing the
// internal gRPC surface between DS-Search and its callers (the NL
// rendering collaborator) when FederationConfig.TrustDomain is set.
// Grounded on the teacher's identity.SPIFFEVerifier (workloadapi.NewX509Source
// + spiffetls/tlsconfig idiom), adapted from client-side verification to a
// server credential.
func MTLSServerOption(socketPath string) (grpc.ServerOption, func() error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	source, err := workloadapi.NewX509Source(ctx, workloadapi.WithClientOptions(workloadapi.WithAddr(socketPath)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to SPIRE: %w", err)
	}

	tlsConf := tlsconfig.MTLSServerConfig(source, source, tlsconfig.AuthorizeAny())
	return grpc.Creds(credentials.NewTLS(tlsConf)), source.Close, nil
}
