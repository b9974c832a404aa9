package gin

import (
	"context"
	"net"
)

// Serve exposes serve so tests can bind an ephemeral port.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	return s.serve(ctx, ln)
}
