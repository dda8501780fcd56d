package chain

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeSignature delivers one notification once the signature
	// reaches the client's commitment, then closes the channel.
	SubscribeSignature(ctx context.Context, sig solana.Signature) (<-chan SignatureNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureNotification reports the outcome of a submitted transaction.
type SignatureNotification struct {
	Signature solana.Signature
	Slot      int64
	Err       interface{}
}

// Failed reports whether the transaction landed with an execution error.
func (n SignatureNotification) Failed() bool {
	return n.Err != nil
}
