package protocol

import "context"

// Store is the persistence interface for the protocol catalog.
// List returns protocols in catalog order.
type Store interface {
	Get(ctx context.Context, id string) (*Protocol, bool, error)
	List(ctx context.Context) ([]*Protocol, error)
	Put(ctx context.Context, p *Protocol) error
	Replace(ctx context.Context, ps []*Protocol) error
}
