package syncer

import (
	"context"

	"github.com/iron-fish/chaincore/model"
	"github.com/iron-fish/chaincore/store/chainstore"
	"github.com/iron-fish/chaincore/types"
)

// MaxBlocksPerMessage bounds a single BlocksResponse.
const MaxBlocksPerMessage = 32

// MaxMessageSizeBytes is the serialized-size limit of a BlocksResponse.
// The serving side does not check it.
const MaxMessageSizeBytes = 512 * 1024 // 0.5 MB

// BlockSource distinguishes gossip arrivals from replies to our own
// requests; the insertion sequence branches on it.
type BlockSource int

const (
	SourceGossip BlockSource = iota
	SourceSyncing
)

// BlockRequest is the peer-boundary request shape: Forward asks for
// successors of Hash (served via the chain's hashToNext index); a
// non-forward request asks for the specific block identified by Hash.
type BlockRequest struct {
	Hash     types.Hash256
	Forward  bool
	FromPeer string
}

// BlocksResponse is the peer-boundary reply: at most MaxBlocksPerMessage
// blocks. Its serialized size is not checked against MaxMessageSizeBytes.
type BlocksResponse struct {
	Blocks []*model.Block
}

// Peer is the minimal capability the syncer needs from a network
// connection: issuing one request and getting back one response.
type Peer interface {
	ID() string
	RequestBlocks(ctx context.Context, req BlockRequest) (BlocksResponse, error)
}

// Chain is the subset of chainstore.Store the syncer writes through plus
// the read access needed to serve incoming block requests.
type Chain interface {
	AddBlock(header *model.BlockHeader) (isAdded bool, graph chainstore.ResolvedGraph, err error)
	GetHeader(hash types.Hash256) (*model.BlockHeader, bool, error)
	GetHeaderAtSequence(seq uint32) (*model.BlockHeader, bool, error)
	Head() (*model.BlockHeader, error)
	Genesis() (*model.BlockHeader, error)
	NextHash(hash types.Hash256) (types.Hash256, bool)
}

// BlockFetcher answers full-Block lookups by hash. Chain stores headers
// only; transaction bodies live in an external collaborator store, so the
// syncer is handed this capability separately to serve HandleBlockRequest.
type BlockFetcher interface {
	GetBlock(hash types.Hash256) (*model.Block, bool, error)
}
