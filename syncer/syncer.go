package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/looplab/fsm"

	"github.com/iron-fish/chaincore/errors"
	"github.com/iron-fish/chaincore/model"
	"github.com/iron-fish/chaincore/types"
	"github.com/iron-fish/chaincore/ulogger"

	"github.com/google/uuid"
)

// Verify is the hook the syncer calls before handing a block to the chain
// store, giving the caller (which composes the verifier package) a chance
// to reject it with a tagged, permanently-fatal reason.
type Verify func(ctx context.Context, block *model.Block, parent *model.BlockHeader) (bool, errors.Code, error)

// Options configures a Syncer's tunables.
type Options struct {
	RPCTimeout            time.Duration
	RecentBlockCacheSize  int
	RejectedHashCacheSize int
}

func defaultOptions() Options {
	return Options{
		RPCTimeout:            10 * time.Second,
		RecentBlockCacheSize:  500,
		RejectedHashCacheSize: 4096,
	}
}

type outstandingRequest struct {
	resultCh chan requestOutcome
	waiters  int
}

type requestOutcome struct {
	resp BlocksResponse
	err  error
}

// Syncer is the block-synchronization state machine. One actor goroutine
// drains events serially, so state transitions never race.
type Syncer struct {
	chain   Chain
	fetcher BlockFetcher
	verify  Verify
	logger  ulogger.Logger
	opts    Options

	machine *fsm.FSM

	events chan func(ctx context.Context)
	done   chan struct{}

	queue *insertionQueue

	recentBlocks    *lru.Cache[string, *model.Block]
	rejectedHashes  *lru.Cache[types.Hash256, struct{}]

	outstandingMu sync.Mutex
	outstanding   map[string]*outstandingRequest

	peersMu sync.Mutex
	peers   map[string]Peer
}

func New(chain Chain, fetcher BlockFetcher, verify Verify, logger ulogger.Logger, opts Options) (*Syncer, error) {
	defaults := defaultOptions()
	if opts.RPCTimeout <= 0 {
		opts.RPCTimeout = defaults.RPCTimeout
	}
	if opts.RecentBlockCacheSize <= 0 {
		opts.RecentBlockCacheSize = defaults.RecentBlockCacheSize
	}
	if opts.RejectedHashCacheSize <= 0 {
		opts.RejectedHashCacheSize = defaults.RejectedHashCacheSize
	}

	recent, err := lru.New[string, *model.Block](opts.RecentBlockCacheSize)
	if err != nil {
		return nil, err
	}
	rejected, err := lru.New[types.Hash256, struct{}](opts.RejectedHashCacheSize)
	if err != nil {
		return nil, err
	}

	s := &Syncer{
		chain:          chain,
		fetcher:        fetcher,
		verify:         verify,
		logger:         logger,
		opts:           opts,
		events:         make(chan func(ctx context.Context), 256),
		done:           make(chan struct{}),
		queue:          newInsertionQueue(),
		recentBlocks:   recent,
		rejectedHashes: rejected,
		outstanding:    make(map[string]*outstandingRequest),
		peers:          make(map[string]Peer),
	}

	s.machine = newStateMachine(fsm.Callbacks{
		"enter_" + StateIdle:       func(ctx context.Context, e *fsm.Event) { s.onEnterIdle(ctx) },
		"enter_" + StateSyncing:    func(ctx context.Context, e *fsm.Event) { s.onEnterSyncing(ctx, e) },
		"enter_" + StateRequesting: func(ctx context.Context, e *fsm.Event) { s.onEnterRequesting(ctx, e) },
	})

	return s, nil
}

func (s *Syncer) State() string {
	return s.machine.Current()
}

func (s *Syncer) RegisterPeer(p Peer) {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()
	s.peers[p.ID()] = p
}

func (s *Syncer) peer(id string) (Peer, bool) {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()
	p, ok := s.peers[id]
	return p, ok
}

func (s *Syncer) anyPeer() (Peer, bool) {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()
	for _, p := range s.peers {
		return p, true
	}
	return nil, false
}

// Start dispatches Stopped -> Starting -> Idle and begins the actor loop.
func (s *Syncer) Start(ctx context.Context) error {
	go s.run(ctx)

	if err := dispatch(ctx, s.machine, eventStart); err != nil {
		return err
	}
	return dispatch(ctx, s.machine, eventBecomeIdle)
}

// Shutdown dispatches Stopping, closes the events channel so the actor
// loop drains and exits, waits for it to finish, then dispatches Stopped.
func (s *Syncer) Shutdown(ctx context.Context) error {
	if err := dispatch(ctx, s.machine, eventStop); err != nil {
		return err
	}

	close(s.events)
	<-s.done

	return dispatch(ctx, s.machine, eventStopped)
}

func (s *Syncer) run(ctx context.Context) {
	defer close(s.done)
	for fn := range s.events {
		fn(ctx)
	}
}

// enqueue schedules fn to run serially on the actor goroutine, so state
// transitions never race with one another.
func (s *Syncer) enqueue(fn func(ctx context.Context)) {
	defer func() {
		_ = recover() // events channel closed during shutdown; drop silently
	}()
	s.events <- fn
}

// AddBlockToProcess is the ingress point from gossip or a requester. The
// actual queue push and state dispatch run on the actor goroutine.
func (s *Syncer) AddBlockToProcess(block *model.Block, fromPeer string, source BlockSource) {
	hash := block.Hash()
	if _, rejected := s.rejectedHashes.Get(hash); rejected {
		return
	}

	s.enqueue(func(ctx context.Context) {
		s.queue.Push(queuedBlock{block: block, fromPeer: fromPeer, source: source})
		if err := dispatch(ctx, s.machine, eventSync); err != nil {
			s.logger.Errorf("syncer: dispatch sync failed: %v", err)
		}
	})
}

func (s *Syncer) onEnterIdle(ctx context.Context) {
	item, ok := s.queue.Pop()
	if !ok {
		return
	}
	if err := dispatch(ctx, s.machine, eventSync, item); err != nil {
		s.logger.Errorf("syncer: dispatch sync from idle failed: %v", err)
	}
}

func (s *Syncer) onEnterSyncing(ctx context.Context, e *fsm.Event) {
	var item queuedBlock
	if len(e.Args) > 0 {
		if q, ok := e.Args[0].(queuedBlock); ok {
			item = q
		} else {
			// the first argument is not a queued block: pull from the
			// queue ourselves.
			popped, ok := s.queue.Pop()
			if !ok {
				_ = dispatch(ctx, s.machine, eventBecomeIdle)
				return
			}
			item = popped
		}
	} else {
		// entered without a block (the AddBlockToProcess dispatch): pull
		// from the queue ourselves.
		popped, ok := s.queue.Pop()
		if !ok {
			_ = dispatch(ctx, s.machine, eventBecomeIdle)
			return
		}
		item = popped
	}

	s.runInsertionSequence(ctx, item)
}

// runInsertionSequence verifies, inserts, and decides on any follow-up
// request for a single dequeued block: not added, gossip already connected
// to genesis, connected to genesis needing a forward request, or still a
// disconnected island needing its tail's predecessor.
func (s *Syncer) runInsertionSequence(ctx context.Context, item queuedBlock) {
	block := item.block
	hash := block.Hash()

	parent, found, err := s.chain.GetHeader(block.Header.Raw.PreviousBlockHash)
	if err != nil {
		s.logger.Errorf("syncer: failed to read parent header: %v", err)
		_ = dispatch(ctx, s.machine, eventBecomeIdle)
		return
	}

	if found && s.verify != nil {
		if ok, reason, verr := s.verify(ctx, block, parent); verr != nil {
			s.logger.Errorf("syncer: verification error: %v", verr)
			_ = dispatch(ctx, s.machine, eventBecomeIdle)
			return
		} else if !ok {
			s.rejectedHashes.Add(hash, struct{}{})
			s.logger.Infof("syncer: rejected block %s: %s", hash, reason)
			_ = dispatch(ctx, s.machine, eventBecomeIdle)
			return
		}
	}

	isAdded, graph, err := s.chain.AddBlock(block.Header)
	if err != nil {
		s.logger.Errorf("syncer: chain.AddBlock failed: %v", err)
		_ = dispatch(ctx, s.machine, eventBecomeIdle)
		return
	}

	// 1. Not added.
	if !isAdded {
		_ = dispatch(ctx, s.machine, eventBecomeIdle)
		return
	}

	s.recentBlocks.Add(recentBlockKey(hash, false), block)

	// 2. Gossip + connected to genesis: no follow-up request needed.
	if item.source == SourceGossip && graph.ConnectedToGenesis {
		_ = dispatch(ctx, s.machine, eventBecomeIdle)
		return
	}

	// 3. Connected to genesis (reached via Syncing, or not gossip): request
	// the forward successor of the heaviest hash.
	if graph.ConnectedToGenesis {
		s.issueRequest(ctx, BlockRequest{Hash: graph.HeaviestHash, Forward: true}, item.fromPeer)
		return
	}

	// 4. Still a disconnected island: request the predecessor of the tail
	// from the same peer.
	tailHeader, found, err := s.chain.GetHeader(graph.TailHash)
	if err != nil || !found {
		s.logger.Errorf("syncer: island tail header %s missing", graph.TailHash)
		_ = dispatch(ctx, s.machine, eventBecomeIdle)
		return
	}
	if tailHeader.Raw.Sequence == 1 {
		panic(fmt.Sprintf("syncer: fatal invariant: requested predecessor of genesis-sequence block %s", graph.TailHash))
	}

	s.issueRequest(ctx, BlockRequest{
		Hash:     tailHeader.Raw.PreviousBlockHash,
		Forward:  false,
		FromPeer: item.fromPeer,
	}, item.fromPeer)
}

func (s *Syncer) onEnterRequesting(ctx context.Context, e *fsm.Event) {
	// issueRequest fires this transition just before it registers and sends
	// the request; the side effect is driven by issueRequest, so this
	// callback does nothing of its own.
}

func requestKey(req BlockRequest) string {
	if req.Forward {
		return fmt.Sprintf("%s|fwd", req.Hash)
	}
	return fmt.Sprintf("%s|back", req.Hash)
}

func recentBlockKey(h types.Hash256, forward bool) string {
	if forward {
		return fmt.Sprintf("%s|fwd", h)
	}
	return h.String()
}

// issueRequest dispatches eventRequest and, outside the actor goroutine,
// performs the network round trip, collapsing duplicate outstanding
// requests sharing the same key so at most one is in flight at a time.
func (s *Syncer) issueRequest(ctx context.Context, req BlockRequest, preferredPeer string) {
	_ = dispatch(ctx, s.machine, eventRequest)

	key := requestKey(req)
	correlationID := uuid.New().String()

	s.outstandingMu.Lock()
	if existing, ok := s.outstanding[key]; ok {
		existing.waiters++
		s.outstandingMu.Unlock()
		go s.awaitRequest(ctx, key, existing)
		return
	}
	entry := &outstandingRequest{resultCh: make(chan requestOutcome, 1), waiters: 1}
	s.outstanding[key] = entry
	s.outstandingMu.Unlock()

	go s.performRequest(ctx, req, preferredPeer, key, entry, correlationID)
	go s.awaitRequest(ctx, key, entry)
}

func (s *Syncer) performRequest(ctx context.Context, req BlockRequest, preferredPeer, key string, entry *outstandingRequest, correlationID string) {
	var p Peer
	var ok bool
	if preferredPeer != "" {
		p, ok = s.peer(preferredPeer)
	}
	if !ok {
		p, ok = s.anyPeer()
	}
	if !ok {
		entry.resultCh <- requestOutcome{err: errors.New(errors.ErrCannotSatisfyRequest, "no peer available")}
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RPCTimeout)
	defer cancel()

	s.logger.Debugf("syncer: requesting %s forward=%v peer=%s corr=%s", req.Hash, req.Forward, p.ID(), correlationID)

	resp, err := p.RequestBlocks(reqCtx, req)
	if err != nil {
		if reqCtx.Err() != nil {
			entry.resultCh <- requestOutcome{err: errors.New(errors.ErrRequestTimeout, "request timed out", err)}
			return
		}
		entry.resultCh <- requestOutcome{err: errors.New(errors.ErrCannotSatisfyRequest, "peer error", err)}
		return
	}

	entry.resultCh <- requestOutcome{resp: resp}
}

// awaitRequest waits for the shared outstanding request to resolve, feeds
// any returned blocks back into the queue, and returns the syncer to Idle.
// All waiters on the same collapsed key resolve from the same response.
func (s *Syncer) awaitRequest(ctx context.Context, key string, entry *outstandingRequest) {
	outcome := <-entry.resultCh
	entry.resultCh <- outcome // replay for the remaining collapsed waiters

	s.outstandingMu.Lock()
	entry.waiters--
	if entry.waiters <= 0 {
		delete(s.outstanding, key)
	}
	s.outstandingMu.Unlock()

	s.enqueue(func(ctx context.Context) {
		if outcome.err != nil {
			if st := s.machine.Current(); st == StateStopping || st == StateStopped {
				return // request failures during shutdown are expected and swallowed
			}
			s.logger.Infof("syncer: request failed: %v", outcome.err)
			_ = dispatch(ctx, s.machine, eventBecomeIdle)
			return
		}

		for _, b := range outcome.resp.Blocks {
			if _, rejected := s.rejectedHashes.Get(b.Hash()); rejected {
				continue
			}
			s.queue.Push(queuedBlock{block: b, source: SourceSyncing})
		}
		_ = dispatch(ctx, s.machine, eventBecomeIdle)
	})
}

// HandleBlockRequest serves a peer's request for blocks. A single-block
// request reads through the recently-served LRU before falling back to the
// BlockFetcher; a forward request walks the chain's successor index and
// fetches each block from the BlockFetcher, without consulting the LRU.
func (s *Syncer) HandleBlockRequest(req BlockRequest) (BlocksResponse, error) {
	if req.Forward {
		return s.handleForwardRequest(req)
	}
	return s.handleSingleRequest(req)
}

func (s *Syncer) handleSingleRequest(req BlockRequest) (BlocksResponse, error) {
	key := req.Hash.String()
	if b, ok := s.recentBlocks.Get(key); ok {
		return BlocksResponse{Blocks: []*model.Block{b}}, nil
	}

	b, found, err := s.fetcher.GetBlock(req.Hash)
	if err != nil {
		return BlocksResponse{}, err
	}
	if !found {
		return BlocksResponse{}, nil
	}

	s.recentBlocks.Add(key, b)
	return BlocksResponse{Blocks: []*model.Block{b}}, nil
}

// handleForwardRequest serves successors of req.Hash via the chain's
// hashToNext index. If the remote cannot fully satisfy the request (our
// head is at or behind req.Hash), it responds with our current heaviest
// head as a heartbeat; an exact tip-equals-tip request returns an empty
// list.
func (s *Syncer) handleForwardRequest(req BlockRequest) (BlocksResponse, error) {
	var blocks []*model.Block
	cur := req.Hash

	for len(blocks) < MaxBlocksPerMessage {
		next, ok := s.chain.NextHash(cur)
		if !ok {
			break
		}
		b, found, err := s.fetcher.GetBlock(next)
		if err != nil {
			return BlocksResponse{}, err
		}
		if !found {
			break
		}
		blocks = append(blocks, b)
		cur = next
	}

	if len(blocks) == 0 {
		head, err := s.chain.Head()
		if err != nil {
			return BlocksResponse{}, err
		}
		if head.Hash() == req.Hash {
			return BlocksResponse{}, nil
		}
		b, found, err := s.fetcher.GetBlock(head.Hash())
		if err != nil || !found {
			return BlocksResponse{}, err
		}
		return BlocksResponse{Blocks: []*model.Block{b}}, nil
	}

	return BlocksResponse{Blocks: blocks}, nil
}
