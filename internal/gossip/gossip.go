// Package gossip is the supplementary, non-authoritative announcement
// relay described in SPEC_FULL.md §4.4: once the indexer appends a
// commitment, it publishes the Announcement over a libp2p-pubsub topic
// so subscribed wallet scanners learn of it without waiting on the next
// on-chain poll. Received messages go only to the Handler set with
// SetHandler; the scanner and the indexer do not read gossip, and take
// announcements from their own sources.
//
// Grounded on the teacher's internal/p2p/node.go: libp2p host
// construction, GossipSub pubsub, mDNS discovery, and the
// Config/DefaultConfig/NewNode/joinTopics/Start shape are all kept,
// trimmed to the single topic zVault needs (no DHT content routing for
// blocks/tasks, which have no zVault analog).
package gossip

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	"github.com/multiformats/go-multiaddr"
	"github.com/rs/zerolog/log"

	"github.com/zvault/core/pkg/chain"
)

// AnnouncementTopic is the single GossipSub topic this package relays
// announcements over.
const AnnouncementTopic = "zvault/announcements/v1"

// protocolID namespaces this node's libp2p stream protocol, mirroring
// the teacher's ProtocolID constant.
const protocolID = "/zvault/1.0.0"

// Config holds node configuration.
type Config struct {
	ListenAddrs []string
	PrivateKey  crypto.PrivKey
	EnableMDNS  bool
}

// DefaultConfig returns sane local-development defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddrs: []string{"/ip4/0.0.0.0/tcp/9100"},
		EnableMDNS:  true,
	}
}

// Handler is called for each announcement received over gossip. It
// must not block; long-running validation should be dispatched
// asynchronously.
type Handler func(ctx context.Context, a chain.AnnouncementRecord)

// Node wraps a libp2p host subscribed to AnnouncementTopic.
type Node struct {
	mu sync.RWMutex

	host   host.Host
	pubsub *pubsub.PubSub
	topic  *pubsub.Topic
	sub    *pubsub.Subscription

	handler Handler

	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a gossip node, joins AnnouncementTopic, and optionally
// enables local mDNS discovery. Start must be called to begin
// processing.
func New(ctx context.Context, cfg *Config) (*Node, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	nodeCtx, cancel := context.WithCancel(ctx)

	privKey := cfg.PrivateKey
	if privKey == nil {
		var err error
		privKey, _, err = crypto.GenerateKeyPairWithReader(crypto.Ed25519, -1, rand.Reader)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("gossip: generate key: %w", err)
		}
	}

	listenAddrs := make([]multiaddr.Multiaddr, len(cfg.ListenAddrs))
	for i, addr := range cfg.ListenAddrs {
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("gossip: invalid listen address: %w", err)
		}
		listenAddrs[i] = ma
	}

	h, err := libp2p.New(
		libp2p.Identity(privKey),
		libp2p.ListenAddrs(listenAddrs...),
		libp2p.EnableNATService(),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("gossip: create host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(nodeCtx, h)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("gossip: create pubsub: %w", err)
	}

	n := &Node{
		host:   h,
		pubsub: ps,
		ctx:    nodeCtx,
		cancel: cancel,
	}

	if err := n.joinTopic(); err != nil {
		n.Close()
		return nil, err
	}

	if cfg.EnableMDNS {
		if err := n.setupMDNS(); err != nil {
			log.Warn().Err(err).Msg("gossip: mDNS setup failed")
		}
	}

	return n, nil
}

func (n *Node) joinTopic() error {
	var err error
	n.topic, err = n.pubsub.Join(AnnouncementTopic)
	if err != nil {
		return fmt.Errorf("gossip: join topic: %w", err)
	}
	n.sub, err = n.topic.Subscribe()
	if err != nil {
		return fmt.Errorf("gossip: subscribe: %w", err)
	}
	return nil
}

func (n *Node) setupMDNS() error {
	svc := mdns.NewMdnsService(n.host, protocolID, mdnsNotifee{host: n.host})
	return svc.Start()
}

// mdnsNotifee connects newly discovered local peers, logging but
// swallowing a connection failure, matching the teacher's
// "warn, don't fail" treatment of peer-discovery errors.
type mdnsNotifee struct {
	host host.Host
}

func (m mdnsNotifee) HandlePeerFound(pi peer.AddrInfo) {
	if err := m.host.Connect(context.Background(), pi); err != nil {
		log.Warn().Err(err).Str("peer", pi.ID.String()).Msg("gossip: mDNS peer connect failed")
	}
}

// SetHandler registers the callback invoked for each received
// announcement. Must be called before Start.
func (n *Node) SetHandler(h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handler = h
}

// Start begins processing incoming gossip messages in the background.
func (n *Node) Start() {
	go n.processMessages()
}

func (n *Node) processMessages() {
	for {
		msg, err := n.sub.Next(n.ctx)
		if err != nil {
			if n.ctx.Err() != nil {
				return
			}
			continue
		}
		if msg.ReceivedFrom == n.host.ID() {
			continue
		}
		if len(msg.Data) != chain.AnnouncementRecordSize {
			log.Warn().Int("len", len(msg.Data)).Msg("gossip: dropping malformed announcement")
			continue
		}
		var buf [chain.AnnouncementRecordSize]byte
		copy(buf[:], msg.Data)
		record, err := chain.DecodeAnnouncement(buf)
		if err != nil {
			log.Warn().Err(err).Msg("gossip: dropping undecodable announcement")
			continue
		}

		n.mu.RLock()
		handler := n.handler
		n.mu.RUnlock()
		if handler != nil {
			handler(n.ctx, record)
		}
	}
}

// Publish broadcasts an announcement to AnnouncementTopic.
func (n *Node) Publish(ctx context.Context, a chain.AnnouncementRecord) error {
	buf := chain.EncodeAnnouncement(a)
	if err := n.topic.Publish(ctx, buf[:]); err != nil {
		return fmt.Errorf("gossip: publish: %w", err)
	}
	return nil
}

// Close shuts the node down.
func (n *Node) Close() error {
	n.cancel()
	if n.host != nil {
		return n.host.Close()
	}
	return nil
}
