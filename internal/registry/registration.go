// Package registry publishes this node's presence to etcd so operators
// and peers can discover running scoring nodes.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/driftwatch/driftd/internal/config"
	"github.com/driftwatch/driftd/internal/logging"
	"github.com/driftwatch/driftd/internal/models"
)

const (
	nodeKeyPrefix = "/driftwatch/nodes/%s"
	leaseTTL      = 10 // seconds
)

// NewEtcdClient creates an etcd client from configuration
func NewEtcdClient(cfg config.EtcdConfig) (*clientv3.Client, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return client, nil
}

// NodeRegistration handles node registration with etcd. The node key is
// bound to a lease so a crashed node disappears once the TTL lapses.
type NodeRegistration struct {
	kv              clientv3.KV
	lease           clientv3.Lease
	leaseID         clientv3.LeaseID
	nodeInfo        models.NodeInfo
	signalCount     func() int
	reRegisterDelay time.Duration
	logger          *logging.Logger
}

// NewNodeRegistration creates a new node registration instance.
// signalCount is polled periodically to refresh the published node info.
func NewNodeRegistration(
	etcdClient *clientv3.Client,
	nodeInfo models.NodeInfo,
	signalCount func() int,
	logger *logging.Logger,
) *NodeRegistration {
	return &NodeRegistration{
		kv:              etcdClient,
		lease:           etcdClient,
		nodeInfo:        nodeInfo,
		signalCount:     signalCount,
		reRegisterDelay: 2 * time.Second,
		logger:          logger,
	}
}

// Register registers the node with etcd and starts the keep-alive loop
func (r *NodeRegistration) Register(ctx context.Context) error {
	r.logger.Info("Starting node registration")

	r.nodeInfo.Signals = r.signalCount()
	r.nodeInfo.Status = models.NodeStatusActive
	r.nodeInfo.UpdatedAt = time.Now()

	lease, err := r.lease.Grant(ctx, leaseTTL)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}
	r.leaseID = lease.ID

	r.logger.Info(
		"Lease created",
		"lease_id", int64(r.leaseID),
		"ttl", leaseTTL,
	)

	if err := r.put(ctx); err != nil {
		return fmt.Errorf("failed to register node: %w", err)
	}

	r.logger.Info(
		"Node registered successfully",
		"node_id", r.nodeInfo.ID,
		"address", r.nodeInfo.Address,
		"status", r.nodeInfo.Status,
	)

	go r.keepAlive(ctx)

	return nil
}

// put writes the current node info under the lease
func (r *NodeRegistration) put(ctx context.Context) error {
	key := fmt.Sprintf(nodeKeyPrefix, r.nodeInfo.ID)
	data, err := json.Marshal(r.nodeInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal node info: %w", err)
	}

	_, err = r.kv.Put(ctx, key, string(data), clientv3.WithLease(r.leaseID))
	return err
}

// keepAlive maintains the lease by sending heartbeats
func (r *NodeRegistration) keepAlive(ctx context.Context) {
	r.logger.Info("Starting keep-alive loop", "lease_id", int64(r.leaseID))
	ch, err := r.lease.KeepAlive(ctx, r.leaseID)
	if err != nil {
		r.logger.Error("Failed to start keep-alive", "error", err)
		return
	}

	ticker := time.NewTicker(30 * time.Second) // Refresh signal count every 30s
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Keep-alive stopped (context done)")
			return

		case ka, ok := <-ch:
			if !ok {
				r.logger.Warn("Keep-alive channel closed, attempting re-registration")
				// Re-registration stays bound to the server context so a
				// lost lease during shutdown does not leak a new loop
				select {
				case <-ctx.Done():
					r.logger.Info("Keep-alive stopped (context done)")
					return
				case <-time.After(r.reRegisterDelay):
				}
				if err := r.Register(ctx); err != nil {
					r.logger.Error("Failed to re-register", "error", err)
				}
				return
			}

			if ka == nil {
				r.logger.Warn("Received nil keep-alive response")
				continue
			}

			r.logger.Debug("Heartbeat sent",
				"lease_id", int64(r.leaseID), "ttl", ka.TTL)

		case <-ticker.C:
			if err := r.updateSignals(ctx); err != nil {
				r.logger.Error("Failed to update signal count", "error", err)
			}
		}
	}
}

// updateSignals refreshes the published node info with the current
// tracked-signal count
func (r *NodeRegistration) updateSignals(ctx context.Context) error {
	r.nodeInfo.Signals = r.signalCount()
	r.nodeInfo.UpdatedAt = time.Now()

	if err := r.put(ctx); err != nil {
		return err
	}

	r.logger.Debug("Signal count updated", "signals", r.nodeInfo.Signals)
	return nil
}

// Deregister removes node from etcd
func (r *NodeRegistration) Deregister(ctx context.Context) error {
	r.logger.Info("Deregistering node", "node_id", r.nodeInfo.ID)

	key := fmt.Sprintf(nodeKeyPrefix, r.nodeInfo.ID)

	_, err := r.kv.Delete(ctx, key)
	if err != nil {
		r.logger.Error("Failed to delete node key", "error", err)
	}

	if r.leaseID != 0 {
		_, err = r.lease.Revoke(ctx, r.leaseID)
		if err != nil {
			r.logger.Error("Failed to revoke lease", "error", err)
		}
	}

	r.logger.Info("Node deregistered successfully", "node_id", r.nodeInfo.ID)

	return err
}
