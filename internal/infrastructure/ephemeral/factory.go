package ephemeral

import (
	"github.com/sirupsen/logrus"

	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/netinfo"
	"github.com/canonical/cloud-init-sub001/pkg/rfc3442"
)

// ScopeFactory creates per-interface ephemeral network scopes.
// It implements interfaces.EphemeralScopeFactory.
type ScopeFactory struct {
	executor     interfaces.CommandExecutor
	connectivity interfaces.ConnectivityChecker
	acquirer     interfaces.LeaseAcquirer
	sysfs        *netinfo.Sysfs
	decoder      *rfc3442.Decoder
	logger       *logrus.Logger

	connectivityURL string
}

// NewScopeFactory creates a new ScopeFactory. connectivityURL may be
// empty, in which case scopes never short-circuit on connectivity.
func NewScopeFactory(
	executor interfaces.CommandExecutor,
	connectivity interfaces.ConnectivityChecker,
	acquirer interfaces.LeaseAcquirer,
	sysfs *netinfo.Sysfs,
	logger *logrus.Logger,
	connectivityURL string,
) *ScopeFactory {
	return &ScopeFactory{
		executor:        executor,
		connectivity:    connectivity,
		acquirer:        acquirer,
		sysfs:           sysfs,
		decoder:         rfc3442.NewDecoder(logger),
		logger:          logger,
		connectivityURL: connectivityURL,
	}
}

// NewDHCPv4Scope creates a lease-backed ephemeral IPv4 scope.
func (f *ScopeFactory) NewDHCPv4Scope(iface string) interfaces.DHCPScope {
	return &DHCPv4Scope{
		acquirer:        f.acquirer,
		decoder:         f.decoder,
		executor:        f.executor,
		connectivity:    f.connectivity,
		logger:          f.logger,
		iface:           iface,
		connectivityURL: f.connectivityURL,
	}
}

// NewIPv6Scope creates a link-local IPv6 scope.
func (f *ScopeFactory) NewIPv6Scope(iface string) interfaces.EphemeralScope {
	return &IPv6Scope{
		executor: f.executor,
		sysfs:    f.sysfs,
		logger:   f.logger,
		iface:    iface,
	}
}
