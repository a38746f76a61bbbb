package dhcp

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/adapters"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/config"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/netinfo"
)

// AcquirerFactory is a factory that creates the lease acquirer for the
// configured DHCP backend
type AcquirerFactory struct {
	executor   interfaces.CommandExecutor
	fileSystem interfaces.FileSystem
	clock      interfaces.Clock
	process    interfaces.ProcessController
	locator    adapters.BinaryLocator
	sysfs      *netinfo.Sysfs
	logger     *logrus.Logger
	config     *config.Config
}

// NewAcquirerFactory creates a new AcquirerFactory
func NewAcquirerFactory(
	executor interfaces.CommandExecutor,
	fs interfaces.FileSystem,
	clock interfaces.Clock,
	process interfaces.ProcessController,
	locator adapters.BinaryLocator,
	sysfs *netinfo.Sysfs,
	logger *logrus.Logger,
	cfg *config.Config,
) *AcquirerFactory {
	return &AcquirerFactory{
		executor:   executor,
		fileSystem: fs,
		clock:      clock,
		process:    process,
		locator:    locator,
		sysfs:      sysfs,
		logger:     logger,
		config:     cfg,
	}
}

// CreateAcquirer creates the LeaseAcquirer for the configured backend
func (f *AcquirerFactory) CreateAcquirer() (interfaces.LeaseAcquirer, error) {
	backend := f.config.DHCP.Backend
	f.logger.WithField("backend", backend).Debug("DHCP backend selected")

	switch backend {
	case config.BackendDhclient:
		return NewDhclientAcquirer(
			f.executor,
			f.fileSystem,
			f.clock,
			f.process,
			f.locator,
			f.sysfs,
			f.logger,
			f.config.DHCP,
			f.config.Paths.RunDir,
			f.config.Paths.ProcDir,
		), nil

	case config.BackendNative:
		return NewNativeAcquirer(
			f.executor,
			f.clock,
			f.sysfs,
			f.logger,
			f.config.DHCP.DiscoveryTimeout,
		), nil

	default:
		return nil, errors.NewSystemError(fmt.Sprintf("unsupported DHCP backend: %s", backend), nil)
	}
}
