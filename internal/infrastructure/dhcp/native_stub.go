//go:build !linux

package dhcp

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/canonical/cloud-init-sub001/internal/domain/entities"
	domainErrors "github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/netinfo"
)

// NativeAcquirer는 linux 외 플랫폼에서는 동작하지 않습니다
type NativeAcquirer struct {
	logger *logrus.Logger
}

// NewNativeAcquirer는 새로운 NativeAcquirer를 생성합니다
func NewNativeAcquirer(
	executor interfaces.CommandExecutor,
	clock interfaces.Clock,
	sysfs *netinfo.Sysfs,
	logger *logrus.Logger,
	timeout time.Duration,
) *NativeAcquirer {
	return &NativeAcquirer{logger: logger}
}

// Discover는 linux 외 플랫폼에서 항상 실패합니다
func (a *NativeAcquirer) Discover(ctx context.Context, iface string) ([]entities.Lease, error) {
	return nil, domainErrors.NewSystemError("네이티브 DHCP 백엔드는 linux에서만 지원됨", nil)
}
