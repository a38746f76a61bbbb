//go:build linux

package dhcp

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/insomniacslk/dhcp/dhcpv4/nclient4"
	"github.com/sirupsen/logrus"

	"github.com/canonical/cloud-init-sub001/internal/domain/entities"
	domainErrors "github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/config"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/metrics"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/netinfo"
)

// RFC3442 클래스리스 정적 라우트 옵션 코드
const classlessRouteOptionCode = 121

// NativeAcquirer는 외부 dhclient 없이 DHCP 교환을 직접 수행하는
// LeaseAcquirer 구현입니다. 획득한 ACK를 dhclient 리스와 같은
// 옵션 이름으로 변환하므로 소비자는 백엔드를 구분할 필요가 없습니다
type NativeAcquirer struct {
	executor interfaces.CommandExecutor
	clock    interfaces.Clock
	sysfs    *netinfo.Sysfs
	logger   *logrus.Logger
	timeout  time.Duration
}

// NewNativeAcquirer는 새로운 NativeAcquirer를 생성합니다
func NewNativeAcquirer(
	executor interfaces.CommandExecutor,
	clock interfaces.Clock,
	sysfs *netinfo.Sysfs,
	logger *logrus.Logger,
	timeout time.Duration,
) *NativeAcquirer {
	return &NativeAcquirer{
		executor: executor,
		clock:    clock,
		sysfs:    sysfs,
		logger:   logger,
		timeout:  timeout,
	}
}

// Discover는 DISCOVER/OFFER/REQUEST/ACK 교환을 수행하고 리스를 반환합니다
func (a *NativeAcquirer) Discover(ctx context.Context, iface string) ([]entities.Lease, error) {
	started := a.clock.Now()
	leases, err := a.discover(ctx, iface)
	duration := a.clock.Now().Sub(started).Seconds()
	if err != nil {
		metrics.RecordDHCPDiscovery(config.BackendNative, "failed", duration)
		return nil, err
	}
	metrics.RecordDHCPDiscovery(config.BackendNative, "success", duration)
	return leases, nil
}

func (a *NativeAcquirer) discover(ctx context.Context, iface string) ([]entities.Lease, error) {
	if iface == "" {
		return nil, &domainErrors.DomainError{
			Type:    domainErrors.ErrorTypeNotFound,
			Message: "DHCP 탐색 대상 인터페이스가 비어 있음",
			Cause:   domainErrors.ErrNoInterface,
		}
	}
	if !a.sysfs.HasDevice(iface) {
		return nil, &domainErrors.DomainError{
			Type:    domainErrors.ErrorTypeNotFound,
			Message: fmt.Sprintf("인터페이스 %s가 존재하지 않음", iface),
			Cause:   domainErrors.ErrNoInterface,
		}
	}

	if _, err := a.executor.Execute(ctx, "ip", "link", "set", "dev", iface, "up"); err != nil {
		return nil, domainErrors.NewNetworkError(fmt.Sprintf("링크 up 실패: %s", iface), err)
	}

	client, err := nclient4.New(iface, nclient4.WithTimeout(a.timeout))
	if err != nil {
		return nil, &domainErrors.DomainError{
			Type:    domainErrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("DHCP 클라이언트 생성 실패: %s", iface),
			Cause:   fmt.Errorf("%w: %v", domainErrors.ErrNoLease, err),
		}
	}
	defer client.Close()

	a.logger.WithField("interface", iface).Info("네이티브 DHCP 탐색 시작")

	lease, err := client.Request(ctx,
		dhcpv4.WithOption(dhcpv4.OptParameterRequestList(
			dhcpv4.OptionSubnetMask,
			dhcpv4.OptionRouter,
			dhcpv4.OptionDomainNameServer,
			dhcpv4.OptionBroadcastAddress,
			dhcpv4.GenericOptionCode(classlessRouteOptionCode),
		)))
	if err != nil {
		return nil, &domainErrors.DomainError{
			Type:    domainErrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("DHCP 요청 실패: %s", iface),
			Cause:   fmt.Errorf("%w: %v", domainErrors.ErrNoLease, err),
		}
	}

	converted := leaseFromACK(iface, lease.ACK)
	a.logger.WithFields(logrus.Fields{
		"interface": iface,
		"address":   converted.Address(),
	}).Info("네이티브 DHCP 탐색 완료")
	return []entities.Lease{converted}, nil
}

// leaseFromACK는 ACK 패킷을 dhclient 리스 파일과 같은 옵션 이름으로 변환합니다
func leaseFromACK(iface string, ack *dhcpv4.DHCPv4) entities.Lease {
	lease := entities.Lease{
		entities.LeaseKeyInterface: iface,
	}
	if ip := ack.YourIPAddr; len(ip) > 0 && !ip.IsUnspecified() {
		lease[entities.LeaseKeyFixedAddress] = ip.String()
	}
	if mask := ack.SubnetMask(); mask != nil {
		lease[entities.LeaseKeySubnetMask] = net.IP(mask).String()
	}
	if bcast := ack.Options.Get(dhcpv4.OptionBroadcastAddress); len(bcast) == net.IPv4len {
		lease[entities.LeaseKeyBroadcast] = net.IP(bcast).String()
	}
	if routers := ack.Router(); len(routers) > 0 {
		lease[entities.LeaseKeyRouters] = joinAddrs(routers)
	}
	if servers := ack.DNS(); len(servers) > 0 {
		lease[entities.LeaseKeyDNSServers] = joinAddrs(servers)
	}
	if raw := ack.Options.Get(dhcpv4.GenericOptionCode(classlessRouteOptionCode)); len(raw) > 0 {
		lease[entities.LeaseKeyStaticRoutes] = renderRouteBytes(raw)
	}
	return lease
}

func joinAddrs(addrs []net.IP) string {
	rendered := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		rendered = append(rendered, addr.String())
	}
	return strings.Join(rendered, ",")
}

// renderRouteBytes는 옵션 121의 원시 바이트를 dhclient가 리스 파일에
// 기록하는 쉼표 구분 십진 표기로 바꿉니다
func renderRouteBytes(raw []byte) string {
	tokens := make([]string, len(raw))
	for i, octet := range raw {
		tokens[i] = strconv.Itoa(int(octet))
	}
	return strings.Join(tokens, ",")
}
