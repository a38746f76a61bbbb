package ephemeral

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/canonical/cloud-init-sub001/internal/domain/entities"
	domainErrors "github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
	"github.com/canonical/cloud-init-sub001/pkg/rfc3442"
)

// DHCPv4Scope는 DHCP 탐색으로 리스를 획득하고 그 내용으로 임시 IPv4
// 범위를 구성하는 DHCPScope 구현입니다. Close는 내부 범위를 해제하며
// 리스 자체는 일회성이므로 반환하지 않습니다
type DHCPv4Scope struct {
	acquirer     interfaces.LeaseAcquirer
	decoder      *rfc3442.Decoder
	executor     interfaces.CommandExecutor
	connectivity interfaces.ConnectivityChecker
	logger       *logrus.Logger

	iface           string
	connectivityURL string

	lease entities.Lease
	inner *IPv4Scope
}

// Enter는 리스를 획득하고 가장 최신 리스의 옵션으로 IPv4 범위를 설정합니다
func (s *DHCPv4Scope) Enter(ctx context.Context) error {
	leases, err := s.acquirer.Discover(ctx, s.iface)
	if err != nil {
		return err
	}
	// 리스 파일은 시간순이므로 마지막 것이 현재 유효한 리스입니다
	lease := leases[len(leases)-1]
	s.lease = lease

	inner, err := s.scopeFromLease(lease)
	if err != nil {
		return err
	}
	s.inner = inner

	s.logger.WithFields(logrus.Fields{
		"interface": s.iface,
		"address":   lease.Address(),
	}).Debug("리스 기반 임시 IPv4 범위 진입")
	return inner.Enter(ctx)
}

// scopeFromLease는 리스 옵션을 IPv4Scope 필드로 변환합니다
func (s *DHCPv4Scope) scopeFromLease(lease entities.Lease) (*IPv4Scope, error) {
	address := lease.Address()
	mask := lease.SubnetMask()
	if address == "" || mask == "" {
		return nil, &domainErrors.DomainError{
			Type:    domainErrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("리스에 주소 또는 마스크가 없음: %s", s.iface),
			Cause:   domainErrors.ErrInvalidLeaseFile,
		}
	}

	broadcast := lease.Broadcast()
	if broadcast == "" {
		computed, err := entities.BroadcastAddress(address, mask)
		if err != nil {
			return nil, domainErrors.NewValidationError("브로드캐스트 주소 계산 실패", err)
		}
		broadcast = computed
	}

	var staticRoutes []entities.StaticRoute
	if data := lease.StaticRouteData(); data != "" {
		for _, route := range s.decoder.Parse(data) {
			staticRoutes = append(staticRoutes, entities.StaticRoute{
				Destination: route.Destination,
				Gateway:     route.Gateway,
			})
		}
	}
	// 정적 경로가 있으면 RFC3442에 따라 routers 옵션을 무시합니다
	router := ""
	if len(staticRoutes) == 0 {
		router = lease.Router()
	}

	return NewIPv4Scope(s.executor, s.connectivity, s.logger,
		s.iface, address, mask, broadcast, s.connectivityURL, router, staticRoutes)
}

// Lease는 Enter가 획득한 최신 리스를 반환합니다 (획득 전이면 nil)
func (s *DHCPv4Scope) Lease() entities.Lease {
	return s.lease
}

// Close는 내부 IPv4 범위의 정리 동작을 재생합니다
func (s *DHCPv4Scope) Close(ctx context.Context) error {
	if s.inner == nil {
		return nil
	}
	return s.inner.Close(ctx)
}
