package ephemeral

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	domainErrors "github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/metrics"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/netinfo"
)

// IPv6Scope는 링크 로컬 IPv6 통신을 위한 EphemeralScope 구현입니다.
// 링크만 올리면 커널이 링크 로컬 주소와 SLAAC을 처리하므로
// 되돌릴 상태가 없습니다
type IPv6Scope struct {
	executor interfaces.CommandExecutor
	sysfs    *netinfo.Sysfs
	logger   *logrus.Logger
	iface    string
}

// Enter는 링크가 내려가 있으면 올립니다
func (s *IPv6Scope) Enter(ctx context.Context) error {
	if s.sysfs.IsUp(s.iface) {
		s.logger.WithField("interface", s.iface).Debug("링크가 이미 올라가 있어 임시 IPv6 설정을 건너뜀")
		metrics.RecordEphemeralScope("ipv6", "success")
		return nil
	}

	if _, err := s.executor.Execute(ctx, "ip", "link", "set", "dev", s.iface, "up"); err != nil {
		metrics.RecordEphemeralScope("ipv6", "failed")
		return domainErrors.NewNetworkError(fmt.Sprintf("링크 up 실패: %s", s.iface), err)
	}

	s.logger.WithField("interface", s.iface).Info("링크 로컬 IPv6 통신 준비 완료")
	metrics.RecordEphemeralScope("ipv6", "success")
	return nil
}

// Close는 아무것도 하지 않습니다. 링크 로컬 주소는 커널 소관입니다
func (s *IPv6Scope) Close(ctx context.Context) error {
	return nil
}
