package usecases

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/canonical/cloud-init-sub001/internal/domain/entities"
	"github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/metrics"
)

// DegradationLinkLocalOnly는 DHCP 임대 획득 실패 후 IPv6만으로 계속 진행할 때의 격하 사유입니다
const DegradationLinkLocalOnly = "link-local IPv6 only"

// ProvisionConnectivityUseCase는 부팅 시점에 임시 네트워크 연결을 구성하는 유스케이스입니다.
// 요청된 주소 패밀리별 임시 범위에 진입하고, 전부 해제할 수 있는 핸들을 반환합니다
type ProvisionConnectivityUseCase struct {
	fallbackSelector interfaces.FallbackSelector
	scopeFactory     interfaces.EphemeralScopeFactory
	logger           *logrus.Logger
}

// NewProvisionConnectivityUseCase는 새로운 ProvisionConnectivityUseCase를 생성합니다
func NewProvisionConnectivityUseCase(
	fallbackSelector interfaces.FallbackSelector,
	scopeFactory interfaces.EphemeralScopeFactory,
	logger *logrus.Logger,
) *ProvisionConnectivityUseCase {
	return &ProvisionConnectivityUseCase{
		fallbackSelector: fallbackSelector,
		scopeFactory:     scopeFactory,
		logger:           logger,
	}
}

// ProvisionConnectivityInput은 유스케이스의 입력 파라미터입니다
type ProvisionConnectivityInput struct {
	// Interface가 비어 있으면 폴백 NIC 선택 휴리스틱으로 대상을 고릅니다
	Interface string
	IPv4      bool
	IPv6      bool
}

// ProvisionConnectivityOutput은 구성된 연결의 핸들입니다.
// 사용이 끝나면 반드시 Close를 호출해 임시 구성을 해제해야 합니다
type ProvisionConnectivityOutput struct {
	Interface string
	// Lease는 IPv4 범위 진입이 성공했을 때 획득한 최신 리스입니다
	Lease entities.Lease
	// Degraded는 IPv4가 요청됐지만 임대 획득에 실패해 IPv6만 구성됐음을 나타냅니다
	Degraded          bool
	DegradationReason string

	// scopes는 진입 순서대로 쌓이고 Close에서 역순으로 해제됩니다
	scopes []interfaces.EphemeralScope
}

// Close는 진입의 역순으로 모든 임시 범위를 해제합니다.
// 개별 해제가 실패해도 나머지를 계속 해제하며 첫 에러를 반환합니다
func (o *ProvisionConnectivityOutput) Close(ctx context.Context) error {
	var firstErr error
	for i := len(o.scopes) - 1; i >= 0; i-- {
		if err := o.scopes[i].Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	o.scopes = nil
	return firstErr
}

// Execute는 연결 구성 유스케이스를 실행합니다.
// IPv4 임대 획득 실패는 IPv6도 요청된 경우에만 격하로 흡수하고, 그 외에는 실패입니다
func (uc *ProvisionConnectivityUseCase) Execute(ctx context.Context, input ProvisionConnectivityInput) (*ProvisionConnectivityOutput, error) {
	if !input.IPv4 && !input.IPv6 {
		return nil, errors.NewValidationError("구성할 주소 패밀리가 지정되지 않음", nil)
	}

	// 1. 대상 인터페이스 결정 (미지정 시 폴백 NIC 선택)
	iface := input.Interface
	if iface == "" {
		selected, err := uc.fallbackSelector.FindFallbackNIC(ctx, nil)
		if err != nil {
			metrics.RecordFallbackSelection("failed")
			return nil, err
		}
		metrics.RecordFallbackSelection("success")
		uc.logger.WithField("interface", selected).Info("폴백 NIC 선택")
		iface = selected
	}

	output := &ProvisionConnectivityOutput{Interface: iface}

	// 2. IPv4: DHCP 탐색으로 임시 주소를 구성
	if input.IPv4 {
		scope := uc.scopeFactory.NewDHCPv4Scope(iface)
		if err := scope.Enter(ctx); err != nil {
			// 진입 도중 큐에 쌓인 정리 명령이 있을 수 있으므로 먼저 해제합니다
			if closeErr := scope.Close(ctx); closeErr != nil {
				uc.logger.WithError(closeErr).Warn("실패한 IPv4 범위 해제 중 오류")
			}
			if !errors.IsNoLeaseError(err) || !input.IPv6 {
				return nil, err
			}
			uc.logger.WithError(err).WithField("interface", iface).Warn(
				"DHCP 임대 획득 실패, link-local IPv6 only로 격하")
			output.Degraded = true
			output.DegradationReason = DegradationLinkLocalOnly
		} else {
			output.Lease = scope.Lease()
			output.scopes = append(output.scopes, scope)
			uc.logger.WithFields(logrus.Fields{
				"interface": iface,
				"address":   output.Lease.Address(),
			}).Info("임시 IPv4 구성 완료")
		}
	}

	// 3. IPv6: 링크를 올려 링크 로컬 주소를 활성화
	if input.IPv6 {
		scope := uc.scopeFactory.NewIPv6Scope(iface)
		if err := scope.Enter(ctx); err != nil {
			if closeErr := output.Close(ctx); closeErr != nil {
				uc.logger.WithError(closeErr).Warn("앞서 진입한 범위 해제 중 오류")
			}
			return nil, err
		}
		output.scopes = append(output.scopes, scope)
		uc.logger.WithField("interface", iface).Info("임시 IPv6 구성 완료")
	}

	return output, nil
}
