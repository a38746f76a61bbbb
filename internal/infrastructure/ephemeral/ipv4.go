package ephemeral

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/canonical/cloud-init-sub001/internal/domain/entities"
	domainErrors "github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/metrics"
)

// IPv4Scope는 인터페이스에 임시 IPv4 주소와 경로를 설정하고
// Close 시 설정한 것을 전부 되돌리는 EphemeralScope 구현입니다.
// 정리 동작은 Enter가 성공시킨 명령의 역순 재생이 되도록 큐에 쌓입니다
type IPv4Scope struct {
	executor     interfaces.CommandExecutor
	connectivity interfaces.ConnectivityChecker
	logger       *logrus.Logger

	iface           string
	ip              string
	prefix          int
	broadcast       string
	connectivityURL string
	router          string
	staticRoutes    []entities.StaticRoute

	// 각 항목은 ip 명령의 인자 목록이며 Close가 목록 순서대로 재생합니다
	cleanups [][]string
}

// NewIPv4Scope는 새로운 IPv4Scope를 생성합니다.
// prefixOrMask는 "24" 같은 프리픽스 길이와 "255.255.255.0" 같은
// 닷 표기 마스크를 모두 받습니다. router와 staticRoutes는 동시에
// 지정할 수 없습니다 (정적 경로가 게이트웨이 설정을 대체하므로)
func NewIPv4Scope(
	executor interfaces.CommandExecutor,
	connectivity interfaces.ConnectivityChecker,
	logger *logrus.Logger,
	iface, ip, prefixOrMask, broadcast, connectivityURL, router string,
	staticRoutes []entities.StaticRoute,
) (*IPv4Scope, error) {
	if iface == "" || ip == "" {
		return nil, domainErrors.NewValidationError("임시 IPv4 범위에는 인터페이스와 주소가 필요함", nil)
	}
	prefix, err := entities.ParsePrefixOrMask(prefixOrMask)
	if err != nil {
		return nil, domainErrors.NewValidationError(
			fmt.Sprintf("프리픽스/마스크 해석 실패: %q", prefixOrMask), err)
	}
	if router != "" && len(staticRoutes) > 0 {
		return nil, domainErrors.NewValidationError("router와 정적 경로는 함께 지정할 수 없음", nil)
	}

	return &IPv4Scope{
		executor:        executor,
		connectivity:    connectivity,
		logger:          logger,
		iface:           iface,
		ip:              ip,
		prefix:          prefix,
		broadcast:       broadcast,
		connectivityURL: connectivityURL,
		router:          router,
		staticRoutes:    staticRoutes,
	}, nil
}

// Enter는 주소를 부여하고 링크를 올린 뒤 경로를 설정합니다.
// 이미 연결성이 있거나 주소가 이미 있으면 아무것도 하지 않습니다.
// 중간에 실패해도 그때까지 큐에 쌓인 정리 동작은 보존되므로
// 호출자는 실패 여부와 무관하게 Close를 호출해야 합니다
func (s *IPv4Scope) Enter(ctx context.Context) error {
	if s.connectivityURL != "" && s.connectivity != nil &&
		s.connectivity.HasConnectivity(ctx, s.connectivityURL) {
		s.logger.WithFields(logrus.Fields{
			"interface": s.iface,
			"url":       s.connectivityURL,
		}).Info("이미 연결성이 있어 임시 IPv4 설정을 건너뜀")
		metrics.RecordEphemeralScope("ipv4", "skipped")
		return nil
	}

	added, err := s.bringupAddress(ctx)
	if err != nil {
		metrics.RecordEphemeralScope("ipv4", "failed")
		return err
	}
	if !added {
		metrics.RecordEphemeralScope("ipv4", "skipped")
		return nil
	}

	if len(s.staticRoutes) > 0 {
		err = s.bringupStaticRoutes(ctx)
	} else if s.router != "" {
		err = s.bringupRouter(ctx)
	}
	if err != nil {
		metrics.RecordEphemeralScope("ipv4", "failed")
		return err
	}

	metrics.RecordEphemeralScope("ipv4", "success")
	return nil
}

// bringupAddress는 주소를 부여하고 링크를 올립니다.
// 주소가 이미 있으면 (false, nil)을 반환하고 정리 동작을 쌓지 않습니다
func (s *IPv4Scope) bringupAddress(ctx context.Context) (bool, error) {
	cidr := fmt.Sprintf("%s/%d", s.ip, s.prefix)

	args := []string{"-family", "inet", "addr", "add", cidr}
	if s.broadcast != "" {
		args = append(args, "broadcast", s.broadcast)
	}
	args = append(args, "dev", s.iface)

	if _, err := s.executor.Execute(ctx, "ip", args...); err != nil {
		if strings.Contains(err.Error(), "File exists") {
			s.logger.WithFields(logrus.Fields{
				"interface": s.iface,
				"address":   cidr,
			}).Info("주소가 이미 있어 임시 IPv4 설정을 건너뜀")
			return false, nil
		}
		return false, domainErrors.NewNetworkError(
			fmt.Sprintf("임시 주소 추가 실패: %s dev %s", cidr, s.iface), err)
	}

	if _, err := s.executor.Execute(ctx, "ip", "-family", "inet", "link", "set", "dev", s.iface, "up"); err != nil {
		return false, domainErrors.NewNetworkError(fmt.Sprintf("링크 up 실패: %s", s.iface), err)
	}

	s.cleanups = append(s.cleanups,
		[]string{"-family", "inet", "link", "set", "dev", s.iface, "down"},
		[]string{"-family", "inet", "addr", "del", cidr, "dev", s.iface},
	)

	s.logger.WithFields(logrus.Fields{
		"interface": s.iface,
		"address":   cidr,
		"broadcast": s.broadcast,
	}).Info("임시 IPv4 주소 설정 완료")
	return true, nil
}

// bringupStaticRoutes는 리스가 준 클래스리스 정적 경로를 순서대로 적용합니다.
// 경로 해제가 링크/주소 해제보다 먼저 재생되도록 정리 동작을 앞에 끼웁니다
func (s *IPv4Scope) bringupStaticRoutes(ctx context.Context) error {
	for _, route := range s.staticRoutes {
		var via []string
		// 0.0.0.0 게이트웨이는 온링크 경로를 뜻하므로 via 홉을 생략합니다
		if route.Gateway != "" && route.Gateway != "0.0.0.0" {
			via = []string{"via", route.Gateway}
		}

		args := append([]string{"-4", "route", "append", route.Destination}, via...)
		args = append(args, "dev", s.iface)
		if _, err := s.executor.Execute(ctx, "ip", args...); err != nil {
			return domainErrors.NewNetworkError(
				fmt.Sprintf("정적 경로 추가 실패: %s", route.Destination), err)
		}

		undo := append([]string{"-4", "route", "del", route.Destination}, via...)
		undo = append(undo, "dev", s.iface)
		s.cleanups = append([][]string{undo}, s.cleanups...)
	}
	return nil
}

// bringupRouter는 시스템에 기본 경로가 없을 때만 리스의 라우터로
// 기본 경로를 추가합니다
func (s *IPv4Scope) bringupRouter(ctx context.Context) error {
	out, err := s.executor.Execute(ctx, "ip", "route", "show", "0.0.0.0/0")
	if err != nil {
		return domainErrors.NewNetworkError("기본 경로 조회 실패", err)
	}
	if strings.Contains(string(out), "default") {
		s.logger.WithFields(logrus.Fields{
			"interface": s.iface,
			"route":     strings.TrimSpace(string(out)),
		}).Debug("기본 경로가 이미 있어 추가를 건너뜀")
		return nil
	}

	if _, err := s.executor.Execute(ctx, "ip", "-4", "route", "add", "default", "via", s.router, "dev", s.iface); err != nil {
		return domainErrors.NewNetworkError(
			fmt.Sprintf("기본 경로 추가 실패: via %s", s.router), err)
	}
	s.cleanups = append(
		[][]string{{"-4", "route", "del", "default", "via", s.router, "dev", s.iface}},
		s.cleanups...,
	)
	return nil
}

// Close는 큐에 쌓인 정리 동작을 목록 순서대로 전부 재생합니다.
// 개별 실패는 로그만 남기고 계속 진행하며, 전부 재생한 뒤
// 첫 번째 오류를 반환합니다
func (s *IPv4Scope) Close(ctx context.Context) error {
	if len(s.cleanups) == 0 {
		return nil
	}

	var firstErr error
	for _, args := range s.cleanups {
		if _, err := s.executor.Execute(ctx, "ip", args...); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"interface": s.iface,
				"command":   "ip " + strings.Join(args, " "),
			}).Warn("임시 IPv4 정리 명령 실패")
			if firstErr == nil {
				firstErr = domainErrors.NewNetworkError(
					fmt.Sprintf("임시 IPv4 정리 실패: ip %s", strings.Join(args, " ")), err)
			}
		}
	}

	metrics.RecordCleanupReplays(len(s.cleanups))
	s.cleanups = nil

	s.logger.WithField("interface", s.iface).Debug("임시 IPv4 범위 해제 완료")
	return firstErr
}
