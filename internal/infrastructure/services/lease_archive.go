package services

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/canonical/cloud-init-sub001/internal/domain/entities"
	domainErrors "github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/dhcp"
)

// LeaseArchive는 배포판 dhclient가 남긴 리스 보관소를 조회하는 서비스입니다.
// 부팅 후 새 탐색 없이 리스 사실이 필요한 소비자가 사용합니다
type LeaseArchive struct {
	fileSystem interfaces.FileSystem
	logger     *logrus.Logger
	archiveDir string
}

// NewLeaseArchive는 새로운 LeaseArchive를 생성합니다
func NewLeaseArchive(
	fs interfaces.FileSystem,
	logger *logrus.Logger,
	archiveDir string,
) *LeaseArchive {
	return &LeaseArchive{
		fileSystem: fs,
		logger:     logger,
		archiveDir: archiveDir,
	}
}

// LatestLease는 가장 최근에 수정된 리스 파일에서 해당 인터페이스의
// 마지막(최신) 리스를 반환합니다
func (s *LeaseArchive) LatestLease(iface string) (entities.Lease, error) {
	if iface == "" {
		return nil, domainErrors.NewValidationError("조회할 인터페이스 이름이 비어 있음", nil)
	}

	newest, err := s.newestLeaseFile()
	if err != nil {
		return nil, err
	}

	content, err := s.fileSystem.ReadFile(newest)
	if err != nil {
		return nil, domainErrors.NewSystemError(fmt.Sprintf("리스 파일 읽기 실패: %s", newest), err)
	}

	leases := dhcp.ParseLeaseFile(string(content))
	for i := len(leases) - 1; i >= 0; i-- {
		if leases[i][entities.LeaseKeyInterface] == iface {
			s.logger.WithFields(logrus.Fields{
				"interface": iface,
				"file":      newest,
				"address":   leases[i].Address(),
			}).Debug("보관소에서 리스 조회")
			return leases[i], nil
		}
	}

	return nil, domainErrors.NewNotFoundError(
		fmt.Sprintf("보관소 리스 파일에 인터페이스 %s의 리스가 없음", iface))
}

// newestLeaseFile은 보관소에서 수정 시각이 가장 최근인
// dhclient*.leases 파일을 찾습니다
func (s *LeaseArchive) newestLeaseFile() (string, error) {
	if !s.fileSystem.Exists(s.archiveDir) {
		return "", domainErrors.NewNotFoundError(
			fmt.Sprintf("리스 보관소 디렉토리가 없음: %s", s.archiveDir))
	}

	files, err := s.fileSystem.ListFiles(s.archiveDir)
	if err != nil {
		return "", domainErrors.NewSystemError(
			fmt.Sprintf("리스 보관소 읽기 실패: %s", s.archiveDir), err)
	}

	var newest string
	var newestTime time.Time
	for _, name := range files {
		if !strings.HasPrefix(name, "dhclient") || !strings.HasSuffix(name, ".leases") {
			continue
		}
		path := filepath.Join(s.archiveDir, name)
		info, err := s.fileSystem.Stat(path)
		if err != nil {
			s.logger.WithError(err).WithField("file", path).Debug("리스 파일 stat 실패, 건너뜀")
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = path
			newestTime = info.ModTime()
		}
	}

	if newest == "" {
		return "", domainErrors.NewNotFoundError(
			fmt.Sprintf("보관소에 dhclient 리스 파일이 없음: %s", s.archiveDir))
	}
	return newest, nil
}
