package netconfig

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/canonical/cloud-init-sub001/internal/domain/entities"
	domainErrors "github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
)

// ethernet은 network-config v2의 이더넷 선언 중 이름 변경에 필요한
// 부분집합입니다. 주소/경로 등의 나머지 키는 다른 소비자의 몫이므로
// 조용히 무시합니다
type ethernet struct {
	Match   ethernetMatch `yaml:"match"`
	SetName string        `yaml:"set-name"`
}

type ethernetMatch struct {
	MacAddress string `yaml:"macaddress"`
	Driver     string `yaml:"driver"`
}

// Source는 인스턴스 데이터소스가 남긴 network-config v2 YAML에서
// 이름 변경 대상을 읽는 RenameTargetSource 구현입니다
type Source struct {
	fileSystem interfaces.FileSystem
	logger     *logrus.Logger
	path       string
}

// NewSource는 새로운 Source를 생성합니다
func NewSource(fileSystem interfaces.FileSystem, logger *logrus.Logger, path string) *Source {
	return &Source{
		fileSystem: fileSystem,
		logger:     logger,
		path:       path,
	}
}

// Targets는 설정 파일이 선언한 이름 변경 대상을 선언 순서대로 반환합니다.
// 파일이 없으면 대상이 없는 것이므로 빈 목록을 반환합니다
func (s *Source) Targets() ([]entities.RenameTarget, error) {
	if !s.fileSystem.Exists(s.path) {
		s.logger.WithField("path", s.path).Debug("network-config 파일이 없어 이름 변경 대상 없음")
		return nil, nil
	}

	data, err := s.fileSystem.ReadFile(s.path)
	if err != nil {
		return nil, domainErrors.NewSystemError(
			fmt.Sprintf("network-config 읽기 실패: %s", s.path), err)
	}
	return s.parse(data)
}

// parse는 YAML을 해석해 set-name 선언들을 RenameTarget으로 변환합니다.
// 맵 순회 순서가 아니라 문서에 적힌 순서를 보존해야 하므로
// yaml.Node를 직접 걷습니다
func (s *Source) parse(data []byte) ([]entities.RenameTarget, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, domainErrors.NewValidationError("network-config YAML 파싱 실패", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	// netplan 파일은 network: 아래에, 데이터소스 원본은 최상위에 섹션을 둡니다
	section := doc.Content[0]
	if wrapped := mappingValue(section, "network"); wrapped != nil {
		section = wrapped
	}

	if version := mappingValue(section, "version"); version != nil && version.Value != "2" {
		return nil, domainErrors.NewValidationError(
			fmt.Sprintf("지원하지 않는 network-config 버전: %s", version.Value), nil)
	}

	ethernets := mappingValue(section, "ethernets")
	if ethernets == nil || ethernets.Kind != yaml.MappingNode {
		return nil, nil
	}

	var targets []entities.RenameTarget
	for i := 0; i+1 < len(ethernets.Content); i += 2 {
		key := ethernets.Content[i].Value

		var eth ethernet
		if err := ethernets.Content[i+1].Decode(&eth); err != nil {
			return nil, domainErrors.NewValidationError(
				fmt.Sprintf("이더넷 선언 해석 실패: %s", key), err)
		}

		if eth.SetName == "" {
			continue
		}
		if eth.Match.MacAddress == "" {
			// MAC 없는 매칭으로는 디바이스를 특정할 수 없으므로 이름 변경에서 제외합니다
			s.logger.WithFields(logrus.Fields{
				"ethernet": key,
				"set_name": eth.SetName,
			}).Warn("macaddress 매칭이 없는 set-name 선언은 무시됨")
			continue
		}

		target := entities.RenameTarget{
			Mac:    strings.ToLower(eth.Match.MacAddress),
			Name:   eth.SetName,
			Driver: eth.Match.Driver,
		}
		if err := target.Validate(); err != nil {
			return nil, domainErrors.NewValidationError(
				fmt.Sprintf("잘못된 이름 변경 대상: %s", key), err)
		}
		targets = append(targets, target)
	}

	s.logger.WithField("targets", len(targets)).Debug("network-config에서 이름 변경 대상 로드")
	return targets, nil
}

// mappingValue는 매핑 노드에서 키에 해당하는 값 노드를 찾습니다
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
