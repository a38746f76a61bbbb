package dhcp

import (
	"regexp"
	"strings"

	"github.com/canonical/cloud-init-sub001/internal/domain/entities"
)

// lease { ... } 스탠자를 추출합니다. dhclient는 갱신할 때마다 스탠자를
// 파일 끝에 덧붙이므로 한 파일에 여러 스탠자가 쌓입니다
var leaseStanzaRegex = regexp.MustCompile(`(?s)lease \{(.*?)\}`)

// ParseLeaseFile은 ISC dhclient 리스 파일 내용을 파싱합니다.
// 스탠자는 파일에 나타난 순서대로 반환되며 마지막 것이 최신입니다.
// 각 엔트리는 ';'로 끝나고, "option " 접두사와 값의 둘레 따옴표는 제거됩니다
func ParseLeaseFile(content string) []entities.Lease {
	var leases []entities.Lease
	for _, match := range leaseStanzaRegex.FindAllStringSubmatch(content, -1) {
		lease := entities.Lease{}
		for _, entry := range strings.Split(match[1], ";") {
			entry = strings.TrimSpace(entry)
			entry = strings.TrimPrefix(entry, "option ")
			if entry == "" {
				continue
			}
			fields := strings.SplitN(entry, " ", 2)
			if len(fields) != 2 {
				continue
			}
			key := strings.TrimSpace(fields[0])
			value := strings.Trim(strings.TrimSpace(fields[1]), `"`)
			lease[key] = value
		}
		leases = append(leases, lease)
	}
	return leases
}
