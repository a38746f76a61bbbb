package rfc3442

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Route는 RFC3442 옵션에서 해석한 클래스리스 정적 경로
type Route struct {
	Destination string // CIDR 표기 목적지 (예: 169.254.169.254/32)
	Gateway     string // 점분리 십진 게이트웨이 주소
}

// Decoder는 DHCP 클라이언트가 리스 파일에 기록하는
// 클래스리스 정적 경로 문자열을 해석
type Decoder struct {
	logger *logrus.Logger
}

func NewDecoder(logger *logrus.Logger) *Decoder {
	return &Decoder{logger: logger}
}

// Parse는 십진 토큰열에서 정적 경로 목록을 해석
// 프리픽스 길이에 따라 목적지의 유효 옥텟 수가 달라지며,
// 손상된 입력을 만나면 그 지점까지 해석한 경로만 반환하고
// 오류는 내지 않습니다.
func (d *Decoder) Parse(data string) []Route {
	routes := []Route{}
	if data == "" {
		return routes
	}

	// dhclient는 쉼표, dhcpcd는 공백/점 구분 형식을 쓰므로 모두 수용
	tokens := strings.FieldsFunc(data, func(r rune) bool {
		return r == ',' || r == ' ' || r == '.'
	})

	idx := 0
	for idx < len(tokens) {
		netLength, err := strconv.Atoi(tokens[idx])
		if err != nil || netLength < 0 || netLength > 32 {
			d.logger.WithFields(logrus.Fields{
				"token": tokens[idx],
				"data":  data,
			}).Warn("잘못된 프리픽스 길이, rfc3442-classless-static-routes 값을 확인 필요")
			return routes
		}

		// 프리픽스 길이 1~8은 1옥텟, 9~16은 2옥텟, 17~24는 3옥텟, 25~32는 4옥텟
		sigOctets := (netLength + 7) / 8
		required := 1 + sigOctets + 4

		if remain := len(tokens) - idx; remain < required {
			d.logger.WithFields(logrus.Fields{
				"prefix_length":   netLength,
				"required_tokens": required,
				"remaining":       remain,
				"data":            data,
			}).Warn("RFC3442 문자열이 잘림, rfc3442-classless-static-routes 값을 확인 필요")
			return routes
		}

		if !validOctets(tokens[idx+1 : idx+required]) {
			d.logger.WithFields(logrus.Fields{
				"prefix_length": netLength,
				"data":          data,
			}).Warn("범위를 벗어난 옥텟, rfc3442-classless-static-routes 값을 확인 필요")
			return routes
		}

		destOctets := make([]string, 0, 4)
		destOctets = append(destOctets, tokens[idx+1:idx+1+sigOctets]...)
		for len(destOctets) < 4 {
			destOctets = append(destOctets, "0")
		}

		routes = append(routes, Route{
			Destination: strings.Join(destOctets, ".") + "/" + strconv.Itoa(netLength),
			Gateway:     strings.Join(tokens[idx+1+sigOctets:idx+required], "."),
		})

		idx += required
	}

	return routes
}

// validOctets는 모든 토큰이 0~255 범위의 십진수인지 확인합니다
func validOctets(tokens []string) bool {
	for _, token := range tokens {
		value, err := strconv.Atoi(token)
		if err != nil || value < 0 || value > 255 {
			return false
		}
	}
	return true
}
