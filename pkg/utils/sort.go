package utils

import "strings"

// NaturalLess는 사람이 읽는 순서로 두 문자열을 비교
// 숫자 구간은 수치로, 나머지 구간은 소문자 변환 후 사전순으로 비교하므로
// ens3이 ens10보다 앞에 옵니다.
func NaturalLess(a, b string) bool {
	at := naturalTokens(a)
	bt := naturalTokens(b)

	for i := 0; i < len(at) && i < len(bt); i++ {
		// 토큰 목록은 텍스트로 시작해 숫자와 교대로 나타나므로
		// 같은 위치의 토큰은 항상 같은 종류입니다.
		if i%2 == 1 {
			if c := compareNumeric(at[i], bt[i]); c != 0 {
				return c < 0
			}
			continue
		}

		if at[i] != bt[i] {
			return at[i] < bt[i]
		}
	}

	return len(at) < len(bt)
}

// naturalTokens는 문자열을 텍스트/숫자 토큰으로 분해
// 짝수 인덱스는 소문자 텍스트, 홀수 인덱스는 숫자 구간입니다.
func naturalTokens(s string) []string {
	var tokens []string
	start := 0
	inDigits := false

	for i := 0; i < len(s); i++ {
		isDigit := s[i] >= '0' && s[i] <= '9'
		if i == 0 {
			inDigits = isDigit
			if isDigit {
				// 숫자로 시작하면 빈 텍스트 토큰을 먼저 둡니다
				tokens = append(tokens, "")
			}
			continue
		}

		if isDigit != inDigits {
			tokens = append(tokens, normalizeToken(s[start:i], inDigits))
			start = i
			inDigits = isDigit
		}
	}

	if len(s) > 0 {
		tokens = append(tokens, normalizeToken(s[start:], inDigits))
	}

	return tokens
}

func normalizeToken(token string, digits bool) string {
	if digits {
		return token
	}
	return strings.ToLower(token)
}

// compareNumeric은 숫자 문자열을 자릿수 오버플로 없이 수치 비교
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")

	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}

	return strings.Compare(a, b)
}
