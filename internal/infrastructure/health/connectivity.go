package health

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPConnectivityChecker는 URL에 HTTP GET이 성공하는지로 연결성을
// 판정하는 ConnectivityChecker 구현입니다. 임시 네트워크 설정 전에
// 이미 연결성이 있는 경우를 감지하는 데 사용됩니다
type HTTPConnectivityChecker struct {
	client *http.Client
	logger *logrus.Logger
}

// NewHTTPConnectivityChecker는 새로운 HTTPConnectivityChecker를 생성합니다
func NewHTTPConnectivityChecker(logger *logrus.Logger, timeout time.Duration) *HTTPConnectivityChecker {
	return &HTTPConnectivityChecker{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// HasConnectivity는 URL에 도달해 오류 아닌 응답을 받으면 true를 반환합니다.
// 실패 원인은 판정에 영향을 주지 않으므로 로그로만 남깁니다
func (c *HTTPConnectivityChecker) HasConnectivity(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.WithError(err).WithField("url", url).Debug("연결성 검사 요청 생성 실패")
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("url", url).Debug("연결성 검사 실패")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.WithFields(logrus.Fields{
			"url":    url,
			"status": resp.StatusCode,
		}).Debug("연결성 검사 응답이 오류 상태")
		return false
	}
	return true
}
