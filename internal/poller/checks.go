package poller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Alias1177/TweetMood/internal/model"
)

// HealthChecker is implemented by the prediction service client
type HealthChecker interface {
	CheckHealth(ctx context.Context) model.HealthStatus
}

// InfoFetcher is implemented by the prediction service client
type InfoFetcher interface {
	GetServiceInfo(ctx context.Context) (model.ServiceInfo, error)
}

// HealthCheck maps the service health to Online or Offline
func HealthCheck(client HealthChecker) Check {
	return func(ctx context.Context) Status {
		h := client.CheckHealth(ctx)
		level := Offline
		if h.Healthy {
			level = Online
		}
		return Status{Level: level, Message: h.Message, CheckedAt: time.Now(), Detail: h}
	}
}

// InfoCheck maps the service info to Available when the service computes on a
// GPU and Unavailable otherwise, including when the info cannot be fetched
func InfoCheck(client InfoFetcher) Check {
	return func(ctx context.Context) Status {
		info, err := client.GetServiceInfo(ctx)
		if err != nil {
			return Status{Level: Unavailable, Message: err.Error(), CheckedAt: time.Now()}
		}

		level := Unavailable
		accel := "CPU"
		if info.HasGPU() {
			level = Available
			accel = "GPU"
		}
		msg := fmt.Sprintf("TensorFlow %s on %s", info.TFVersion, accel)
		if len(info.Devices) > 0 {
			msg += " (" + strings.Join(info.Devices, ", ") + ")"
		}
		return Status{Level: level, Message: msg, CheckedAt: time.Now(), Detail: info}
	}
}

// StartHealth polls the service health
func StartHealth(client HealthChecker, interval time.Duration, onChange func(Status)) *Handle {
	return StartPolling(interval, HealthCheck(client), onChange)
}

// StartInfo polls the service info
func StartInfo(client InfoFetcher, interval time.Duration, onChange func(Status)) *Handle {
	return StartPolling(interval, InfoCheck(client), onChange)
}
