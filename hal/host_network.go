//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"time"
)

// hostWiFi pretends to associate with any access point. The host's own
// network stack is already up, so only the offline switch matters.
type hostWiFi struct {
	offline bool
}

func (w *hostWiFi) Connect(ctx context.Context, ssid, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.offline {
		return fmt.Errorf("wifi connect %q: %w", ssid, ErrOffline)
	}
	return nil
}

// hostSSIDs is what the host radio reports in range.
var hostSSIDs = []string{"Office", "Home", "Cafe", "Library"}

func (w *hostWiFi) Scan(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.offline {
		return nil, fmt.Errorf("wifi scan: %w", ErrOffline)
	}
	return append([]string(nil), hostSSIDs...), nil
}

// hostTimeSource answers from the host clock, which the host OS already keeps
// in sync.
type hostTimeSource struct {
	offline bool
}

func (s hostTimeSource) Now(ctx context.Context, servers []string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	if s.offline {
		return time.Time{}, fmt.Errorf("ntp: %w", ErrOffline)
	}
	if len(servers) == 0 {
		return time.Time{}, fmt.Errorf("ntp: no servers")
	}
	return time.Now(), nil
}
