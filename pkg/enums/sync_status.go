package enums

import "fmt"

// SyncStatus reflects the health of a tenant's marketplace connection.
type SyncStatus string

const (
	SyncStatusConnected    SyncStatus = "connected"
	SyncStatusTokenExpired SyncStatus = "token_expired"
	SyncStatusError        SyncStatus = "error"
	SyncStatusDisconnected SyncStatus = "disconnected"
)

var validSyncStatuses = []SyncStatus{
	SyncStatusConnected,
	SyncStatusTokenExpired,
	SyncStatusError,
	SyncStatusDisconnected,
}

func (s SyncStatus) String() string {
	return string(s)
}

func (s SyncStatus) IsValid() bool {
	for _, candidate := range validSyncStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseSyncStatus(value string) (SyncStatus, error) {
	for _, candidate := range validSyncStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync status %q", value)
}
