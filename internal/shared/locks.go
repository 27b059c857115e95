package shared

import "fmt"

// DocumentLockKey builds redis keys serialising version writes per document.
func DocumentLockKey(kind string, documentID int64) string {
	return fmt.Sprintf("documents:%s:%d:lock", kind, documentID)
}
