package service

import (
	"errors"
	"fmt"
	"strings"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/repository"
)

const documentRetries = 3

// retryOnConflict reruns fn while it fails with a version conflict. fn must
// reload the document it writes on every call.
func retryOnConflict(what string, fn func() error) error {
	for attempt := 1; attempt <= documentRetries; attempt++ {
		err := fn()
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: %s after %d attempts", domain.ErrConcurrentUpdateConflict, what, documentRetries)
}

// damageOpID is the ledger operation id a damage report marks its unit
// damaged under.
func damageOpID(reportID string) string {
	return opID(reportID, string(domain.OpMarkDamaged))
}

// restoredDamageOp pairs "<id>:restore" with "<id>:markDamaged". Other ids
// have no recorded damage to undo.
func restoredDamageOp(restoreOpID string) string {
	id, ok := strings.CutSuffix(restoreOpID, ":restore")
	if !ok || id == "" {
		return ""
	}
	return damageOpID(id)
}

func opID(parts ...string) string {
	id := parts[0]
	for _, p := range parts[1:] {
		id += ":" + p
	}
	return id
}
